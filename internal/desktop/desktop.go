// SPDX-License-Identifier: Apache-2.0

// Package desktop defines the desktop capability boundary: the set of
// primitive GUI operations the executor dispatches to.
package desktop

import (
	"context"
	"fmt"
	"time"

	"github.com/deskpilot/deskpilot/internal/vision"
)

// Provider performs primitive GUI operations. There is exactly one method per
// non-terminal action kind. Methods block until the operation has been
// dispatched to the desktop; any settle delay after input events is the
// orchestrator's concern. Implementations are not required to be safe for
// concurrent use: the engine drives one plan at a time.
type Provider interface {
	Click(ctx context.Context, x, y int) error
	DoubleClick(ctx context.Context, x, y int) error
	MoveMouse(ctx context.Context, x, y int, duration time.Duration) error
	TypeText(ctx context.Context, text string, interval time.Duration) error
	PressKey(ctx context.Context, key string, modifiers []string) error
	Scroll(ctx context.Context, direction string, amount int) error
	OpenApplication(ctx context.Context, name string) error
	Navigate(ctx context.Context, url string) error
	Wait(ctx context.Context, duration time.Duration) error
	ReadClipboard(ctx context.Context) (string, error)
	CaptureScreenshot(ctx context.Context) ([]byte, error)
	AnalyzeScreenshot(ctx context.Context, image []byte, query string) (*vision.Analysis, error)
}

// CapabilityError is the failure a provider reports when a primitive
// operation cannot be carried out.
type CapabilityError struct {
	Op  string
	Err error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("desktop capability %s failed: %v", e.Op, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }
