// SPDX-License-Identifier: Apache-2.0

// Package executor performs the side effect for exactly one validated action
// by dispatching it to the desktop capability provider.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/deskpilot/deskpilot/internal/core/action"
	"github.com/deskpilot/deskpilot/internal/desktop"
	"github.com/deskpilot/deskpilot/internal/vision"
)

// State is the cross-step context the orchestrator threads through an
// execution: the most recent screenshot and its analysis. The executor keeps
// no state of its own between calls.
type State struct {
	Screenshot []byte
	Analysis   *vision.Analysis
	Clipboard  string
}

// StepResult is the outcome of executing one action.
type StepResult struct {
	// Output carries the action's result payload, e.g. clipboard text or an
	// analysis summary. Nil for actions with no readable result.
	Output map[string]interface{}
	// Terminal signals the orchestrator to stop.
	Terminal bool
	// Success distinguishes TASK_COMPLETE from TASK_FAILED for terminal
	// results; meaningless otherwise.
	Success bool
	// Message is the terminal action's completion or failure message.
	Message string
}

// ExecutionError wraps a provider failure for one action. It is fatal to the
// in-progress plan; retrying is not the executor's business.
type ExecutionError struct {
	Kind action.Kind
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("error executing %s: %v", e.Kind, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// CoordinateResolutionError indicates a visually-targeted action whose
// coordinates could not be resolved. The provider is never called with
// unresolved coordinates.
type CoordinateResolutionError struct {
	Kind        action.Kind
	Description string
}

func (e *CoordinateResolutionError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("cannot resolve coordinates for %s: no coordinates or target description given", e.Kind)
	}
	return fmt.Sprintf("cannot resolve coordinates for %s: no analyzed element matches %q", e.Kind, e.Description)
}

// Execute dispatches one validated action to the provider. Every non-terminal
// kind maps to exactly one provider call; terminal kinds make none and return
// a terminal StepResult instead.
func Execute(ctx context.Context, act action.Action, provider desktop.Provider, state *State) (*StepResult, error) {
	switch a := act.(type) {
	case action.Click:
		coords, err := resolveTarget(a.Kind(), a.X, a.Y, a.Description, state)
		if err != nil {
			return nil, err
		}
		if err := provider.Click(ctx, coords.X, coords.Y); err != nil {
			return nil, &ExecutionError{Kind: a.Kind(), Err: err}
		}
		return &StepResult{}, nil

	case action.DoubleClick:
		coords, err := resolveTarget(a.Kind(), a.X, a.Y, a.Description, state)
		if err != nil {
			return nil, err
		}
		if err := provider.DoubleClick(ctx, coords.X, coords.Y); err != nil {
			return nil, &ExecutionError{Kind: a.Kind(), Err: err}
		}
		return &StepResult{}, nil

	case action.MoveMouse:
		duration := time.Duration(a.DurationMS) * time.Millisecond
		if err := provider.MoveMouse(ctx, a.X, a.Y, duration); err != nil {
			return nil, &ExecutionError{Kind: a.Kind(), Err: err}
		}
		return &StepResult{}, nil

	case action.TypeText:
		interval := time.Duration(a.IntervalMS) * time.Millisecond
		if err := provider.TypeText(ctx, a.Text, interval); err != nil {
			return nil, &ExecutionError{Kind: a.Kind(), Err: err}
		}
		return &StepResult{}, nil

	case action.PressKey:
		if err := provider.PressKey(ctx, a.Key, a.Modifiers); err != nil {
			return nil, &ExecutionError{Kind: a.Kind(), Err: err}
		}
		return &StepResult{}, nil

	case action.Scroll:
		if err := provider.Scroll(ctx, a.Direction, a.Amount); err != nil {
			return nil, &ExecutionError{Kind: a.Kind(), Err: err}
		}
		return &StepResult{}, nil

	case action.OpenApplication:
		if err := provider.OpenApplication(ctx, a.ApplicationName); err != nil {
			return nil, &ExecutionError{Kind: a.Kind(), Err: err}
		}
		return &StepResult{Output: map[string]interface{}{"application": a.ApplicationName}}, nil

	case action.NavigateToWebsite:
		if err := provider.Navigate(ctx, a.URL); err != nil {
			return nil, &ExecutionError{Kind: a.Kind(), Err: err}
		}
		return &StepResult{Output: map[string]interface{}{"url": a.URL}}, nil

	case action.Wait:
		duration := time.Duration(a.DurationMS) * time.Millisecond
		if err := provider.Wait(ctx, duration); err != nil {
			return nil, &ExecutionError{Kind: a.Kind(), Err: err}
		}
		return &StepResult{Output: map[string]interface{}{"waited_ms": a.DurationMS}}, nil

	case action.ReadClipboard:
		text, err := provider.ReadClipboard(ctx)
		if err != nil {
			return nil, &ExecutionError{Kind: a.Kind(), Err: err}
		}
		state.Clipboard = text
		return &StepResult{Output: map[string]interface{}{"text": text}}, nil

	case action.TakeScreenshot:
		image, err := provider.CaptureScreenshot(ctx)
		if err != nil {
			return nil, &ExecutionError{Kind: a.Kind(), Err: err}
		}
		state.Screenshot = image
		return &StepResult{Output: map[string]interface{}{"size_bytes": len(image)}}, nil

	case action.AnalyzeScreenshot:
		if len(state.Screenshot) == 0 {
			return nil, &ExecutionError{
				Kind: a.Kind(),
				Err:  fmt.Errorf("no screenshot captured yet; TAKE_SCREENSHOT must run first"),
			}
		}
		analysis, err := provider.AnalyzeScreenshot(ctx, state.Screenshot, a.Prompt)
		if err != nil {
			return nil, &ExecutionError{Kind: a.Kind(), Err: err}
		}
		state.Analysis = analysis
		return &StepResult{Output: map[string]interface{}{
			"summary":  analysis.Summary,
			"elements": len(analysis.Elements),
		}}, nil

	case action.TaskComplete:
		return &StepResult{Terminal: true, Success: true, Message: terminalMessage(a.Message, a.Purpose())}, nil

	case action.TaskFailed:
		return &StepResult{Terminal: true, Success: false, Message: terminalMessage(a.Message, a.Purpose())}, nil

	default:
		// Unreachable for actions produced by the validator: both sides
		// consult the same registry.
		return nil, &ExecutionError{
			Kind: act.Kind(),
			Err:  fmt.Errorf("no dispatch mapping for action kind"),
		}
	}
}

// resolveTarget picks literal coordinates when both are present, otherwise
// resolves the description against the most recent screenshot analysis.
func resolveTarget(kind action.Kind, x, y *int, description string, state *State) (vision.Coordinates, error) {
	if x != nil && y != nil {
		return vision.Coordinates{X: *x, Y: *y}, nil
	}
	if description == "" {
		return vision.Coordinates{}, &CoordinateResolutionError{Kind: kind}
	}
	if coords, ok := state.Analysis.Locate(description); ok {
		return coords, nil
	}
	return vision.Coordinates{}, &CoordinateResolutionError{Kind: kind, Description: description}
}

func terminalMessage(message, reason string) string {
	if message != "" {
		return message
	}
	return reason
}
