// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/deskpilot/deskpilot/internal/vision"
)

// MockProvider is a testify mock of the desktop capability provider. Calls
// are recorded in order, so tests can assert both which primitives ran and
// that they ran in plan order.
type MockProvider struct {
	mock.Mock
	Calls []string
}

func (m *MockProvider) record(op string) {
	m.Calls = append(m.Calls, op)
}

func (m *MockProvider) Click(ctx context.Context, x, y int) error {
	m.record("click")
	args := m.Called(ctx, x, y)
	return args.Error(0)
}

func (m *MockProvider) DoubleClick(ctx context.Context, x, y int) error {
	m.record("double_click")
	args := m.Called(ctx, x, y)
	return args.Error(0)
}

func (m *MockProvider) MoveMouse(ctx context.Context, x, y int, duration time.Duration) error {
	m.record("move_mouse")
	args := m.Called(ctx, x, y, duration)
	return args.Error(0)
}

func (m *MockProvider) TypeText(ctx context.Context, text string, interval time.Duration) error {
	m.record("type_text")
	args := m.Called(ctx, text, interval)
	return args.Error(0)
}

func (m *MockProvider) PressKey(ctx context.Context, key string, modifiers []string) error {
	m.record("press_key")
	args := m.Called(ctx, key, modifiers)
	return args.Error(0)
}

func (m *MockProvider) Scroll(ctx context.Context, direction string, amount int) error {
	m.record("scroll")
	args := m.Called(ctx, direction, amount)
	return args.Error(0)
}

func (m *MockProvider) OpenApplication(ctx context.Context, name string) error {
	m.record("open_application")
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockProvider) Navigate(ctx context.Context, url string) error {
	m.record("navigate")
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockProvider) Wait(ctx context.Context, duration time.Duration) error {
	m.record("wait")
	args := m.Called(ctx, duration)
	return args.Error(0)
}

func (m *MockProvider) ReadClipboard(ctx context.Context) (string, error) {
	m.record("read_clipboard")
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) CaptureScreenshot(ctx context.Context) ([]byte, error) {
	m.record("capture_screenshot")
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockProvider) AnalyzeScreenshot(ctx context.Context, image []byte, query string) (*vision.Analysis, error) {
	m.record("analyze_screenshot")
	args := m.Called(ctx, image, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vision.Analysis), args.Error(1)
}

// MockGenerator is a testify mock of the plan generator.
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, command string) ([]interface{}, error) {
	args := m.Called(ctx, command)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interface{}), args.Error(1)
}

// MockAnalyzer is a testify mock of the visual analyzer.
type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, image []byte, query string) (*vision.Analysis, error) {
	args := m.Called(ctx, image, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vision.Analysis), args.Error(1)
}
