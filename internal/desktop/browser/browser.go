// SPDX-License-Identifier: Apache-2.0

// Package browser implements the desktop capability provider against a
// Chrome/Chromium instance driven over the DevTools protocol. The browser
// window stands in for the desktop: coordinates address the viewport and
// applications are opened through configured URL shortcuts.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/deskpilot/deskpilot/internal/core/config"
	"github.com/deskpilot/deskpilot/internal/desktop"
	"github.com/deskpilot/deskpilot/internal/vision"
)

const defaultOpTimeout = 60 * time.Second

// Provider is a browser-backed desktop.Provider.
type Provider struct {
	mu            sync.Mutex
	cfg           config.Browser
	analyzer      vision.Analyzer
	opTimeout     time.Duration
	allocCtx      context.Context
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
}

// New creates a browser provider. The analyzer may be nil, in which case
// AnalyzeScreenshot fails with a capability error.
func New(cfg config.Browser, analyzer vision.Analyzer) *Provider {
	opTimeout := defaultOpTimeout
	if cfg.OpTimeoutMS > 0 {
		opTimeout = time.Duration(cfg.OpTimeoutMS) * time.Millisecond
	}
	return &Provider{cfg: cfg, analyzer: analyzer, opTimeout: opTimeout}
}

// Start launches the browser and navigates to the configured start page.
func (p *Provider) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.browserCtx != nil {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("headless", p.cfg.Headless),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	p.allocCtx, p.allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	p.browserCtx, p.browserCancel = chromedp.NewContext(p.allocCtx)

	startURL := p.cfg.StartURL
	if startURL == "" {
		startURL = "about:blank"
	}
	if err := chromedp.Run(p.browserCtx, chromedp.Navigate(startURL)); err != nil {
		p.cleanup()
		return &desktop.CapabilityError{Op: "start", Err: err}
	}
	return nil
}

// Close shuts the browser down.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleanup()
}

func (p *Provider) cleanup() {
	if p.browserCancel != nil {
		p.browserCancel()
	}
	if p.allocCancel != nil {
		p.allocCancel()
	}
	p.browserCtx = nil
	p.allocCtx = nil
}

// run executes chromedp actions against the live browser with the per-op
// timeout applied.
func (p *Provider) run(ctx context.Context, op string, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return &desktop.CapabilityError{Op: op, Err: err}
	}

	p.mu.Lock()
	browserCtx := p.browserCtx
	p.mu.Unlock()
	if browserCtx == nil {
		return &desktop.CapabilityError{Op: op, Err: fmt.Errorf("browser not started")}
	}

	opCtx, cancel := context.WithTimeout(browserCtx, p.opTimeout)
	defer cancel()

	if err := chromedp.Run(opCtx, actions...); err != nil {
		return &desktop.CapabilityError{Op: op, Err: err}
	}
	return nil
}

func (p *Provider) Click(ctx context.Context, x, y int) error {
	return p.run(ctx, "click", chromedp.MouseClickXY(float64(x), float64(y)))
}

func (p *Provider) DoubleClick(ctx context.Context, x, y int) error {
	return p.run(ctx, "double_click", chromedp.MouseClickXY(float64(x), float64(y), chromedp.ClickCount(2)))
}

func (p *Provider) MoveMouse(ctx context.Context, x, y int, duration time.Duration) error {
	// The DevTools protocol has no animated pointer moves; the duration is
	// honored as a pause after the jump so pages see a settled pointer.
	actions := []chromedp.Action{
		chromedp.ActionFunc(func(ctx context.Context) error {
			return input.DispatchMouseEvent(input.MouseMoved, float64(x), float64(y)).Do(ctx)
		}),
	}
	if duration > 0 {
		actions = append(actions, chromedp.Sleep(duration))
	}
	return p.run(ctx, "move_mouse", actions...)
}

func (p *Provider) TypeText(ctx context.Context, text string, interval time.Duration) error {
	return p.run(ctx, "type_text", chromedp.ActionFunc(func(ctx context.Context) error {
		for _, r := range text {
			if err := chromedp.KeyEvent(string(r)).Do(ctx); err != nil {
				return err
			}
			if interval > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(interval):
				}
			}
		}
		return nil
	}))
}

func (p *Provider) PressKey(ctx context.Context, key string, modifiers []string) error {
	keys, err := resolveKey(key)
	if err != nil {
		return &desktop.CapabilityError{Op: "press_key", Err: err}
	}
	mods, err := resolveModifiers(modifiers)
	if err != nil {
		return &desktop.CapabilityError{Op: "press_key", Err: err}
	}

	var opts []chromedp.KeyOption
	if mods != 0 {
		opts = append(opts, chromedp.KeyModifiers(mods))
	}
	return p.run(ctx, "press_key", chromedp.KeyEvent(keys, opts...))
}

func (p *Provider) Scroll(ctx context.Context, direction string, amount int) error {
	// One notional line is 40px, roughly a wheel tick.
	px := amount * 40
	var dx, dy int
	switch direction {
	case "up":
		dy = -px
	case "down":
		dy = px
	case "left":
		dx = -px
	case "right":
		dx = px
	default:
		return &desktop.CapabilityError{Op: "scroll", Err: fmt.Errorf("unsupported direction %q", direction)}
	}
	return p.run(ctx, "scroll",
		chromedp.Evaluate(fmt.Sprintf("window.scrollBy(%d, %d)", dx, dy), nil))
}

func (p *Provider) OpenApplication(ctx context.Context, name string) error {
	url, ok := p.lookupApplication(name)
	if !ok {
		return &desktop.CapabilityError{
			Op:  "open_application",
			Err: fmt.Errorf("no URL shortcut configured for application %q", name),
		}
	}
	return p.run(ctx, "open_application", chromedp.Navigate(url))
}

func (p *Provider) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, "navigate", chromedp.Navigate(url))
}

func (p *Provider) Wait(ctx context.Context, duration time.Duration) error {
	select {
	case <-ctx.Done():
		return &desktop.CapabilityError{Op: "wait", Err: ctx.Err()}
	case <-time.After(duration):
		return nil
	}
}

func (p *Provider) ReadClipboard(ctx context.Context) (string, error) {
	var text string
	err := p.run(ctx, "read_clipboard",
		chromedp.Evaluate(`navigator.clipboard.readText()`, &text,
			func(params *runtime.EvaluateParams) *runtime.EvaluateParams {
				return params.WithAwaitPromise(true)
			}))
	if err != nil {
		return "", err
	}
	return text, nil
}

func (p *Provider) CaptureScreenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := p.run(ctx, "capture_screenshot", chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (p *Provider) AnalyzeScreenshot(ctx context.Context, image []byte, query string) (*vision.Analysis, error) {
	if p.analyzer == nil {
		return nil, &desktop.CapabilityError{
			Op:  "analyze_screenshot",
			Err: fmt.Errorf("no visual analyzer configured"),
		}
	}
	analysis, err := p.analyzer.Analyze(ctx, image, query)
	if err != nil {
		return nil, &desktop.CapabilityError{Op: "analyze_screenshot", Err: err}
	}
	return analysis, nil
}

// lookupApplication resolves an application name against the configured URL
// shortcuts, case-insensitively.
func (p *Provider) lookupApplication(name string) (string, bool) {
	if url, ok := p.cfg.Applications[name]; ok {
		return url, true
	}
	lowered := strings.ToLower(name)
	for app, url := range p.cfg.Applications {
		if strings.ToLower(app) == lowered {
			return url, true
		}
	}
	return "", false
}
