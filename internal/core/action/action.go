// SPDX-License-Identifier: Apache-2.0

package action

// Kind identifies exactly one action variant. The value doubles as the
// discriminator in the wire format produced by the plan generator.
type Kind string

const (
	KindClick             Kind = "CLICK"
	KindDoubleClick       Kind = "DOUBLE_CLICK"
	KindMoveMouse         Kind = "MOVE_MOUSE"
	KindTypeText          Kind = "TYPE_TEXT"
	KindPressKey          Kind = "PRESS_KEY"
	KindScroll            Kind = "SCROLL"
	KindOpenApplication   Kind = "OPEN_APPLICATION"
	KindNavigateToWebsite Kind = "NAVIGATE_TO_WEBSITE"
	KindWait              Kind = "WAIT"
	KindReadClipboard     Kind = "READ_CLIPBOARD"
	KindTakeScreenshot    Kind = "TAKE_SCREENSHOT"
	KindAnalyzeScreenshot Kind = "ANALYZE_SCREENSHOT"
	KindTaskComplete      Kind = "TASK_COMPLETE"
	KindTaskFailed        Kind = "TASK_FAILED"
)

// Action is one validated unit of GUI automation work. Every variant carries
// its kind and an optional free-text reason explaining its place in the plan.
type Action interface {
	Kind() Kind
	Purpose() string
}

// Base holds the fields shared by every action variant.
type Base struct {
	Reason string `json:"reason,omitempty"`
}

// Purpose returns the generator's stated reason for the action, if any.
func (b Base) Purpose() string { return b.Reason }

// Click performs a single left click. Coordinates are either literal (both X
// and Y set) or resolved at execution time from Description against the most
// recent screenshot analysis.
type Click struct {
	Base
	X           *int   `json:"x,omitempty"`
	Y           *int   `json:"y,omitempty"`
	Description string `json:"description,omitempty"`
}

func (Click) Kind() Kind { return KindClick }

// DoubleClick performs a double left click. Targeting works as for Click.
type DoubleClick struct {
	Base
	X           *int   `json:"x,omitempty"`
	Y           *int   `json:"y,omitempty"`
	Description string `json:"description,omitempty"`
}

func (DoubleClick) Kind() Kind { return KindDoubleClick }

// MoveMouse moves the pointer to literal coordinates.
type MoveMouse struct {
	Base
	X          int `json:"x"`
	Y          int `json:"y"`
	DurationMS int `json:"duration_ms,omitempty"`
}

func (MoveMouse) Kind() Kind { return KindMoveMouse }

// TypeText types text on the keyboard, one character per IntervalMS.
type TypeText struct {
	Base
	Text       string `json:"text"`
	IntervalMS int    `json:"interval_ms,omitempty"`
}

func (TypeText) Kind() Kind { return KindTypeText }

// PressKey presses a named key, optionally with modifier keys held.
type PressKey struct {
	Base
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers,omitempty"`
}

func (PressKey) Kind() Kind { return KindPressKey }

// Scroll scrolls the view in a direction by an amount in notional lines.
type Scroll struct {
	Base
	Direction string `json:"direction"`
	Amount    int    `json:"amount,omitempty"`
}

func (Scroll) Kind() Kind { return KindScroll }

// OpenApplication brings a named application to the foreground.
type OpenApplication struct {
	Base
	ApplicationName string `json:"application_name"`
}

func (OpenApplication) Kind() Kind { return KindOpenApplication }

// NavigateToWebsite opens a URL.
type NavigateToWebsite struct {
	Base
	URL string `json:"url"`
}

func (NavigateToWebsite) Kind() Kind { return KindNavigateToWebsite }

// Wait pauses execution for DurationMS milliseconds.
type Wait struct {
	Base
	DurationMS int `json:"duration_ms,omitempty"`
}

func (Wait) Kind() Kind { return KindWait }

// ReadClipboard reads the current clipboard text.
type ReadClipboard struct {
	Base
}

func (ReadClipboard) Kind() Kind { return KindReadClipboard }

// TakeScreenshot captures the screen for later analysis.
type TakeScreenshot struct {
	Base
}

func (TakeScreenshot) Kind() Kind { return KindTakeScreenshot }

// AnalyzeScreenshot runs visual analysis over the most recent screenshot.
type AnalyzeScreenshot struct {
	Base
	Prompt string `json:"prompt"`
}

func (AnalyzeScreenshot) Kind() Kind { return KindAnalyzeScreenshot }

// TaskComplete is the terminal action for a successful plan.
type TaskComplete struct {
	Base
	Message string `json:"message,omitempty"`
}

func (TaskComplete) Kind() Kind { return KindTaskComplete }

// TaskFailed is the terminal action for a plan the generator judged
// impossible to carry out.
type TaskFailed struct {
	Base
	Message string `json:"message,omitempty"`
}

func (TaskFailed) Kind() Kind { return KindTaskFailed }

// IsTerminal reports whether k ends plan execution.
func IsTerminal(k Kind) bool {
	return k == KindTaskComplete || k == KindTaskFailed
}
