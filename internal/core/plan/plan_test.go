// SPDX-License-Identifier: Apache-2.0

package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskpilot/deskpilot/internal/core/action"
	"github.com/deskpilot/deskpilot/internal/core/plan"
)

func newValidator() *plan.Validator {
	return plan.NewValidator(action.NewRegistry())
}

func TestValidateWellFormedPlan(t *testing.T) {
	candidate := []interface{}{
		map[string]interface{}{
			"kind":             "OPEN_APPLICATION",
			"application_name": "Calculator",
			"reason":           "launch",
		},
		map[string]interface{}{
			"kind":   "TASK_COMPLETE",
			"reason": "done",
		},
	}

	validated, err := newValidator().Validate(candidate)
	require.NoError(t, err)
	require.Equal(t, 2, validated.Len())

	open, ok := validated.Actions[0].(action.OpenApplication)
	require.True(t, ok)
	assert.Equal(t, "Calculator", open.ApplicationName)
	assert.Equal(t, "launch", open.Purpose())

	complete, ok := validated.Actions[1].(action.TaskComplete)
	require.True(t, ok)
	assert.Equal(t, "done", complete.Purpose())
}

func TestValidatePreservesOrder(t *testing.T) {
	candidate := []interface{}{
		map[string]interface{}{"kind": "TAKE_SCREENSHOT"},
		map[string]interface{}{"kind": "ANALYZE_SCREENSHOT", "prompt": "find the button"},
		map[string]interface{}{"kind": "CLICK", "description": "the button"},
		map[string]interface{}{"kind": "TYPE_TEXT", "text": "hello"},
		map[string]interface{}{"kind": "TASK_COMPLETE"},
	}

	validated, err := newValidator().Validate(candidate)
	require.NoError(t, err)

	wantKinds := []action.Kind{
		action.KindTakeScreenshot,
		action.KindAnalyzeScreenshot,
		action.KindClick,
		action.KindTypeText,
		action.KindTaskComplete,
	}
	require.Equal(t, len(wantKinds), validated.Len())
	for i, k := range wantKinds {
		assert.Equal(t, k, validated.Actions[i].Kind())
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	candidate := []interface{}{
		map[string]interface{}{"kind": "CLICK", "x": float64(10), "y": float64(10), "reason": "r"},
		map[string]interface{}{"kind": "WAIT"},
		map[string]interface{}{"kind": "TASK_COMPLETE"},
	}

	first, err := newValidator().Validate(candidate)
	require.NoError(t, err)
	second, err := newValidator().Validate(candidate)
	require.NoError(t, err)

	require.Equal(t, first.Len(), second.Len())
	for i := range first.Actions {
		assert.Equal(t, first.Actions[i], second.Actions[i])
	}
}

func TestValidateAppliesDefaults(t *testing.T) {
	candidate := []interface{}{
		map[string]interface{}{"kind": "WAIT"},
		map[string]interface{}{"kind": "SCROLL", "direction": "down"},
		map[string]interface{}{"kind": "TASK_COMPLETE"},
	}

	validated, err := newValidator().Validate(candidate)
	require.NoError(t, err)

	wait, ok := validated.Actions[0].(action.Wait)
	require.True(t, ok)
	assert.Equal(t, 1000, wait.DurationMS)

	scroll, ok := validated.Actions[1].(action.Scroll)
	require.True(t, ok)
	assert.Equal(t, 10, scroll.Amount)
}

func TestValidateIgnoresUnknownExtraFields(t *testing.T) {
	candidate := []interface{}{
		map[string]interface{}{
			"kind":       "TYPE_TEXT",
			"text":       "hello",
			"confidence": 0.9,
			"model_note": "extra metadata",
		},
		map[string]interface{}{"kind": "TASK_COMPLETE"},
	}

	validated, err := newValidator().Validate(candidate)
	require.NoError(t, err)

	typed, ok := validated.Actions[0].(action.TypeText)
	require.True(t, ok)
	assert.Equal(t, "hello", typed.Text)
}

func TestValidateStructureErrors(t *testing.T) {
	tests := []struct {
		name      string
		candidate interface{}
	}{
		{name: "nil candidate", candidate: nil},
		{name: "not a sequence", candidate: map[string]interface{}{"kind": "CLICK"}},
		{name: "scalar candidate", candidate: "CLICK"},
		{name: "empty sequence", candidate: []interface{}{}},
		{
			name: "element is not a record",
			candidate: []interface{}{
				"CLICK",
				map[string]interface{}{"kind": "TASK_COMPLETE"},
			},
		},
		{
			name: "element without discriminator",
			candidate: []interface{}{
				map[string]interface{}{"x": float64(1), "y": float64(2)},
				map[string]interface{}{"kind": "TASK_COMPLETE"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newValidator().Validate(tt.candidate)

			var structureErr *plan.StructureError
			assert.ErrorAs(t, err, &structureErr)
		})
	}
}

func TestValidateUnknownKindReportsPosition(t *testing.T) {
	candidate := []interface{}{
		map[string]interface{}{"kind": "TAKE_SCREENSHOT"},
		map[string]interface{}{"kind": "TELEPORT", "x": float64(1)},
		map[string]interface{}{"kind": "TASK_COMPLETE"},
	}

	_, err := newValidator().Validate(candidate)

	var unknownErr *plan.UnknownKindError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "TELEPORT", unknownErr.Kind)
	assert.Equal(t, 1, unknownErr.Position)
}

func TestValidateFieldErrors(t *testing.T) {
	tests := []struct {
		name      string
		candidate []interface{}
		wantKind  action.Kind
		wantPos   int
		wantField string
	}{
		{
			name: "wrong coordinate type",
			candidate: []interface{}{
				map[string]interface{}{"kind": "CLICK", "x": "ten", "y": float64(10), "reason": "r"},
				map[string]interface{}{"kind": "TASK_FAILED", "reason": "bad coords"},
			},
			wantKind:  action.KindClick,
			wantPos:   0,
			wantField: "x",
		},
		{
			name: "missing required field",
			candidate: []interface{}{
				map[string]interface{}{"kind": "TYPE_TEXT"},
				map[string]interface{}{"kind": "TASK_COMPLETE"},
			},
			wantKind:  action.KindTypeText,
			wantPos:   0,
			wantField: "text",
		},
		{
			name: "invalid scroll direction",
			candidate: []interface{}{
				map[string]interface{}{"kind": "CLICK", "x": float64(1), "y": float64(2)},
				map[string]interface{}{"kind": "SCROLL", "direction": "diagonal"},
				map[string]interface{}{"kind": "TASK_COMPLETE"},
			},
			wantKind:  action.KindScroll,
			wantPos:   1,
			wantField: "direction",
		},
		{
			name: "negative wait duration",
			candidate: []interface{}{
				map[string]interface{}{"kind": "WAIT", "duration_ms": float64(-5)},
				map[string]interface{}{"kind": "TASK_COMPLETE"},
			},
			wantKind:  action.KindWait,
			wantPos:   0,
			wantField: "duration_ms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newValidator().Validate(tt.candidate)

			var fieldErr *plan.FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.wantKind, fieldErr.Kind)
			assert.Equal(t, tt.wantPos, fieldErr.Position)
			assert.Equal(t, tt.wantField, fieldErr.Field)
			assert.NotEmpty(t, fieldErr.Problem)
		})
	}
}

func TestValidateTerminationErrors(t *testing.T) {
	tests := []struct {
		name      string
		candidate []interface{}
		wantPos   int
	}{
		{
			name: "missing terminal action",
			candidate: []interface{}{
				map[string]interface{}{"kind": "CLICK", "x": float64(1), "y": float64(2)},
			},
			wantPos: 0,
		},
		{
			name: "terminal action before the end",
			candidate: []interface{}{
				map[string]interface{}{"kind": "TASK_COMPLETE"},
				map[string]interface{}{"kind": "CLICK", "x": float64(10), "y": float64(10)},
			},
			wantPos: 0,
		},
		{
			name: "two terminal actions",
			candidate: []interface{}{
				map[string]interface{}{"kind": "TASK_FAILED"},
				map[string]interface{}{"kind": "TASK_COMPLETE"},
			},
			wantPos: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newValidator().Validate(tt.candidate)

			var terminationErr *plan.TerminationError
			require.ErrorAs(t, err, &terminationErr)
			assert.Equal(t, tt.wantPos, terminationErr.Position)
		})
	}
}
