// SPDX-License-Identifier: Apache-2.0

package orchestrator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/deskpilot/deskpilot/internal/core/action"
	"github.com/deskpilot/deskpilot/internal/core/plan"
	"github.com/deskpilot/deskpilot/internal/orchestrator"
	"github.com/deskpilot/deskpilot/internal/testutil"
)

func intPtr(v int) *int { return &v }

func TestRunExecutesStepsInOrder(t *testing.T) {
	provider := &testutil.MockProvider{}
	provider.On("OpenApplication", mock.Anything, "Calculator").Return(nil)
	provider.On("Click", mock.Anything, 10, 20).Return(nil)
	provider.On("TypeText", mock.Anything, "2+2", mock.Anything).Return(nil)

	p := plan.Plan{Actions: []action.Action{
		action.OpenApplication{ApplicationName: "Calculator"},
		action.Click{X: intPtr(10), Y: intPtr(20)},
		action.TypeText{Text: "2+2"},
		action.TaskComplete{Message: "sum entered"},
	}}

	o := orchestrator.New(provider, nil, nil, nil, orchestrator.Options{})
	outcome, history := o.Run(context.Background(), p)

	assert.Equal(t, orchestrator.StatusCompleted, outcome.Status)
	assert.Equal(t, "sum entered", outcome.Reason)

	// Provider primitives ran in plan order, nothing skipped or reordered.
	assert.Equal(t, []string{"open_application", "click", "type_text"}, provider.Calls)

	require.Len(t, history, 4)
	for i, entry := range history {
		assert.Equal(t, i, entry.Index)
		assert.False(t, entry.Failed)
	}
	assert.Equal(t, action.KindTaskComplete, history[3].Kind)
	provider.AssertExpectations(t)
}

func TestRunAbortsOnFirstFailure(t *testing.T) {
	provider := &testutil.MockProvider{}
	provider.On("OpenApplication", mock.Anything, "Calculator").Return(nil)
	clickErr := errors.New("target window went away")
	provider.On("Click", mock.Anything, 10, 20).Return(clickErr)

	p := plan.Plan{Actions: []action.Action{
		action.OpenApplication{ApplicationName: "Calculator"},
		action.Click{X: intPtr(10), Y: intPtr(20)},
		action.TypeText{Text: "never typed"},
		action.TaskComplete{},
	}}

	o := orchestrator.New(provider, nil, nil, nil, orchestrator.Options{})
	outcome, history := o.Run(context.Background(), p)

	assert.Equal(t, orchestrator.StatusAborted, outcome.Status)
	assert.Contains(t, outcome.Reason, "target window went away")

	// Steps after the failure are never attempted.
	assert.Equal(t, []string{"open_application", "click"}, provider.Calls)

	require.Len(t, history, 2)
	assert.False(t, history[0].Failed)
	assert.True(t, history[1].Failed)
	assert.Equal(t, action.KindClick, history[1].Kind)
	assert.Contains(t, history[1].Error, "target window went away")
}

func TestRunTaskFailedIsFailedNotAborted(t *testing.T) {
	provider := &testutil.MockProvider{}

	p := plan.Plan{Actions: []action.Action{
		action.TaskFailed{Message: "the requested application does not exist"},
	}}

	o := orchestrator.New(provider, nil, nil, nil, orchestrator.Options{})
	outcome, history := o.Run(context.Background(), p)

	assert.Equal(t, orchestrator.StatusFailed, outcome.Status)
	assert.Equal(t, "the requested application does not exist", outcome.Reason)
	require.Len(t, history, 1)
	assert.False(t, history[0].Failed)
	assert.Empty(t, provider.Calls)
}

func TestRunHonorsCancellationAtStepBoundary(t *testing.T) {
	provider := &testutil.MockProvider{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := plan.Plan{Actions: []action.Action{
		action.OpenApplication{ApplicationName: "Calculator"},
		action.TaskComplete{},
	}}

	o := orchestrator.New(provider, nil, nil, nil, orchestrator.Options{})
	outcome, history := o.Run(ctx, p)

	assert.Equal(t, orchestrator.StatusAborted, outcome.Status)
	assert.Contains(t, outcome.Reason, "canceled")
	assert.Empty(t, history)
	assert.Empty(t, provider.Calls)
}

func TestRunNotifiesObserverPerStep(t *testing.T) {
	provider := &testutil.MockProvider{}
	provider.On("Wait", mock.Anything, mock.Anything).Return(nil)

	var seen []action.Kind
	opts := orchestrator.Options{
		Observer: func(index, total int, act action.Action) {
			assert.Equal(t, 2, total)
			seen = append(seen, act.Kind())
		},
	}

	p := plan.Plan{Actions: []action.Action{
		action.Wait{DurationMS: 1},
		action.TaskComplete{},
	}}

	o := orchestrator.New(provider, nil, nil, nil, opts)
	o.Run(context.Background(), p)

	assert.Equal(t, []action.Kind{action.KindWait, action.KindTaskComplete}, seen)
}

func TestRunCommandFullPipeline(t *testing.T) {
	provider := &testutil.MockProvider{}
	provider.On("OpenApplication", mock.Anything, "Calculator").Return(nil)

	generator := &testutil.MockGenerator{}
	candidate := []interface{}{
		map[string]interface{}{
			"kind":             "OPEN_APPLICATION",
			"application_name": "Calculator",
			"reason":           "launch",
		},
		map[string]interface{}{"kind": "TASK_COMPLETE", "reason": "done"},
	}
	generator.On("Generate", mock.Anything, "open the calculator").Return(candidate, nil)

	validator := plan.NewValidator(action.NewRegistry())
	o := orchestrator.New(provider, generator, validator, nil, orchestrator.Options{})

	outcome, history, err := o.RunCommand(context.Background(), "open the calculator")
	require.NoError(t, err)

	assert.Equal(t, orchestrator.StatusCompleted, outcome.Status)
	require.Len(t, history, 2)
	assert.Equal(t, "launch", history[0].Reason)
	generator.AssertExpectations(t)
	provider.AssertExpectations(t)
}

func TestRunCommandGenerationFailure(t *testing.T) {
	provider := &testutil.MockProvider{}
	generator := &testutil.MockGenerator{}
	generator.On("Generate", mock.Anything, "do the thing").Return(nil, errors.New("model unavailable"))

	validator := plan.NewValidator(action.NewRegistry())
	o := orchestrator.New(provider, generator, validator, nil, orchestrator.Options{})

	_, _, err := o.RunCommand(context.Background(), "do the thing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
	assert.Empty(t, provider.Calls)
}

func TestRunCommandValidationFailureMakesNoSideEffects(t *testing.T) {
	provider := &testutil.MockProvider{}
	generator := &testutil.MockGenerator{}
	candidate := []interface{}{
		map[string]interface{}{"kind": "CLICK", "x": "ten", "y": float64(10)},
		map[string]interface{}{"kind": "TASK_COMPLETE"},
	}
	generator.On("Generate", mock.Anything, "click somewhere").Return(candidate, nil)

	validator := plan.NewValidator(action.NewRegistry())
	o := orchestrator.New(provider, generator, validator, nil, orchestrator.Options{})

	_, _, err := o.RunCommand(context.Background(), "click somewhere")

	var fieldErr *plan.FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Empty(t, provider.Calls)
}

func TestRunCommandWithoutGenerator(t *testing.T) {
	provider := &testutil.MockProvider{}
	validator := plan.NewValidator(action.NewRegistry())
	o := orchestrator.New(provider, nil, validator, nil, orchestrator.Options{})

	_, _, err := o.RunCommand(context.Background(), "anything")
	require.Error(t, err)
}
