// SPDX-License-Identifier: Apache-2.0

// Package orchestrator drives one validated plan to completion, producing an
// execution history and a terminal outcome.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/deskpilot/deskpilot/internal/core/action"
	"github.com/deskpilot/deskpilot/internal/core/plan"
	"github.com/deskpilot/deskpilot/internal/desktop"
	"github.com/deskpilot/deskpilot/internal/executor"
	"github.com/deskpilot/deskpilot/internal/planner"
	"github.com/deskpilot/deskpilot/internal/policy"
)

// Status is the terminal state of one plan execution.
type Status string

const (
	// StatusCompleted means the plan reached TASK_COMPLETE.
	StatusCompleted Status = "completed"
	// StatusFailed means the plan reached TASK_FAILED: the generator itself
	// concluded the task cannot be done.
	StatusFailed Status = "failed"
	// StatusAborted means a step failed during execution and the remainder
	// of the plan was never attempted.
	StatusAborted Status = "aborted"
)

// Outcome is the terminal result of running one plan. One plan maps to
// exactly one Outcome and one History.
type Outcome struct {
	Status Status `json:"status" yaml:"status"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// HistoryEntry records one attempted step.
type HistoryEntry struct {
	Index  int                    `json:"index" yaml:"index"`
	Kind   action.Kind            `json:"kind" yaml:"kind"`
	Reason string                 `json:"reason,omitempty" yaml:"reason,omitempty"`
	Output map[string]interface{} `json:"output,omitempty" yaml:"output,omitempty"`
	Failed bool                   `json:"failed,omitempty" yaml:"failed,omitempty"`
	Error  string                 `json:"error,omitempty" yaml:"error,omitempty"`
}

// History is the append-only record of attempted steps for one execution.
type History []HistoryEntry

// StepObserver is notified before each step is attempted. Used by the CLI
// for progress output.
type StepObserver func(index, total int, act action.Action)

// Options tune one orchestrator instance.
type Options struct {
	// SettleDelay is the pause after each successful non-terminal step so
	// the GUI can settle before the next action observes it.
	SettleDelay time.Duration
	Logger      *slog.Logger
	Observer    StepObserver
}

// Orchestrator executes validated plans against a desktop provider. It holds
// at most one plan in flight; concurrent commands need separate orchestrator
// and provider instances.
type Orchestrator struct {
	provider  desktop.Provider
	generator planner.Generator
	validator *plan.Validator
	guard     *policy.Guard
	opts      Options
}

// New creates an orchestrator. All collaborators are injected; there is no
// ambient instance. The generator and guard may be nil when only Run (not
// RunCommand) is used.
func New(provider desktop.Provider, generator planner.Generator, validator *plan.Validator, guard *policy.Guard, opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Orchestrator{
		provider:  provider,
		generator: generator,
		validator: validator,
		guard:     guard,
		opts:      opts,
	}
}

// RunCommand is the full pipeline for one user command: generate a candidate
// plan, validate it, check policy, then execute. Generation and validation
// failures surface as errors before any side effect; execution failures are
// reported through the Outcome.
func (o *Orchestrator) RunCommand(ctx context.Context, command string) (Outcome, History, error) {
	if o.generator == nil {
		return Outcome{}, nil, fmt.Errorf("no plan generator configured")
	}

	o.opts.Logger.Info("generating plan", "command", command)
	candidate, err := o.generator.Generate(ctx, command)
	if err != nil {
		return Outcome{}, nil, fmt.Errorf("no plan produced: %w", err)
	}

	validated, err := o.validator.Validate(candidate)
	if err != nil {
		return Outcome{}, nil, err
	}
	o.opts.Logger.Info("plan validated", "steps", validated.Len())

	if o.guard != nil {
		if err := o.guard.Check(validated); err != nil {
			return Outcome{}, nil, err
		}
	}

	outcome, history := o.Run(ctx, validated)
	return outcome, history, nil
}

// Run executes a validated plan strictly in order, appending one history
// entry per attempted step, and stops at the first terminal transition. The
// remaining steps, if any, are never executed. Cancellation is honored only
// at step boundaries; a provider call in flight is never interrupted.
func (o *Orchestrator) Run(ctx context.Context, p plan.Plan) (Outcome, History) {
	history := make(History, 0, p.Len())
	state := &executor.State{}

	for i, act := range p.Actions {
		if err := ctx.Err(); err != nil {
			return Outcome{Status: StatusAborted, Reason: fmt.Sprintf("execution canceled: %v", err)}, history
		}

		if o.opts.Observer != nil {
			o.opts.Observer(i, p.Len(), act)
		}
		o.opts.Logger.Debug("executing step", "index", i, "kind", act.Kind())

		result, err := executor.Execute(ctx, act, o.provider, state)
		if err != nil {
			history = append(history, HistoryEntry{
				Index:  i,
				Kind:   act.Kind(),
				Reason: act.Purpose(),
				Failed: true,
				Error:  err.Error(),
			})
			o.opts.Logger.Error("step failed", "index", i, "kind", act.Kind(), "error", err)
			return Outcome{Status: StatusAborted, Reason: err.Error()}, history
		}

		history = append(history, HistoryEntry{
			Index:  i,
			Kind:   act.Kind(),
			Reason: act.Purpose(),
			Output: result.Output,
		})

		if result.Terminal {
			if result.Success {
				return Outcome{Status: StatusCompleted, Reason: result.Message}, history
			}
			return Outcome{Status: StatusFailed, Reason: result.Message}, history
		}

		if o.opts.SettleDelay > 0 {
			select {
			case <-ctx.Done():
				return Outcome{Status: StatusAborted, Reason: fmt.Sprintf("execution canceled: %v", ctx.Err())}, history
			case <-time.After(o.opts.SettleDelay):
			}
		}
	}

	// Unreachable for validated plans: the validator guarantees a terminal
	// final action. Treated as abortion rather than trusted.
	return Outcome{Status: StatusAborted, Reason: "plan ended without a terminal action"}, history
}
