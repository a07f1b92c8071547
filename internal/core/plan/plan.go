// SPDX-License-Identifier: Apache-2.0

// Package plan turns untyped candidate plans produced by the generator into
// validated, ordered sequences of typed actions.
package plan

import (
	"fmt"

	"github.com/deskpilot/deskpilot/internal/core/action"
	"github.com/deskpilot/deskpilot/internal/core/schema"
)

// Plan is an ordered, validated sequence of actions ending in a terminal
// action. Plans are immutable once validated.
type Plan struct {
	Actions []action.Action
}

// Len returns the number of steps in the plan.
func (p Plan) Len() int { return len(p.Actions) }

// Validator converts untyped candidate plans into Plans by checking every
// record against the action registry.
type Validator struct {
	registry *action.Registry
}

// NewValidator creates a validator backed by the given registry.
func NewValidator(registry *action.Registry) *Validator {
	return &Validator{registry: registry}
}

// Validate checks a candidate plan and returns the typed Plan. It is a pure
// function: no side effects, deterministic for a given candidate, and the
// returned sequence preserves candidate order exactly.
//
// The candidate is expected to be the decoded JSON array produced by the
// generator: a non-empty sequence of records, each carrying a "kind"
// discriminator. Unknown extra fields in a record are ignored.
func (v *Validator) Validate(candidate interface{}) (Plan, error) {
	elements, err := asSequence(candidate)
	if err != nil {
		return Plan{}, err
	}
	if len(elements) == 0 {
		return Plan{}, &StructureError{Problem: "plan is empty"}
	}

	actions := make([]action.Action, 0, len(elements))
	for i, element := range elements {
		record, ok := element.(map[string]interface{})
		if !ok {
			return Plan{}, &StructureError{Problem: fmt.Sprintf("step %d is not a record", i)}
		}

		kindValue, ok := record["kind"].(string)
		if !ok || kindValue == "" {
			return Plan{}, &StructureError{Problem: fmt.Sprintf("step %d has no kind discriminator", i)}
		}

		act, err := v.validateRecord(action.Kind(kindValue), i, record)
		if err != nil {
			return Plan{}, err
		}
		actions = append(actions, act)
	}

	if err := checkTermination(actions); err != nil {
		return Plan{}, err
	}

	return Plan{Actions: actions}, nil
}

// validateRecord checks one record against its kind's schema and decodes it.
func (v *Validator) validateRecord(kind action.Kind, position int, record map[string]interface{}) (action.Action, error) {
	sch, err := v.registry.SchemaFor(kind)
	if err != nil {
		return nil, &UnknownKindError{Kind: string(kind), Position: position}
	}

	merged := schema.MergeWithDefaults(record, sch.Defaults())

	violations, err := schema.ValidateRecord(sch.JSONSchema(), merged)
	if err != nil {
		return nil, fmt.Errorf("error validating step %d: %w", position, err)
	}
	if len(violations) > 0 {
		first := violations[0]
		return nil, &FieldError{
			Kind:     kind,
			Position: position,
			Field:    first.Field,
			Problem:  first.Problem,
		}
	}

	act, err := sch.Decode(merged)
	if err != nil {
		return nil, &FieldError{
			Kind:     kind,
			Position: position,
			Field:    "kind",
			Problem:  err.Error(),
		}
	}
	return act, nil
}

// checkTermination enforces that the last action is terminal and no earlier
// action is.
func checkTermination(actions []action.Action) error {
	last := len(actions) - 1
	for i, act := range actions {
		terminal := action.IsTerminal(act.Kind())
		if i == last && !terminal {
			return &TerminationError{
				Problem:  fmt.Sprintf("plan must end with %s or %s", action.KindTaskComplete, action.KindTaskFailed),
				Position: i,
			}
		}
		if i != last && terminal {
			return &TerminationError{
				Problem:  fmt.Sprintf("terminal action %s before the end of the plan", act.Kind()),
				Position: i,
			}
		}
	}
	return nil
}

// asSequence normalizes the supported candidate shapes to a []interface{}.
func asSequence(candidate interface{}) ([]interface{}, error) {
	switch seq := candidate.(type) {
	case []interface{}:
		return seq, nil
	case []map[string]interface{}:
		out := make([]interface{}, len(seq))
		for i, rec := range seq {
			out[i] = rec
		}
		return out, nil
	case nil:
		return nil, &StructureError{Problem: "plan is missing"}
	default:
		return nil, &StructureError{Problem: fmt.Sprintf("plan is not a sequence (got %T)", candidate)}
	}
}
