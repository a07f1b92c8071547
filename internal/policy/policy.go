// SPDX-License-Identifier: Apache-2.0

// Package policy gates validated plans on CEL deny-rules before any side
// effect occurs.
package policy

import (
	"encoding/json"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/deskpilot/deskpilot/internal/core/action"
	"github.com/deskpilot/deskpilot/internal/core/config"
	"github.com/deskpilot/deskpilot/internal/core/plan"
)

// ViolationError reports a plan rejected by a policy rule. The whole plan is
// rejected; partial execution never begins.
type ViolationError struct {
	Rule     string
	Kind     action.Kind
	Position int
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("policy rule %q denies %s at step %d", e.Rule, e.Kind, e.Position)
}

type compiledRule struct {
	name    string
	program cel.Program
}

// Guard evaluates deny-rules over every action of a plan. Each rule is a CEL
// expression over the variables kind (string), reason (string) and fields
// (map of the action's payload); a rule evaluating to true denies the plan.
type Guard struct {
	rules []compiledRule
}

// NewGuard compiles the configured rules. An empty rule set yields a guard
// that allows everything.
func NewGuard(rules []config.PolicyRule) (*Guard, error) {
	env, err := cel.NewEnv(
		cel.Variable("kind", cel.StringType),
		cel.Variable("reason", cel.StringType),
		cel.Variable("fields", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating CEL environment: %w", err)
	}

	guard := &Guard{}
	for _, rule := range rules {
		ast, issues := env.Parse(rule.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("error parsing policy rule %q: %w", rule.Name, issues.Err())
		}
		checked, issues := env.Check(ast)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("error type-checking policy rule %q: %w", rule.Name, issues.Err())
		}
		program, err := env.Program(checked)
		if err != nil {
			return nil, fmt.Errorf("error compiling policy rule %q: %w", rule.Name, err)
		}
		guard.rules = append(guard.rules, compiledRule{name: rule.Name, program: program})
	}
	return guard, nil
}

// Check evaluates every rule against every action of the plan, returning a
// ViolationError for the first denial.
func (g *Guard) Check(p plan.Plan) error {
	if len(g.rules) == 0 {
		return nil
	}

	for i, act := range p.Actions {
		fields, err := actionFields(act)
		if err != nil {
			return fmt.Errorf("error preparing policy input for step %d: %w", i, err)
		}
		vars := map[string]interface{}{
			"kind":   string(act.Kind()),
			"reason": act.Purpose(),
			"fields": fields,
		}

		for _, rule := range g.rules {
			result, _, err := rule.program.Eval(vars)
			if err != nil {
				return fmt.Errorf("error evaluating policy rule %q: %w", rule.name, err)
			}
			if result.Type() != types.BoolType {
				return fmt.Errorf("policy rule %q did not evaluate to a boolean", rule.name)
			}
			if result.Value().(bool) {
				return &ViolationError{Rule: rule.name, Kind: act.Kind(), Position: i}
			}
		}
	}
	return nil
}

// actionFields flattens a typed action into a map for CEL evaluation.
func actionFields(act action.Action) (map[string]interface{}, error) {
	data, err := json.Marshal(act)
	if err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
