// SPDX-License-Identifier: Apache-2.0

package plan

import (
	"fmt"

	"github.com/deskpilot/deskpilot/internal/core/action"
)

// StructureError indicates the candidate plan is structurally malformed: not
// a sequence, empty, or containing elements that are not records.
type StructureError struct {
	Problem string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("invalid plan structure: %s", e.Problem)
}

// UnknownKindError indicates a candidate step whose discriminator matches no
// registered action kind.
type UnknownKindError struct {
	Kind     string
	Position int
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown action kind %q at step %d", e.Kind, e.Position)
}

// FieldError indicates a candidate step with a missing required field or a
// field of the wrong semantic type.
type FieldError struct {
	Kind     action.Kind
	Position int
	Field    string
	Problem  string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid field %q for %s at step %d: %s", e.Field, e.Kind, e.Position, e.Problem)
}

// TerminationError indicates a plan that does not end with exactly one
// terminal action in final position.
type TerminationError struct {
	Problem  string
	Position int
}

func (e *TerminationError) Error() string {
	return fmt.Sprintf("invalid plan termination: %s (step %d)", e.Problem, e.Position)
}
