// SPDX-License-Identifier: Apache-2.0

package action

import (
	"encoding/json"
	"fmt"
)

// FieldType is the semantic type of an action field.
type FieldType string

const (
	FieldString     FieldType = "string"
	FieldInteger    FieldType = "integer"
	FieldStringList FieldType = "string_list"
)

// ScrollDirections enumerates the accepted values of the SCROLL direction field.
var ScrollDirections = []string{"up", "down", "left", "right"}

// FieldSpec describes one field of an action kind: its name, semantic type,
// whether the generator must supply it, and enough metadata for both
// validation and prompt construction.
type FieldSpec struct {
	Name        string
	Type        FieldType
	Required    bool
	Description string
	Enum        []string
	Default     interface{}
	Minimum     *int
}

// Schema is the field specification of a single action kind.
type Schema struct {
	Kind        Kind
	Description string
	Terminal    bool
	Fields      []FieldSpec
	decode      func(record map[string]interface{}) (Action, error)
}

// JSONSchema renders the spec as a JSON schema document suitable for
// validating an untyped candidate record. Unknown extra fields are allowed
// for forward compatibility.
func (s *Schema) JSONSchema() map[string]interface{} {
	properties := make(map[string]interface{}, len(s.Fields)+2)
	properties["kind"] = map[string]interface{}{"type": "string"}
	properties["reason"] = map[string]interface{}{"type": "string"}

	required := []interface{}{}
	for _, f := range s.Fields {
		prop := map[string]interface{}{}
		switch f.Type {
		case FieldString:
			prop["type"] = "string"
		case FieldInteger:
			prop["type"] = "integer"
		case FieldStringList:
			prop["type"] = "array"
			prop["items"] = map[string]interface{}{"type": "string"}
		}
		if len(f.Enum) > 0 {
			enum := make([]interface{}, len(f.Enum))
			for i, e := range f.Enum {
				enum[i] = e
			}
			prop["enum"] = enum
		}
		if f.Minimum != nil {
			prop["minimum"] = *f.Minimum
		}
		properties[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Defaults returns the default values declared for the kind's fields.
func (s *Schema) Defaults() map[string]interface{} {
	defaults := make(map[string]interface{})
	for _, f := range s.Fields {
		if f.Default != nil {
			defaults[f.Name] = f.Default
		}
	}
	return defaults
}

// Decode converts a schema-conformant record into the kind's typed action.
func (s *Schema) Decode(record map[string]interface{}) (Action, error) {
	return s.decode(record)
}

// UnknownKindError indicates a kind with no registered schema. For kinds
// produced by the validator this is a programming defect, since validator and
// executor consult the same registry.
type UnknownKindError struct {
	Kind Kind
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown action kind: %s", e.Kind)
}

// Registry is the closed catalog of action kinds. It is immutable after
// construction and safe for concurrent readers.
type Registry struct {
	order   []Kind
	schemas map[Kind]*Schema
}

// Kinds returns the registered kind identifiers in catalog order.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, len(r.order))
	copy(out, r.order)
	return out
}

// SchemaFor returns the field specification for a kind.
func (r *Registry) SchemaFor(k Kind) (*Schema, error) {
	s, ok := r.schemas[k]
	if !ok {
		return nil, &UnknownKindError{Kind: k}
	}
	return s, nil
}

func (r *Registry) register(s *Schema) {
	r.order = append(r.order, s.Kind)
	r.schemas[s.Kind] = s
}

// decodeAs round-trips a record through JSON into the concrete action type.
// Field-level type checking has already happened against the JSON schema, so
// a failure here means the record and schema disagree.
func decodeAs[T Action](record map[string]interface{}) (Action, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("error serializing record: %w", err)
	}
	var a T
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("error decoding record: %w", err)
	}
	return a, nil
}

func intPtr(v int) *int { return &v }

// NewRegistry builds the default closed catalog. The set of kinds is fixed at
// build time; adding a kind means adding a schema here, a variant in
// action.go, and a dispatch arm in the executor.
func NewRegistry() *Registry {
	r := &Registry{schemas: make(map[Kind]*Schema)}

	r.register(&Schema{
		Kind:        KindClick,
		Description: "Single left click at literal coordinates, or at an element described in a prior screenshot analysis.",
		Fields: []FieldSpec{
			{Name: "x", Type: FieldInteger, Description: "X coordinate in pixels"},
			{Name: "y", Type: FieldInteger, Description: "Y coordinate in pixels"},
			{Name: "description", Type: FieldString, Description: "Description of the on-screen element to click when coordinates are unknown"},
		},
		decode: decodeAs[Click],
	})

	r.register(&Schema{
		Kind:        KindDoubleClick,
		Description: "Double left click. Targeting works as for CLICK.",
		Fields: []FieldSpec{
			{Name: "x", Type: FieldInteger, Description: "X coordinate in pixels"},
			{Name: "y", Type: FieldInteger, Description: "Y coordinate in pixels"},
			{Name: "description", Type: FieldString, Description: "Description of the on-screen element to double-click"},
		},
		decode: decodeAs[DoubleClick],
	})

	r.register(&Schema{
		Kind:        KindMoveMouse,
		Description: "Move the mouse pointer to coordinates without clicking.",
		Fields: []FieldSpec{
			{Name: "x", Type: FieldInteger, Required: true, Description: "X coordinate in pixels"},
			{Name: "y", Type: FieldInteger, Required: true, Description: "Y coordinate in pixels"},
			{Name: "duration_ms", Type: FieldInteger, Minimum: intPtr(0), Default: 200, Description: "Duration of the pointer movement in milliseconds"},
		},
		decode: decodeAs[MoveMouse],
	})

	r.register(&Schema{
		Kind:        KindTypeText,
		Description: "Type text with the keyboard into the focused element.",
		Fields: []FieldSpec{
			{Name: "text", Type: FieldString, Required: true, Description: "Text to type"},
			{Name: "interval_ms", Type: FieldInteger, Minimum: intPtr(0), Default: 10, Description: "Delay between keystrokes in milliseconds"},
		},
		decode: decodeAs[TypeText],
	})

	r.register(&Schema{
		Kind:        KindPressKey,
		Description: "Press a named key, optionally with modifiers held (a key combination).",
		Fields: []FieldSpec{
			{Name: "key", Type: FieldString, Required: true, Description: "Key name, e.g. 'enter', 'tab', 'escape', 'f5', or a single character"},
			{Name: "modifiers", Type: FieldStringList, Description: "Modifier keys to hold: 'ctrl', 'alt', 'shift', 'meta'"},
		},
		decode: decodeAs[PressKey],
	})

	r.register(&Schema{
		Kind:        KindScroll,
		Description: "Scroll the view in a direction.",
		Fields: []FieldSpec{
			{Name: "direction", Type: FieldString, Required: true, Enum: ScrollDirections, Description: "Scroll direction"},
			{Name: "amount", Type: FieldInteger, Minimum: intPtr(0), Default: 10, Description: "Scroll magnitude in lines"},
		},
		decode: decodeAs[Scroll],
	})

	r.register(&Schema{
		Kind:        KindOpenApplication,
		Description: "Open an application by name and bring it to the foreground.",
		Fields: []FieldSpec{
			{Name: "application_name", Type: FieldString, Required: true, Description: "Name of the application to open"},
		},
		decode: decodeAs[OpenApplication],
	})

	r.register(&Schema{
		Kind:        KindNavigateToWebsite,
		Description: "Navigate to a URL.",
		Fields: []FieldSpec{
			{Name: "url", Type: FieldString, Required: true, Description: "Absolute URL to open"},
		},
		decode: decodeAs[NavigateToWebsite],
	})

	r.register(&Schema{
		Kind:        KindWait,
		Description: "Pause before the next action, e.g. while an application loads.",
		Fields: []FieldSpec{
			{Name: "duration_ms", Type: FieldInteger, Minimum: intPtr(0), Default: 1000, Description: "Duration to wait in milliseconds"},
		},
		decode: decodeAs[Wait],
	})

	r.register(&Schema{
		Kind:        KindReadClipboard,
		Description: "Read the current clipboard text.",
		decode:      decodeAs[ReadClipboard],
	})

	r.register(&Schema{
		Kind:        KindTakeScreenshot,
		Description: "Capture the screen so a later ANALYZE_SCREENSHOT can inspect it.",
		decode:      decodeAs[TakeScreenshot],
	})

	r.register(&Schema{
		Kind:        KindAnalyzeScreenshot,
		Description: "Analyze the most recent screenshot with a visual model. Must follow a TAKE_SCREENSHOT.",
		Fields: []FieldSpec{
			{Name: "prompt", Type: FieldString, Required: true, Description: "What to look for in the screenshot"},
		},
		decode: decodeAs[AnalyzeScreenshot],
	})

	r.register(&Schema{
		Kind:        KindTaskComplete,
		Description: "Terminal action: the task has been carried out successfully. Must be the last step of every successful plan.",
		Terminal:    true,
		Fields: []FieldSpec{
			{Name: "message", Type: FieldString, Description: "Completion message for the user"},
		},
		decode: decodeAs[TaskComplete],
	})

	r.register(&Schema{
		Kind:        KindTaskFailed,
		Description: "Terminal action: the task cannot be carried out. Must be the last step when no working plan exists.",
		Terminal:    true,
		Fields: []FieldSpec{
			{Name: "message", Type: FieldString, Description: "Explanation of why the task cannot be done"},
		},
		decode: decodeAs[TaskFailed],
	})

	return r
}
