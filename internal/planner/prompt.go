// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/deskpilot/deskpilot/internal/core/action"
)

// systemPromptTemplate renders the planning instructions plus the action
// catalog derived from the registry.
const systemPromptTemplate = `You are an AI assistant that controls a computer desktop. Translate the user's natural language command into an ordered sequence of GUI actions.

AVAILABLE ACTIONS:
{{range .Kinds}}
{{.Name}} - {{.Description}}{{range .Fields}}
  {{.Name}} ({{.Type}}, {{if .Required}}required{{else}}optional{{end}}){{if .Enum}} one of: {{.Enum}}{{end}}{{if .Default}} default: {{.Default}}{{end}} - {{.Description}}{{end}}
{{end}}
RULES:
- Every action may carry an optional "reason" string explaining its purpose.
- The plan must be a JSON object: {"plan": [{"kind": "...", ...}, ...]}.
- Actions execute strictly in order; later actions see the screen state the earlier ones produced.
- The last action of the plan must be TASK_COMPLETE, or TASK_FAILED if the command cannot be carried out. No other action may use these kinds.
- Prefer literal coordinates only when certain; otherwise use TAKE_SCREENSHOT, ANALYZE_SCREENSHOT and a CLICK with a "description" of the target element.
- Insert a WAIT after opening an application or navigating, so the screen can settle.

The output must be valid JSON.`

type promptField struct {
	Name        string
	Type        string
	Required    bool
	Enum        string
	Default     interface{}
	Description string
}

type promptKind struct {
	Name        string
	Description string
	Fields      []promptField
}

// RenderSystemPrompt builds the planner system prompt from the registry so
// the catalog shown to the model never drifts from what the validator
// accepts.
func RenderSystemPrompt(registry *action.Registry) (string, error) {
	var kinds []promptKind
	for _, k := range registry.Kinds() {
		sch, err := registry.SchemaFor(k)
		if err != nil {
			return "", err
		}

		pk := promptKind{Name: string(sch.Kind), Description: sch.Description}
		for _, f := range sch.Fields {
			pk.Fields = append(pk.Fields, promptField{
				Name:        f.Name,
				Type:        string(f.Type),
				Required:    f.Required,
				Enum:        strings.Join(f.Enum, ", "),
				Default:     f.Default,
				Description: f.Description,
			})
		}
		kinds = append(kinds, pk)
	}

	tmpl, err := template.New("system_prompt").Option("missingkey=error").Parse(systemPromptTemplate)
	if err != nil {
		return "", fmt.Errorf("error parsing prompt template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]interface{}{"Kinds": kinds}); err != nil {
		return "", fmt.Errorf("error executing prompt template: %w", err)
	}
	return buf.String(), nil
}
