// SPDX-License-Identifier: Apache-2.0

package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

const analyzerInstructions = `You are a GUI screenshot analyzer. Inspect the attached screenshot and answer the query.

Respond with a JSON object of this exact shape:
{
  "summary": "<one-sentence answer to the query>",
  "elements": [
    {"label": "<short element name>", "text": "<visible text, if any>", "box": {"x_min": 0, "y_min": 0, "x_max": 0, "y_max": 0}}
  ]
}

Report pixel coordinates relative to the top-left corner of the screenshot. Only include elements relevant to the query. The output must be valid JSON.`

// ModelAnalyzer implements Analyzer on top of a multimodal chat model.
type ModelAnalyzer struct {
	model llms.Model
}

// NewModelAnalyzer wraps a vision-capable model as an Analyzer.
func NewModelAnalyzer(model llms.Model) *ModelAnalyzer {
	return &ModelAnalyzer{model: model}
}

// Analyze sends the screenshot and query to the model and parses the
// structured response.
func (a *ModelAnalyzer) Analyze(ctx context.Context, image []byte, query string) (*Analysis, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(analyzerInstructions)},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.BinaryPart("image/png", image),
				llms.TextPart(fmt.Sprintf("Query: %s", query)),
			},
		},
	}

	resp, err := a.model.GenerateContent(ctx, messages, llms.WithJSONMode())
	if err != nil {
		return nil, fmt.Errorf("error analyzing screenshot: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("analyzer returned no choices")
	}

	return ParseAnalysis(resp.Choices[0].Content)
}

// ParseAnalysis decodes a model response into an Analysis, dropping elements
// with malformed bounding boxes rather than failing the whole analysis.
func ParseAnalysis(raw string) (*Analysis, error) {
	trimmed := stripCodeFence(raw)

	var decoded struct {
		Summary  string `json:"summary"`
		Elements []struct {
			Label string       `json:"label"`
			Text  string       `json:"text"`
			Box   *BoundingBox `json:"box"`
		} `json:"elements"`
	}
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil, fmt.Errorf("error parsing analysis response: %w", err)
	}

	var rawMap map[string]interface{}
	_ = json.Unmarshal([]byte(trimmed), &rawMap)

	analysis := &Analysis{Summary: decoded.Summary, Raw: rawMap}
	for _, el := range decoded.Elements {
		box := el.Box
		if box != nil && box.Validate() != nil {
			box = nil
		}
		analysis.Elements = append(analysis.Elements, Element{
			Label: el.Label,
			Text:  el.Text,
			Box:   box,
		})
	}
	return analysis, nil
}

// stripCodeFence removes a surrounding markdown code fence, which some models
// emit even in JSON mode.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
