// SPDX-License-Identifier: Apache-2.0

// Package planner defines the plan generation boundary: turning a natural
// language command into an untyped candidate plan for the validator.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/deskpilot/deskpilot/internal/core/action"
	"github.com/deskpilot/deskpilot/internal/core/config"
)

// Generator produces an untyped candidate plan from a natural language
// command. Any failure means "no plan produced"; the result is never
// partially usable.
type Generator interface {
	Generate(ctx context.Context, command string) ([]interface{}, error)
}

// OpenAIGenerator implements Generator against an OpenAI-compatible chat
// endpoint. The system prompt is rendered once from the action registry so
// the model and the validator agree on the catalog.
type OpenAIGenerator struct {
	model        llms.Model
	systemPrompt string
}

// NewChatModel builds an OpenAI-compatible chat model from provider
// settings. Shared by the generator and the visual analyzer wiring.
func NewChatModel(cfg config.Provider) (llms.Model, error) {
	key := cfg.ResolveAPIKey()
	if key == "" {
		return nil, fmt.Errorf("model API key is not configured")
	}

	opts := []openai.Option{
		openai.WithToken(key),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	return openai.New(opts...)
}

// NewOpenAIGenerator builds a generator from provider settings and the
// action registry.
func NewOpenAIGenerator(cfg config.Provider, registry *action.Registry) (*OpenAIGenerator, error) {
	model, err := NewChatModel(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating planner model: %w", err)
	}

	prompt, err := RenderSystemPrompt(registry)
	if err != nil {
		return nil, fmt.Errorf("error rendering planner prompt: %w", err)
	}

	return &OpenAIGenerator{model: model, systemPrompt: prompt}, nil
}

// NewOpenAIGeneratorWithModel wires an existing model, mainly for tests.
func NewOpenAIGeneratorWithModel(model llms.Model, registry *action.Registry) (*OpenAIGenerator, error) {
	prompt, err := RenderSystemPrompt(registry)
	if err != nil {
		return nil, err
	}
	return &OpenAIGenerator{model: model, systemPrompt: prompt}, nil
}

// Generate asks the model for a plan and decodes the JSON candidate.
func (g *OpenAIGenerator) Generate(ctx context.Context, command string) ([]interface{}, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(g.systemPrompt)},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(fmt.Sprintf("User command: %q\n\nRespond with the JSON plan.", command)),
			},
		},
	}

	resp, err := g.model.GenerateContent(ctx, messages, llms.WithJSONMode())
	if err != nil {
		return nil, fmt.Errorf("error generating plan: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("planner returned no choices")
	}

	return ParseCandidate(resp.Choices[0].Content)
}

// ParseCandidate decodes a model response into an untyped candidate plan. It
// accepts either a bare JSON array or an object wrapping the array under a
// "plan" or "steps" key, and tolerates a surrounding markdown code fence.
func ParseCandidate(raw string) ([]interface{}, error) {
	trimmed := stripCodeFence(raw)

	var decoded interface{}
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil, fmt.Errorf("error parsing plan response: %w", err)
	}

	switch v := decoded.(type) {
	case []interface{}:
		return v, nil
	case map[string]interface{}:
		for _, key := range []string{"plan", "steps"} {
			if steps, ok := v[key].([]interface{}); ok {
				return steps, nil
			}
		}
		return nil, fmt.Errorf("plan response object has no plan array")
	default:
		return nil, fmt.Errorf("unexpected plan response shape %T", decoded)
	}
}

// stripCodeFence removes a surrounding markdown code fence, which some models
// emit even when asked for raw JSON.
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
