// Package anthropic implements the capability.LLM contract over the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/agentpilot/agentpilot/capability"
)

// Options configures the Anthropic LLM capability (model id, temperature,
// max tokens, API key, default system prompt).
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
	System      string
}

// LLM wraps the Anthropic Messages API behind the capability.LLM contract.
type LLM struct {
	client *anthropic.Client
	opts   Options
}

// New creates an Anthropic LLM capability using the official client.
func New(optFns ...func(o *Options)) *LLM {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &LLM{client: &client, opts: opts}
}

// NewFromClient creates an Anthropic LLM capability from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *LLM {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &LLM{client: client, opts: opts}
}

// Complete sends the prompt as a single user message and returns the
// concatenated text blocks of the response. Recognized per-call opts:
// "model" (string), "max_tokens" (number), "temperature" (number),
// "system" (string).
func (l *LLM) Complete(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       l.opts.Model,
		MaxTokens:   l.opts.MaxTokens,
		Temperature: anthropic.Float(l.opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	system := l.opts.System
	if m, ok := opts["model"].(string); ok && m != "" {
		params.Model = anthropic.Model(m)
	}
	if t, ok := numberOpt(opts, "max_tokens"); ok {
		params.MaxTokens = int64(t)
	}
	if t, ok := numberOpt(opts, "temperature"); ok {
		params.Temperature = anthropic.Float(t)
	}
	if s, ok := opts["system"].(string); ok && s != "" {
		system = s
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := l.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}
	return text, nil
}

// Info returns metadata describing this provider.
func (l *LLM) Info() capability.Info {
	return capability.Info{Name: string(l.opts.Model), Provider: "anthropic"}
}

func numberOpt(opts map[string]any, key string) (float64, bool) {
	switch v := opts[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
