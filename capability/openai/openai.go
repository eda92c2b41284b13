// Package openai implements the capability.LLM contract over the OpenAI
// Chat Completions API.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/agentpilot/agentpilot/capability"
)

// Options configure the OpenAI LLM capability. Fields mirror a minimal
// subset of Chat Completion parameters.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	System              string
}

// LLM wraps the OpenAI Chat Completions API behind the capability.LLM
// contract.
type LLM struct {
	client *openai.Client
	opts   Options
}

// New creates an OpenAI LLM capability using the official client.
func New(optFns ...func(o *Options)) *LLM {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates an OpenAI LLM capability from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *LLM {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &LLM{client: client, opts: opts}
}

// Complete sends the prompt as a single user message and returns the
// first choice's text. Recognized per-call opts: "model" (string),
// "max_tokens" (number), "temperature" (number), "system" (string).
func (l *LLM) Complete(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	model := l.opts.Model
	temperature := l.opts.Temperature
	maxTokens := l.opts.MaxCompletionTokens
	system := l.opts.System

	if m, ok := opts["model"].(string); ok && m != "" {
		model = m
	}
	if t, ok := numberOpt(opts, "temperature"); ok {
		temperature = t
	}
	if t, ok := numberOpt(opts, "max_tokens"); ok {
		maxTokens = int64(t)
	}
	if s, ok := opts["system"].(string); ok && s != "" {
		system = s
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := l.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               model,
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Info returns metadata describing this provider.
func (l *LLM) Info() capability.Info {
	return capability.Info{Name: l.opts.Model, Provider: "openai"}
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
