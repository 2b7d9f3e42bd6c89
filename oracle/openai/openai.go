// Package openai provides a core.Oracle backed by the OpenAI Chat
// Completions API. It adapts the completion-style oracle boundary (prompt
// or role-tagged messages plus stop sequences) onto the official SDK.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/solarapparition/agent-automata/core"
)

// Options configure the OpenAI oracle adapter. Fields mirror a minimal
// subset of Chat Completion parameters; extend via functional options
// without breaking callers.
type Options struct {
	Model               openai.ChatModel
	Temperature         float64
	MaxCompletionTokens int64
}

// Oracle wraps the OpenAI Chat Completions API behind core.Oracle.
type Oracle struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI oracle using the official client, configured
// from the environment.
func New(optFns ...func(o *Options)) *Oracle {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new OpenAI oracle from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Oracle {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Oracle{client: client, opts: opts}
}

// Complete implements core.Oracle for a plain text prompt.
func (o *Oracle) Complete(ctx context.Context, prompt string, stop []string) (string, error) {
	return o.CompleteMessages(ctx, []core.Message{{Role: "user", Content: prompt}}, stop)
}

// CompleteMessages implements core.Oracle for role-tagged message input.
func (o *Oracle) CompleteMessages(ctx context.Context, messages []core.Message, stop []string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:               o.opts.Model,
		Messages:            buildMessages(messages),
		Temperature:         openai.Float(o.opts.Temperature),
		MaxCompletionTokens: openai.Int(o.opts.MaxCompletionTokens),
	}
	if len(stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: stop}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func buildMessages(messages []core.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
