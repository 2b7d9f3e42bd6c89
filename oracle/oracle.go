// Package oracle provides oracle implementations for agent-automata: a
// deterministic scripted oracle for tests and demos, with provider-backed
// adapters in the openai and anthropic subpackages.
package oracle

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/solarapparition/agent-automata/core"
)

// ScriptedOracle is a lightweight in-memory core.Oracle useful for tests
// and examples. Responses are matched on substrings of the prompt; the
// first registered match wins, in registration order.
type ScriptedOracle struct {
	mu        sync.Mutex
	patterns  []string
	responses map[string]string
	calls     []string
}

// NewScriptedOracle constructs an empty ScriptedOracle.
func NewScriptedOracle() *ScriptedOracle {
	return &ScriptedOracle{responses: make(map[string]string)}
}

// AddResponse registers a canned completion returned whenever the prompt
// contains pattern.
func (o *ScriptedOracle) AddResponse(pattern, response string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.responses[pattern]; !exists {
		o.patterns = append(o.patterns, pattern)
	}
	o.responses[pattern] = response
}

// Calls returns the prompts received so far, in call order.
func (o *ScriptedOracle) Calls() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	calls := make([]string, len(o.calls))
	copy(calls, o.calls)
	return calls
}

// Complete implements core.Oracle.
func (o *ScriptedOracle) Complete(ctx context.Context, prompt string, stop []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, prompt)
	for _, pattern := range o.patterns {
		if pattern != "" && strings.Contains(prompt, pattern) {
			return o.responses[pattern], nil
		}
	}
	return fmt.Sprintf("Scripted response to: %s", prompt), nil
}

// CompleteMessages implements core.Oracle by concatenating message
// contents into one prompt.
func (o *ScriptedOracle) CompleteMessages(ctx context.Context, messages []core.Message, stop []string) (string, error) {
	var prompt string
	for _, m := range messages {
		if prompt != "" {
			prompt += "\n"
		}
		prompt += m.Content
	}
	return o.Complete(ctx, prompt, stop)
}
