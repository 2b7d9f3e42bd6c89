// Package reflector provides the built-in history_digest reflector: an
// oracle-backed pass over the request and the steps taken so far that
// produces short reflection lines for the next planning call.
package reflector

import (
	"context"
	"fmt"
	"strings"

	"github.com/solarapparition/agent-automata/core"
	"github.com/solarapparition/agent-automata/internal/prompt"
)

const digestTmpl = `You are the reflection faculty of an agent working on the following request:
` + "```\n{{.Request}}\n```" + `

Actions taken so far:
{{.History}}
{{if .Knowledge}}
Background knowledge relevant to the request:
{{.Knowledge}}
{{end}}
Produce up to five short reflection lines: observations about progress, mistakes to avoid repeating, and information worth recalling. Output one reflection per line, nothing else.`

// NewHistoryDigest constructs the built-in reflector backed by the given
// oracle. The oracle is required; the knowledge source passed at reflect
// time is optional.
func NewHistoryDigest(oracle core.Oracle) (core.Reflector, error) {
	if oracle == nil {
		return nil, core.NewConfigurationError("reflector `history_digest` requires an oracle")
	}

	return func(ctx context.Context, request string, steps []core.Step, knowledge core.Knowledge) ([]string, error) {
		var background string
		if knowledge != nil {
			recalled, err := knowledge(ctx, request)
			if err != nil {
				return nil, fmt.Errorf("history_digest knowledge lookup: %w", err)
			}
			background = recalled
		}

		p, err := prompt.Render("history_digest", digestTmpl, map[string]any{
			"Request":   request,
			"History":   historyText(steps),
			"Knowledge": background,
		})
		if err != nil {
			return nil, err
		}

		out, err := oracle.Complete(ctx, p, nil)
		if err != nil {
			return nil, fmt.Errorf("history_digest oracle call: %w", err)
		}
		return splitLines(out), nil
	}, nil
}

func historyText(steps []core.Step) string {
	if len(steps) == 0 {
		return "None yet."
	}
	lines := make([]string, len(steps))
	for i, step := range steps {
		lines[i] = fmt.Sprintf("%d. delegated `%s` with `%s`; result: %s",
			i+1, step.Action.AutomatonID, step.Action.Request, step.Result)
	}
	return strings.Join(lines, "\n")
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*• "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
