// Package knowledge provides the built-in knowledge sources: a
// workspace_notes source reading a notes file from the automaton's own
// directory, and an oracle_digest source that asks the oracle directly.
package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/solarapparition/agent-automata/core"
)

// NotesFileName is the notes document workspace_notes reads from the
// automaton's directory.
const NotesFileName = "knowledge.md"

// NewWorkspaceNotes constructs a knowledge source over the notes file in
// the automaton's directory. The file must exist when the source is
// resolved; contents are re-read per lookup so notes can grow between
// runs. Lookups return the paragraphs mentioning the topic, or the whole
// document when nothing matches.
func NewWorkspaceNotes(path string) (core.Knowledge, error) {
	notesPath := filepath.Join(path, NotesFileName)
	if _, err := os.Stat(notesPath); err != nil {
		return nil, core.NewConfigurationError("knowledge `workspace_notes` requires %s: %v", notesPath, err)
	}

	return func(ctx context.Context, topic string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		raw, err := os.ReadFile(notesPath)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", notesPath, err)
		}
		content := string(raw)

		var matches []string
		lowered := strings.ToLower(topic)
		for _, para := range strings.Split(content, "\n\n") {
			if strings.Contains(strings.ToLower(para), lowered) {
				matches = append(matches, strings.TrimSpace(para))
			}
		}
		if len(matches) == 0 {
			return strings.TrimSpace(content), nil
		}
		return strings.Join(matches, "\n\n"), nil
	}, nil
}

// NewOracleDigest constructs a knowledge source that asks the oracle what
// it knows about a topic. The oracle is required.
func NewOracleDigest(oracle core.Oracle) (core.Knowledge, error) {
	if oracle == nil {
		return nil, core.NewConfigurationError("knowledge `oracle_digest` requires an oracle")
	}

	return func(ctx context.Context, topic string) (string, error) {
		out, err := oracle.Complete(ctx,
			fmt.Sprintf("Briefly summarize the most relevant facts you know about the following topic. Output only the summary.\n\nTopic: %s", topic),
			nil)
		if err != nil {
			return "", fmt.Errorf("oracle_digest lookup: %w", err)
		}
		return strings.TrimSpace(out), nil
	}, nil
}
