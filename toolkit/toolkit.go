// Package toolkit provides the built-in leaf automaton functions: concrete
// non-delegating behaviors exposed behind the same Runner contract as any
// other automaton. They are selected by automaton identifier when a
// definition uses the builtin_function_runner.
package toolkit

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/solarapparition/agent-automata/core"
	"github.com/solarapparition/agent-automata/logging"
	"github.com/solarapparition/agent-automata/registry"
	"github.com/solarapparition/agent-automata/workspace"
)

// Built-in function identifiers.
const (
	SaveTextID     = "save_text"
	LLMAssistantID = "llm_assistant"
)

// builtinIDs enumerated in not-found errors.
var builtinIDs = []string{core.TerminalID, LLMAssistantID, SaveTextID, core.SeedID}

const saveTextParseError = "Could not parse input. Please provide the input in the following format: " +
	"{file_name: <file_name>, description: <description>, content: <content>}"

// Deps carries the collaborators a built-in function may need: the
// registry for oracle wiring, the workspace for file persistence, and the
// requester identity naming the workspace directory.
type Deps struct {
	Registry    *registry.Registry
	Workspace   *workspace.Store
	RequesterID string
	Logger      logging.Logger
}

// Load resolves an automaton identifier to its built-in function runner.
// path is the automaton's own directory, used to resolve any oracle the
// function requires. Unknown identifiers fail with a capability-not-found
// error enumerating the built-in set.
func Load(id, path string, def *core.Definition, deps Deps) (core.Runner, error) {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	switch id {
	case core.SeedID, core.TerminalID:
		// Passthroughs: think seeds the next reflection with its own
		// request; finalize reports the result back to the requester.
		return func(ctx context.Context, request string) (string, error) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			return request, nil
		}, nil

	case SaveTextID:
		if deps.Workspace == nil {
			return nil, core.NewConfigurationError("built-in function `%s` requires a workspace store", SaveTextID)
		}
		return newSaveText(def.Name, deps.RequesterID, deps.Workspace, logger), nil

	case LLMAssistantID:
		oracleName := def.ExtraArgs["oracle"]
		if oracleName == "" {
			return nil, core.NewConfigurationError(
				"built-in function `%s` requires the \"oracle\" value in the `extra_args` field of the spec", LLMAssistantID)
		}
		oracle, err := deps.Registry.Oracle(path, oracleName)
		if err != nil {
			return nil, err
		}
		return newAssistant(oracle, logger), nil

	default:
		return nil, &core.CapabilityNotFoundError{Kind: "automaton function", Name: id, Builtins: builtinIDs}
	}
}

// newSaveText persists `{file_name, content}` requests into the
// requester's workspace directory.
func newSaveText(selfName, requesterID string, ws *workspace.Store, logger logging.Logger) core.Runner {
	return func(ctx context.Context, request string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		fileName := gjson.Get(request, "file_name")
		content := gjson.Get(request, "content")
		if !gjson.Valid(request) || !fileName.Exists() || !content.Exists() {
			return saveTextParseError, nil
		}

		rel, err := ws.Save(requesterID, fileName.String(), content.String())
		if err != nil {
			return fmt.Sprintf("%s: could not save file: %v", selfName, err), nil
		}
		logger.Info("saved workspace file", "requester", requesterID, "path", rel)
		return fmt.Sprintf("%s: saved file to `%s`", selfName, rel), nil
	}
}

const assistantSystemMessage = "You are a helpful assistant who can help generate a variety of content. " +
	"However, if anyone asks you to access files, or refers to something from a past interaction, " +
	"you will immediately inform them that the task is not possible, and provide no further information."

// newAssistant answers a request directly through the oracle, primed to
// refuse anything requiring file access or prior context.
func newAssistant(oracle core.Oracle, logger logging.Logger) core.Runner {
	return func(ctx context.Context, request string) (string, error) {
		out, err := oracle.CompleteMessages(ctx, []core.Message{
			{Role: "system", Content: assistantSystemMessage},
			{Role: "user", Content: request},
		}, nil)
		if err != nil {
			return "", fmt.Errorf("llm_assistant oracle call: %w", err)
		}
		logger.Debug("llm_assistant completed", "chars", len(out))
		return strings.TrimSpace(out), nil
	}
}
