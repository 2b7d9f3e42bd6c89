package core

import "context"

// Runner is the single function-shaped contract every executable automaton
// behavior satisfies: leaf functions, custom runners and the orchestration
// loop alike. Implementations return result text; errors are reserved for
// faults that may escape a run (configuration-class failures). Recoverable
// conditions (validation failures, interruptions, delegation mishaps) are
// reported as ordinary result text so delegation chains stay composable.
type Runner func(ctx context.Context, request string) (string, error)

// Message is one role-tagged element of a conversational oracle prompt.
type Message struct {
	Role    string
	Content string
}

// Oracle is the opaque external reasoning service consulted by planners,
// reflectors and validators. Implementations must honor ctx cancellation
// and treat stop sequences as generation terminators.
type Oracle interface {
	// Complete returns the continuation of a plain text prompt.
	Complete(ctx context.Context, prompt string, stop []string) (string, error)
	// CompleteMessages returns the assistant reply to a role-tagged
	// message sequence.
	CompleteMessages(ctx context.Context, messages []Message, stop []string) (string, error)
}

// Knowledge retrieves background information relating to a topic.
type Knowledge func(ctx context.Context, topic string) (string, error)

// Reflector produces reflection lines over the request and the steps taken
// so far, optionally consulting a knowledge source. knowledge may be nil.
type Reflector func(ctx context.Context, request string, steps []Step, knowledge Knowledge) ([]string, error)

// Validator checks a value against an automaton's input or output
// contract. It reports whether the value is valid and, when it is not, a
// message suitable for returning to the requester as the run's result.
type Validator func(ctx context.Context, value string) (valid bool, message string, err error)

// Planner chooses the next delegation for a composite automaton. It
// receives the original request, the full step history, the current
// reflection (nil when no reflector is wired), the automaton's own
// definition and the definitions of its delegation targets keyed by
// identifier. It returns the chosen action plus the raw plan text that
// produced it.
//
// The returned action's AutomatonID must be buildable by the loop; a
// planner that cannot map its chosen name back to an identifier must
// substitute a corrective action targeting the reflection seed rather than
// fail the run.
type Planner func(
	ctx context.Context,
	request string,
	steps []Step,
	reflection []string,
	def *Definition,
	subDefs map[string]*Definition,
) (Action, string, error)
