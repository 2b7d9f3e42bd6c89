package core

// Runner kinds accepted in a definition's `runner` field. A runner name
// containing a slash is neither of these; it refers to a custom runner
// factory registered on the hub's registry.
const (
	// RunnerBuiltinFunction marks a leaf automaton backed by a built-in
	// function (save_text, llm_assistant, think, finalize, ...).
	RunnerBuiltinFunction = "builtin_function_runner"
	// RunnerCoreAutomaton marks a composite automaton driven by the
	// recursive orchestration loop.
	RunnerCoreAutomaton = "core_automaton_runner"
)

// Reserved sub-automaton identifiers with loop-level meaning.
const (
	// TerminalID is the sub-automaton whose selection ends a composite
	// automaton's loop; its result becomes the whole automaton's result.
	TerminalID = "finalize"
	// SeedID is the reflection-seed sub-automaton the default planner
	// falls back to when it cannot produce a usable action.
	SeedID = "think"
	// DefaultPlannerName is the built-in thoughtcycle planner. Definitions
	// wiring it must list SeedID among their sub_automata.
	DefaultPlannerName = "thoughtcycle"
)

// ComponentRef names a pluggable reasoning component in a definition,
// together with the oracle it should be backed by. A Name containing a
// slash refers to a custom factory registered on the registry; anything
// else must match a built-in.
type ComponentRef struct {
	Name   string `yaml:"name"`
	Oracle string `yaml:"oracle"`
}

// InputSpec declares an automaton's input contract: an optional validator
// plus the natural-language requirements and objectives handed to it (and
// surfaced to planners delegating to this automaton).
type InputSpec struct {
	Validator    *ComponentRef `yaml:"validator"`
	Requirements []string      `yaml:"requirements"`
	Objectives   []string      `yaml:"objectives"`
}

// OutputSpec declares an automaton's output contract.
type OutputSpec struct {
	Format    string        `yaml:"format"`
	Validator *ComponentRef `yaml:"validator"`
}

// ReasoningSpec wires the reasoning components of a composite automaton.
// Knowledge and Reflector are optional; Planner is required for any
// automaton run by the orchestration loop.
type ReasoningSpec struct {
	Knowledge *ComponentRef `yaml:"knowledge"`
	Reflector *ComponentRef `yaml:"reflector"`
	Planner   *ComponentRef `yaml:"planner"`
}

// Definition is the declarative spec for one automaton, loaded once per
// identifier and immutable afterwards. ID is the identifier the definition
// was loaded under, not a document field.
type Definition struct {
	ID          string            `yaml:"-"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Input       InputSpec         `yaml:"input"`
	Output      OutputSpec        `yaml:"output"`
	Reasoning   *ReasoningSpec    `yaml:"reasoning"`
	SubAutomata []string          `yaml:"sub_automata"`
	Runner      string            `yaml:"runner"`
	ExtraArgs   map[string]string `yaml:"extra_args"`
}

// HasSubAutomaton reports whether id is among the definition's delegation
// targets.
func (d *Definition) HasSubAutomaton(id string) bool {
	for _, sub := range d.SubAutomata {
		if sub == id {
			return true
		}
	}
	return false
}

// Automaton is a built, runnable unit able to accept a text request and
// return a text result, possibly by delegating to sub-automata. Instances
// are immutable after construction; the builder memoizes them per
// delegation edge, so reuse across calls is safe.
type Automaton struct {
	// ID is the automaton identifier the instance was built from.
	ID string
	// Name is the display name viewable to requesters.
	Name string
	// Description of what the automaton can do.
	Description string
	// InputRequirements the automaton expects requests to satisfy.
	InputRequirements []string
	// OutputFormat describes the shape of results.
	OutputFormat string
	// Run executes a request. It is already wrapped with input validation
	// and session recording by the builder.
	Run Runner
}
