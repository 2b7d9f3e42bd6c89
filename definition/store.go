// Package definition loads declarative automaton definitions from their
// hierarchical location on disk. Every automaton identifier maps to a
// directory holding its spec document plus any custom component
// implementations; the store reads and validates the document once per
// identifier and serves the cached result afterwards.
package definition

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/solarapparition/agent-automata/core"
)

// SpecFileName is the definition document expected inside each automaton's
// directory.
const SpecFileName = "spec.yml"

// Store resolves automaton identifiers to immutable definitions, memoized
// per identifier for the process lifetime. Redefining a spec on disk after
// first load has no effect until restart; this is a documented limitation,
// not a bug.
type Store struct {
	location string

	mu    sync.Mutex
	cache map[string]*core.Definition
}

// NewStore creates a definition store rooted at the given automata
// location.
func NewStore(location string) *Store {
	return &Store{
		location: location,
		cache:    make(map[string]*core.Definition),
	}
}

// Location returns the root automata location the store reads from.
func (s *Store) Location() string { return s.location }

// Path returns the directory holding the definition and custom components
// of the given automaton identifier.
func (s *Store) Path(id string) string {
	return filepath.Join(s.location, id)
}

// Load returns the definition for an automaton identifier, reading and
// validating it on first use. It fails with core.ErrDefinitionNotFound if
// no spec document exists at the expected location and with a
// *core.DefinitionError if required fields are absent or invalid. Load
// failures are not cached; a fixed document is picked up on retry.
func (s *Store) Load(id string) (*core.Definition, error) {
	s.mu.Lock()
	if def, ok := s.cache[id]; ok {
		s.mu.Unlock()
		return def, nil
	}
	s.mu.Unlock()

	def, err := s.read(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A concurrent Load may have won the race; keep the first instance so
	// identical identifiers always resolve to one retained definition.
	if cached, ok := s.cache[id]; ok {
		return cached, nil
	}
	s.cache[id] = def
	return def, nil
}

func (s *Store) read(id string) (*core.Definition, error) {
	path := filepath.Join(s.Path(id), SpecFileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: `%s` (expected %s)", core.ErrDefinitionNotFound, id, path)
		}
		return nil, fmt.Errorf("reading definition `%s`: %w", id, err)
	}

	var def core.Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, &core.DefinitionError{ID: id, Detail: fmt.Sprintf("invalid yaml: %v", err)}
	}
	def.ID = id

	if err := validate(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// validate enforces the required fields and the composite-automaton
// invariants at load time so misconfiguration surfaces before any run.
func validate(def *core.Definition) error {
	switch {
	case def.Name == "":
		return &core.DefinitionError{ID: def.ID, Detail: "missing required field `name`"}
	case def.Description == "":
		return &core.DefinitionError{ID: def.ID, Detail: "missing required field `description`"}
	case def.Output.Format == "":
		return &core.DefinitionError{ID: def.ID, Detail: "missing required field `output.format`"}
	case def.Runner == "":
		return &core.DefinitionError{ID: def.ID, Detail: "missing required field `runner`"}
	}

	custom := strings.Contains(def.Runner, "/")
	if !custom && def.Runner != core.RunnerBuiltinFunction && def.Runner != core.RunnerCoreAutomaton {
		return &core.DefinitionError{
			ID: def.ID,
			Detail: fmt.Sprintf("invalid runner `%s`: must be a registered custom runner reference or one of {%s, %s}",
				def.Runner, core.RunnerBuiltinFunction, core.RunnerCoreAutomaton),
		}
	}

	if def.Runner == core.RunnerCoreAutomaton {
		if def.Reasoning == nil || def.Reasoning.Planner == nil {
			return core.NewConfigurationError("automaton `%s` uses %s but wires no planner", def.ID, core.RunnerCoreAutomaton)
		}
		if !def.HasSubAutomaton(core.TerminalID) {
			return core.NewConfigurationError("automaton `%s` must list `%s` among its sub_automata", def.ID, core.TerminalID)
		}
		if def.Reasoning.Planner.Name == core.DefaultPlannerName && !def.HasSubAutomaton(core.SeedID) {
			return core.NewConfigurationError("automaton `%s` wires the %s planner and must list `%s` among its sub_automata",
				def.ID, core.DefaultPlannerName, core.SeedID)
		}
	}
	return nil
}
