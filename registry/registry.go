// Package registry implements the generic component resolver shared by all
// pluggable reasoning capabilities: oracles, knowledge sources, reflectors,
// planners, validators and custom runners. Each capability kind has a small
// built-in factory set plus user-registered custom factories; resolution is
// memoized by composite identity so identical wiring always yields one
// shared instance.
package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/solarapparition/agent-automata/core"
	"github.com/solarapparition/agent-automata/logging"
)

// Context carries the resolution inputs handed to capability factories: the
// automaton's own directory, the already-resolved oracle (nil when the
// definition wires none) and, for validators, the requirements and
// objectives from the input contract.
type Context struct {
	// Path is the directory of the automaton whose definition declared the
	// capability.
	Path string
	// Oracle backing the capability; nil when the definition wires none.
	// Factories for oracle-requiring capabilities must fail with a
	// configuration error when it is nil.
	Oracle core.Oracle
	// Requirements and Objectives from the declaring automaton's input
	// contract (validators only).
	Requirements []string
	Objectives   []string
}

// Factory signatures per capability kind.
type (
	// OracleFactory constructs an oracle by name. Called once per distinct
	// resolution key; an oracle backed by a stateful connection is
	// therefore constructed once and shared.
	OracleFactory func() (core.Oracle, error)
	// PlannerFactory constructs a planner.
	PlannerFactory func(rc Context) (core.Planner, error)
	// ReflectorFactory constructs a reflector.
	ReflectorFactory func(rc Context) (core.Reflector, error)
	// KnowledgeFactory constructs a knowledge source.
	KnowledgeFactory func(rc Context) (core.Knowledge, error)
	// ValidatorFactory constructs a validator.
	ValidatorFactory func(rc Context) (core.Validator, error)
	// RunnerFactory constructs a fully custom runner for an automaton. It
	// receives the definition, the automata location and the requester
	// identity of the delegation edge being built.
	RunnerFactory func(def *core.Definition, location, requesterID string) (core.Runner, error)
)

// Registry resolves capability names to instances. Built-in factories are
// installed at construction; custom implementations are registered under
// slash-qualified names (`<automaton-id>/<name>`), the convention marking
// "this is code, not a built-in name". A Registry is safe for concurrent
// use.
type Registry struct {
	logger logging.Logger

	mu         sync.Mutex
	oracles    map[string]OracleFactory
	planners   map[string]PlannerFactory
	reflectors map[string]ReflectorFactory
	knowledge  map[string]KnowledgeFactory
	validators map[string]ValidatorFactory
	runners    map[string]RunnerFactory
	cache      map[string]any
}

// Option configures a Registry.
type Option func(r *Registry)

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// New constructs a Registry with no factories installed. Most callers want
// the hub's default registry, which pre-installs the built-in toolkit.
func New(opts ...Option) *Registry {
	r := &Registry{
		logger:     logging.NoOpLogger{},
		oracles:    make(map[string]OracleFactory),
		planners:   make(map[string]PlannerFactory),
		reflectors: make(map[string]ReflectorFactory),
		knowledge:  make(map[string]KnowledgeFactory),
		validators: make(map[string]ValidatorFactory),
		runners:    make(map[string]RunnerFactory),
		cache:      make(map[string]any),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterOracle installs an oracle factory under name.
func (r *Registry) RegisterOracle(name string, f OracleFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.oracles[name] = f
}

// RegisterPlanner installs a planner factory under name.
func (r *Registry) RegisterPlanner(name string, f PlannerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.planners[name] = f
}

// RegisterReflector installs a reflector factory under name.
func (r *Registry) RegisterReflector(name string, f ReflectorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reflectors[name] = f
}

// RegisterKnowledge installs a knowledge factory under name.
func (r *Registry) RegisterKnowledge(name string, f KnowledgeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.knowledge[name] = f
}

// RegisterValidator installs a validator factory under name.
func (r *Registry) RegisterValidator(name string, f ValidatorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[name] = f
}

// RegisterRunner installs a custom runner factory under a slash-qualified
// name referenced from a definition's `runner` field.
func (r *Registry) RegisterRunner(name string, f RunnerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runners[name] = f
}

// Oracle resolves an oracle by name. An empty name resolves to nil: the
// capability is optional and simply absent.
func (r *Registry) Oracle(path, name string) (core.Oracle, error) {
	if name == "" {
		return nil, nil
	}
	key := cacheKey("oracle", path, name)
	if v, ok := r.cached(key); ok {
		return v.(core.Oracle), nil
	}

	f, builtins := r.oracleFactory(name)
	if f == nil {
		return nil, &core.CapabilityNotFoundError{Kind: "oracle", Name: name, Builtins: builtins}
	}
	o, err := f()
	if err != nil {
		return nil, err
	}
	return r.retain(key, o).(core.Oracle), nil
}

// Planner resolves a planner component reference. A nil ref resolves to
// nil, nil.
func (r *Registry) Planner(path string, ref *core.ComponentRef) (core.Planner, error) {
	if ref == nil {
		return nil, nil
	}
	key := cacheKey("planner", path, ref.Name, ref.Oracle)
	if v, ok := r.cached(key); ok {
		return v.(core.Planner), nil
	}

	rc, err := r.resolutionContext(path, ref, nil, nil)
	if err != nil {
		return nil, err
	}
	f, builtins := r.plannerFactory(ref.Name)
	if f == nil {
		return nil, &core.CapabilityNotFoundError{Kind: "planner", Name: ref.Name, Builtins: builtins}
	}
	p, err := f(rc)
	if err != nil {
		return nil, err
	}
	return r.retain(key, p).(core.Planner), nil
}

// Reflector resolves a reflector component reference. A nil ref resolves
// to nil, nil.
func (r *Registry) Reflector(path string, ref *core.ComponentRef) (core.Reflector, error) {
	if ref == nil {
		return nil, nil
	}
	key := cacheKey("reflector", path, ref.Name, ref.Oracle)
	if v, ok := r.cached(key); ok {
		return v.(core.Reflector), nil
	}

	rc, err := r.resolutionContext(path, ref, nil, nil)
	if err != nil {
		return nil, err
	}
	f, builtins := r.reflectorFactory(ref.Name)
	if f == nil {
		return nil, &core.CapabilityNotFoundError{Kind: "reflector", Name: ref.Name, Builtins: builtins}
	}
	refl, err := f(rc)
	if err != nil {
		return nil, err
	}
	return r.retain(key, refl).(core.Reflector), nil
}

// Knowledge resolves a knowledge component reference. A nil ref resolves
// to nil, nil.
func (r *Registry) Knowledge(path string, ref *core.ComponentRef) (core.Knowledge, error) {
	if ref == nil {
		return nil, nil
	}
	key := cacheKey("knowledge", path, ref.Name, ref.Oracle)
	if v, ok := r.cached(key); ok {
		return v.(core.Knowledge), nil
	}

	rc, err := r.resolutionContext(path, ref, nil, nil)
	if err != nil {
		return nil, err
	}
	f, builtins := r.knowledgeFactory(ref.Name)
	if f == nil {
		return nil, &core.CapabilityNotFoundError{Kind: "knowledge", Name: ref.Name, Builtins: builtins}
	}
	k, err := f(rc)
	if err != nil {
		return nil, err
	}
	return r.retain(key, k).(core.Knowledge), nil
}

// Validator resolves a validator component reference with the declaring
// automaton's requirements and objectives. A nil ref resolves to nil, nil.
func (r *Registry) Validator(path string, ref *core.ComponentRef, requirements, objectives []string) (core.Validator, error) {
	if ref == nil {
		return nil, nil
	}
	key := cacheKey("validator", path, ref.Name, ref.Oracle,
		strings.Join(requirements, "\x1e"), strings.Join(objectives, "\x1e"))
	if v, ok := r.cached(key); ok {
		return v.(core.Validator), nil
	}

	rc, err := r.resolutionContext(path, ref, requirements, objectives)
	if err != nil {
		return nil, err
	}
	if rc.Oracle == nil && !isCustom(ref.Name) {
		return nil, core.NewConfigurationError("validator `%s` requires an oracle; check the spec at `%s`", ref.Name, path)
	}
	f, builtins := r.validatorFactory(ref.Name)
	if f == nil {
		return nil, &core.CapabilityNotFoundError{Kind: "validator", Name: ref.Name, Builtins: builtins}
	}
	v, err := f(rc)
	if err != nil {
		return nil, err
	}
	return r.retain(key, v).(core.Validator), nil
}

// Runner resolves a custom runner reference from a definition's `runner`
// field.
func (r *Registry) Runner(name string) (RunnerFactory, error) {
	r.mu.Lock()
	f, ok := r.runners[name]
	r.mu.Unlock()
	if !ok {
		return nil, &core.CapabilityNotFoundError{Kind: "runner", Name: name,
			Builtins: []string{core.RunnerBuiltinFunction, core.RunnerCoreAutomaton}}
	}
	return f, nil
}

func (r *Registry) resolutionContext(path string, ref *core.ComponentRef, requirements, objectives []string) (Context, error) {
	oracle, err := r.Oracle(path, ref.Oracle)
	if err != nil {
		return Context{}, err
	}
	return Context{Path: path, Oracle: oracle, Requirements: requirements, Objectives: objectives}, nil
}

func (r *Registry) cached(key string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.cache[key]
	return v, ok
}

// retain stores the first instance resolved for a key and returns the
// retained one. Under a race the loser's instance is discarded so every
// caller converges on a single shared capability.
func (r *Registry) retain(key string, v any) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.cache[key]; ok {
		return existing
	}
	r.cache[key] = v
	return v
}

func (r *Registry) oracleFactory(name string) (OracleFactory, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.oracles[name], builtinNames(r.oracles)
}

func (r *Registry) plannerFactory(name string) (PlannerFactory, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.planners[name], builtinNames(r.planners)
}

func (r *Registry) reflectorFactory(name string) (ReflectorFactory, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reflectors[name], builtinNames(r.reflectors)
}

func (r *Registry) knowledgeFactory(name string) (KnowledgeFactory, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.knowledge[name], builtinNames(r.knowledge)
}

func (r *Registry) validatorFactory(name string) (ValidatorFactory, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.validators[name], builtinNames(r.validators)
}

// isCustom reports whether a capability name refers to registered custom
// code rather than a built-in.
func isCustom(name string) bool { return strings.Contains(name, "/") }

// builtinNames lists the non-custom names of a factory map, sorted for
// stable error messages.
func builtinNames[F any](m map[string]F) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		if !isCustom(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func cacheKey(parts ...string) string { return strings.Join(parts, "\x1f") }
