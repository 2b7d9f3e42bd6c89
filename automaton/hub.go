// Package automaton contains the orchestration core: the Hub that builds
// runnable automata from declarative definitions, and the recursive
// reflect → plan → delegate → record loop driving composite automata.
//
// A Hub owns the shared state the core needs — the definition store, the
// component registry, the session recorder and the builder cache — so
// independent Hubs are fully isolated (nothing lives at package level).
package automaton

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/solarapparition/agent-automata/core"
	"github.com/solarapparition/agent-automata/definition"
	"github.com/solarapparition/agent-automata/logging"
	"github.com/solarapparition/agent-automata/registry"
	"github.com/solarapparition/agent-automata/session"
	"github.com/solarapparition/agent-automata/toolkit"
	"github.com/solarapparition/agent-automata/workspace"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Registry resolves pluggable reasoning components. Defaults to a
	// fresh registry with the built-in capability set installed.
	Registry *registry.Registry
	// Recorder receives run events. Defaults to a JSONL file recorder
	// rooted at the automata location.
	Recorder session.Recorder
	// Workspace backs the save_text built-in. Defaults to ./workspace.
	Workspace *workspace.Store
	// Logger for orchestration diagnostics.
	Logger logging.Logger
}

// Hub builds and caches automata for one automata location. Build results
// are memoized per delegation edge for the process lifetime; redefining an
// automaton's on-disk spec has no effect until restart (documented
// limitation). Public methods are safe for concurrent use.
type Hub struct {
	location  string
	store     *definition.Store
	registry  *registry.Registry
	recorder  session.Recorder
	workspace *workspace.Store
	logger    logging.Logger

	mu    sync.Mutex
	cache map[buildKey]*core.Automaton
}

// buildKey identifies one delegation edge. Two builds of the same
// automaton identifier under different requester contexts are distinct
// instances with distinct sessions.
type buildKey struct {
	id               string
	requesterSession string
	requesterID      string
	location         string
}

// New constructs a Hub for the automata rooted at location.
func New(location string, optFns ...func(o *Options)) *Hub {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Registry == nil {
		opts.Registry = registry.New(registry.WithBuiltins(), registry.WithLogger(opts.Logger))
	}
	if opts.Recorder == nil {
		opts.Recorder = session.NewFileRecorder(location)
	}
	if opts.Workspace == nil {
		opts.Workspace = workspace.NewStore("workspace")
	}

	return &Hub{
		location:  location,
		store:     definition.NewStore(location),
		registry:  opts.Registry,
		recorder:  opts.Recorder,
		workspace: opts.Workspace,
		logger:    opts.Logger,
		cache:     make(map[buildKey]*core.Automaton),
	}
}

// Location returns the automata location the hub builds from.
func (h *Hub) Location() string { return h.location }

// Registry returns the hub's component registry, e.g. for registering
// custom capabilities before building.
func (h *Hub) Registry() *registry.Registry { return h.registry }

// Store returns the hub's definition store.
func (h *Hub) Store() *definition.Store { return h.store }

// Build resolves an automaton identifier into a runnable Automaton for the
// given requester edge. The result is memoized by (identifier, requester
// session, requester identity, location); the same key always returns the
// identical instance.
//
// Build fails with a configuration, capability-not-found or definition
// error when the wiring is unresolvable; no Runner executes in that case.
func (h *Hub) Build(id, requesterSession, requesterID string) (*core.Automaton, error) {
	key := buildKey{id: id, requesterSession: requesterSession, requesterID: requesterID, location: h.location}
	h.mu.Lock()
	if a, ok := h.cache[key]; ok {
		h.mu.Unlock()
		return a, nil
	}
	h.mu.Unlock()

	a, err := h.build(id, requesterSession, requesterID)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	// Under a race the first retained instance wins and the duplicate is
	// discarded, so both callers share one automaton and one session.
	if existing, ok := h.cache[key]; ok {
		return existing, nil
	}
	h.cache[key] = a
	return a, nil
}

// Run builds the automaton as a fresh top-level delegation edge attributed
// to requesterID and runs it with the request.
func (h *Hub) Run(ctx context.Context, id, requesterID, request string) (string, error) {
	a, err := h.Build(id, core.NewSessionID(), requesterID)
	if err != nil {
		return "", err
	}
	return a.Run(ctx, request)
}

func (h *Hub) build(id, requesterSession, requesterID string) (*core.Automaton, error) {
	selfSession := core.NewSessionID()
	def, err := h.store.Load(id)
	if err != nil {
		return nil, err
	}
	path := h.store.Path(id)

	validate, err := h.registry.Validator(path, def.Input.Validator, def.Input.Requirements, def.Input.Objectives)
	if err != nil {
		return nil, err
	}

	var run core.Runner
	switch def.Runner {
	case core.RunnerBuiltinFunction:
		run, err = toolkit.Load(id, path, def, toolkit.Deps{
			Registry:    h.registry,
			Workspace:   h.workspace,
			RequesterID: requesterID,
			Logger:      h.logger,
		})
	case core.RunnerCoreAutomaton:
		run, err = h.newLoopRunner(def, selfSession)
	default:
		var factory registry.RunnerFactory
		factory, err = h.registry.Runner(def.Runner)
		if err == nil {
			run, err = factory(def, h.location, requesterID)
		}
	}
	if err != nil {
		return nil, err
	}

	run = withValidation(validate, run)
	run = h.withSession(run, def, selfSession, requesterID, requesterSession)

	return &core.Automaton{
		ID:                id,
		Name:              def.Name,
		Description:       def.Description,
		InputRequirements: def.Input.Requirements,
		OutputFormat:      def.Output.Format,
		Run:               run,
	}, nil
}

// withValidation short-circuits a run whose input fails validation: the
// validator's message becomes the run's ordinary result and the wrapped
// runner is never entered.
func withValidation(validate core.Validator, run core.Runner) core.Runner {
	if validate == nil {
		return run
	}
	return func(ctx context.Context, request string) (string, error) {
		valid, message, err := validate(ctx, request)
		if err != nil {
			return "", err
		}
		if !valid {
			return message, nil
		}
		return run(ctx, request)
	}
}

// withSession wraps a runner with the session protocol: start/end markers,
// interruption substitution, error-to-result translation, and the dual
// Event record to the automaton's own log and the requester's.
func (h *Hub) withSession(run core.Runner, def *core.Definition, selfSession, requesterID, requesterSession string) core.Runner {
	return func(ctx context.Context, request string) (string, error) {
		h.logger.Info("automaton start", "id", def.ID, "name", def.Name, "session", selfSession, "requester", requesterID)

		result, err := run(ctx, request)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			// An external interruption becomes an unhappy but ordinary
			// result; the requester sees text, never the cancellation.
			result = fmt.Sprintf("Sub-automaton `%s` took too long to process and was manually stopped.", def.Name)
			h.logger.Warn("automaton interrupted", "id", def.ID, "session", selfSession)
		case core.IsFatal(err):
			h.logger.Error("automaton misconfigured", "id", def.ID, "session", selfSession, "error", err)
			return "", err
		default:
			result = fmt.Sprintf("Sub-automaton `%s` encountered an error: %v", def.Name, err)
			h.logger.Error("automaton run failed", "id", def.ID, "session", selfSession, "error", err)
		}

		h.logger.Info("automaton end", "id", def.ID, "name", def.Name, "session", selfSession)

		event := core.NewEvent(requesterID, def.ID, request, result)
		if rerr := h.recorder.Record(event, def.ID, selfSession); rerr != nil {
			h.logger.Error("recording event to own log failed", "id", def.ID, "session", selfSession, "error", rerr)
		}
		if rerr := h.recorder.Record(event, requesterID, requesterSession); rerr != nil {
			h.logger.Error("recording event to requester log failed", "requester", requesterID, "session", requesterSession, "error", rerr)
		}
		return result, nil
	}
}
