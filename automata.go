// Package agentautomata provides a high-level façade over the automaton
// Hub, enabling a task to be solved by a hierarchy of autonomous automata
// that delegate sub-tasks recursively until a terminal result is produced.
// Most applications interact with this package by:
//  1. Creating an Automata via New() pointed at an automata location
//     (optionally overriding the registry, recorder or logger)
//  2. Registering any custom capabilities on the registry
//  3. Running a top-level automaton with Run()
//
// The façade delegates orchestration to automaton.Hub while keeping setup
// ergonomics concise. Defaults are safe for local use: a JSONL file
// recorder under the automata location, the built-in capability set, and
// a no-op logger.
package agentautomata

import (
	"context"

	"github.com/solarapparition/agent-automata/automaton"
	"github.com/solarapparition/agent-automata/core"
	"github.com/solarapparition/agent-automata/logging"
	"github.com/solarapparition/agent-automata/registry"
	"github.com/solarapparition/agent-automata/session"
	"github.com/solarapparition/agent-automata/workspace"
)

// Version of the agent-automata module.
const Version = "0.2.0"

// Options configures the Automata façade.
type Options struct {
	// Registry for pluggable reasoning components; defaults to the
	// built-in capability set.
	Registry *registry.Registry
	// Recorder for the run audit trail; defaults to JSONL files under the
	// automata location.
	Recorder session.Recorder
	// Workspace backing the save_text built-in; defaults to ./workspace.
	Workspace *workspace.Store
	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Automata is the high-level façade aggregating the orchestration hub.
type Automata struct {
	hub *automaton.Hub
}

// New creates an Automata façade for the automata rooted at location.
func New(location string, optFns ...func(o *Options)) *Automata {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	hub := automaton.New(location, func(o *automaton.Options) {
		o.Registry = opts.Registry
		o.Recorder = opts.Recorder
		o.Workspace = opts.Workspace
		o.Logger = opts.Logger
	})
	return &Automata{hub: hub}
}

// Hub exposes the underlying orchestration hub.
func (a *Automata) Hub() *automaton.Hub { return a.hub }

// Registry exposes the component registry for custom capability
// registration before building.
func (a *Automata) Registry() *registry.Registry { return a.hub.Registry() }

// Build resolves an automaton for a fresh top-level delegation edge
// attributed to requesterID.
func (a *Automata) Build(id, requesterID string) (*core.Automaton, error) {
	return a.hub.Build(id, core.NewSessionID(), requesterID)
}

// Run builds and runs a top-level automaton synchronously.
func (a *Automata) Run(ctx context.Context, id, requesterID, request string) (string, error) {
	return a.hub.Run(ctx, id, requesterID, request)
}
