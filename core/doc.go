// Package core provides the foundational domain types and contracts used by
// agent-automata. It defines the core abstractions for:
//
//   - Automata (runnable delegation units, leaf or composite)
//   - Definitions (declarative specs resolved into runnable automata)
//   - Actions, Steps and Events (immutable planning + audit records)
//   - Pluggable reasoning contracts (Oracle, Planner, Reflector, Validator,
//     Knowledge)
//   - The error taxonomy separating fatal configuration faults from
//     recoverable run-time outcomes
//
// The package intentionally keeps implementation concerns (definition
// parsing, component registries, session recording, the orchestration loop)
// out of scope, exposing small contracts so concrete backends can live in
// their own packages without cyclic dependencies.
package core
