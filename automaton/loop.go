package automaton

import (
	"context"

	"github.com/solarapparition/agent-automata/core"
)

// newLoopRunner binds the orchestration loop to a composite automaton's
// definition and fresh session. The planner and reflector are resolved
// here, at build time, so unknown capability names fail Build before any
// Runner executes; the knowledge source is resolved lazily on first use.
//
// The loop has no iteration cap: it terminates only when the planner
// selects the terminal sub-automaton, or when an external interruption is
// substituted at the session-wrapper boundary. Bounding runaway delegation
// is planner or watchdog policy, not loop policy.
func (h *Hub) newLoopRunner(def *core.Definition, selfSession string) (core.Runner, error) {
	if !def.HasSubAutomaton(core.TerminalID) {
		return nil, core.NewConfigurationError("automaton `%s` must list `%s` among its sub_automata", def.ID, core.TerminalID)
	}
	if def.Reasoning == nil || def.Reasoning.Planner == nil {
		return nil, core.NewConfigurationError("automaton `%s` uses %s but wires no planner", def.ID, core.RunnerCoreAutomaton)
	}

	path := h.store.Path(def.ID)
	plan, err := h.registry.Planner(path, def.Reasoning.Planner)
	if err != nil {
		return nil, err
	}
	reflect, err := h.registry.Reflector(path, def.Reasoning.Reflector)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, request string) (string, error) {
		know, err := h.registry.Knowledge(path, def.Reasoning.Knowledge)
		if err != nil {
			return "", err
		}

		subDefs := make(map[string]*core.Definition, len(def.SubAutomata))
		for _, subID := range def.SubAutomata {
			subDef, err := h.store.Load(subID)
			if err != nil {
				return "", err
			}
			subDefs[subID] = subDef
		}

		// Step history is the loop's working memory: append-only within a
		// run, fully visible to every later reflection and planning call.
		var steps []core.Step
		for {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			default:
			}

			var reflection []string
			if reflect != nil {
				reflection, err = reflect(ctx, request, steps, know)
				if err != nil {
					return "", err
				}
			}

			action, planText, err := plan(ctx, request, steps, reflection, def, subDefs)
			if err != nil {
				return "", err
			}
			h.logger.Debug("planned delegation", "id", def.ID, "session", selfSession, "target", action.AutomatonID)

			// The delegation edge: this loop's session is the sub-automaton's
			// requester session, this automaton its requester identity.
			sub, err := h.Build(action.AutomatonID, selfSession, def.ID)
			if err != nil {
				return "", err
			}
			result, err := sub.Run(ctx, action.Request)
			if err != nil {
				return "", err
			}

			steps = append(steps, core.Step{
				Reflection: reflection,
				PlanText:   planText,
				Action:     action,
				Result:     result,
			})

			if action.AutomatonID == core.TerminalID {
				h.logger.Info("terminal action reached", "id", def.ID, "session", selfSession, "steps", len(steps))
				return result, nil
			}
		}
	}, nil
}
