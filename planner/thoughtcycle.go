// Package planner provides the built-in thoughtcycle planner: it renders
// the automaton's directives and step history into a reasoning prompt,
// asks the oracle to continue it, and parses the chosen sub-automaton and
// request back out. When the oracle output cannot be parsed or names an
// unknown sub-automaton, the planner substitutes a corrective delegation
// to the reflection seed instead of failing the run.
package planner

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/solarapparition/agent-automata/core"
	"github.com/solarapparition/agent-automata/internal/prompt"
)

// Stop sequences terminating oracle generation after one planned action.
var stopSequences = []string{"Result:", "---"}

const subAutomatonTmpl = "`{{.Name}}`:\n- Description: {{.Description}}\n- Input Requirements:\n  {{letters \"\\n  \" .Requirements}}"

const directivesTmpl = `You are simulating the output of an "Automaton" called ` + "`{{.Name}}`" + `. Automata are advanced AI agents capable of fulfilling requests in a predictable way.

Request: ` + "`{{.Name}}`" + ` has been asked to complete the following Request:
` + "```\n{{.Request}}\n```" + `

Sub-Automata: Sub-Automata are subsidiary agents that an Automaton can call upon to perform tasks needed to perform the Request. ` + "`{{.Name}}`" + ` has access to the following sub-automata:
{{.SubAutomataDescriptions}}

Reasoning Thoughtcycle:
` + "`{{.Name}}`" + ` goes through a consistent reasoning process to standardize the process for completing requests. To make use of it, it outputs the following thoughtcycle:
` + "```thoughtcycle_format" + `
Reflection: ` + "`{{.Name}}`" + ` reflects abstractly upon the events that have occurred so far, as well as relevant information it can recall from its knowledge
Thought: ` + "`{{.Name}}`" + ` analyzes its Result, Reflection and Progress Record to come to a decision about the current status of the Request
Progress Record: ` + "`{{.Name}}`" + ` keeps track of an itemized record of actions taken so far and their outcomes, including the names of artifacts (e.g. files) generated
Next Action: a concrete, achievable action that can be taken by a Sub-Automaton to make progress on the Request
Sub-Automaton Name: the name of the Sub-Automaton to request the Next Action. MUST be one of the following: [{{.SubAutomataNames}}]
Sub-Automaton Input Requirements: the Input Requirements of the Sub-Automaton being used, copied from above
Sub-Automaton Input: the request to send to the Sub-Automaton. This MUST follow any Input Requirements of the Sub-Automaton, as described above
Result: the reply from the Sub-Automaton, which can include error messages or requests for clarification
... (this thoughtcycle repeats until no further delegation to Sub-Automata is needed, or ` + "`{{.Name}}`" + ` determines that the Request cannot be completed)
` + "```" + `

General instructions regarding ` + "`{{.Name}}`" + `'s work process:
- ` + "`{{.Name}}`" + ` always adheres to the Input Requirements of the Sub-Automata it uses
- ` + "`{{.Name}}`" + `'s output always follows the format of the thoughtcycle defined above
- when ` + "`{{.Name}}`" + ` receives a reply from a Sub-Automaton, it will always parse the reply and use it to update its Progress Record
- if ` + "`{{.Name}}`" + ` completes the request or it determines that the Request cannot be completed, it uses the ` + "`Finalize Reply`" + ` Sub-Automaton to report its result back to the requester

Begin the simulation of ` + "`{{.Name}}`" + ` below, after the divider. Do not include any other text besides what ` + "`{{.Name}}`" + ` would output.`

const stepIntroTmpl = "---`{{.Name}}`: Thoughtcycle---\n\nReflection:\n{{.Reflection}}\n\nThought:"

var actionPattern = regexp.MustCompile(`(?s)Sub-Automaton Name\s*\d*\s*:(.*?)\nSub-Automaton\s*\d*\s*Input\s*\d*\s*Requirements\s*\d*\s*:(.*?)\nSub-Automaton\s*\d*\s*Input\s*\d*\s*:\s*(.*)`)

const formatReminder = "I must output the following:\n" +
	"- the `Sub-Automaton Name` to send a request to\n" +
	"- the `Input Requirements`\n" +
	"- what `Sub-Automaton Input` to send\n" +
	"The output must follow the format specified in the `thoughtcycle_format` block above"

// NewThoughtcycle constructs the built-in planner backed by the given
// oracle. The oracle is required.
func NewThoughtcycle(oracle core.Oracle) (core.Planner, error) {
	if oracle == nil {
		return nil, core.NewConfigurationError("planner `%s` requires an oracle", core.DefaultPlannerName)
	}

	return func(ctx context.Context, request string, steps []core.Step, reflection []string, def *core.Definition, subDefs map[string]*core.Definition) (core.Action, string, error) {
		if _, ok := subDefs[core.SeedID]; !ok {
			return core.Action{}, "", core.NewConfigurationError(
				"planner `%s` requires a `%s` sub-automaton on `%s`", core.DefaultPlannerName, core.SeedID, def.ID)
		}

		p, err := buildPrompt(request, steps, reflection, def, subDefs)
		if err != nil {
			return core.Action{}, "", err
		}

		raw, err := oracle.Complete(ctx, p, stopSequences)
		if err != nil {
			return core.Action{}, "", fmt.Errorf("thoughtcycle oracle call: %w", err)
		}
		raw = strings.TrimSpace(raw)

		name, subRequest, ok := ParseAction(raw)
		if !ok {
			return core.Action{AutomatonID: core.SeedID, Request: formatReminder}, raw, nil
		}

		id, ok := idForName(name, subDefs)
		if !ok {
			msg := fmt.Sprintf("The Sub-Automaton Name must be one of the following: %s",
				strings.Join(quotedNames(subDefs), ", "))
			return core.Action{AutomatonID: core.SeedID, Request: msg}, raw, nil
		}
		return core.Action{AutomatonID: id, Request: subRequest}, raw, nil
	}, nil
}

// ParseAction extracts the sub-automaton name and request from raw
// thoughtcycle output. ok is false when the output does not carry a
// complete action block.
func ParseAction(raw string) (name, request string, ok bool) {
	m := actionPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", "", false
	}
	clean := func(s string) string {
		return strings.Trim(strings.TrimSpace(s), `".`)
	}
	return clean(m[1]), clean(m[3]), true
}

func buildPrompt(request string, steps []core.Step, reflection []string, def *core.Definition, subDefs map[string]*core.Definition) (string, error) {
	descriptions := make([]string, 0, len(subDefs))
	for _, sub := range orderedSubDefs(subDefs) {
		desc, err := prompt.Render("sub_automaton", subAutomatonTmpl, map[string]any{
			"Name":         sub.Name,
			"Description":  sub.Description,
			"Requirements": sub.Input.Requirements,
		})
		if err != nil {
			return "", err
		}
		descriptions = append(descriptions, desc)
	}

	directives, err := prompt.Render("directives", directivesTmpl, map[string]any{
		"Name":                    def.Name,
		"Request":                 request,
		"SubAutomataNames":        strings.Join(quotedNames(subDefs), ", "),
		"SubAutomataDescriptions": strings.Join(descriptions, "\n"),
	})
	if err != nil {
		return "", err
	}

	intro, err := prompt.Render("step_intro", stepIntroTmpl, map[string]any{
		"Name":       def.Name,
		"Reflection": reflectionText(reflection),
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(directives)
	sb.WriteString("\n\n")
	for _, step := range steps {
		sb.WriteString(intro)
		sb.WriteString("\n")
		sb.WriteString(step.PlanText)
		sb.WriteString("\n\nResult:\n")
		sb.WriteString(step.Result)
		sb.WriteString("\n\n")
	}
	sb.WriteString(intro)
	return sb.String(), nil
}

func reflectionText(reflection []string) string {
	if len(reflection) == 0 {
		return "None"
	}
	lines := make([]string, len(reflection))
	for i, line := range reflection {
		lines[i] = " -" + line
	}
	return strings.Join(lines, "\n")
}

// orderedSubDefs returns sub-definitions sorted by identifier so prompts
// are deterministic regardless of map iteration order.
func orderedSubDefs(subDefs map[string]*core.Definition) []*core.Definition {
	ids := make([]string, 0, len(subDefs))
	for id := range subDefs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*core.Definition, len(ids))
	for i, id := range ids {
		out[i] = subDefs[id]
	}
	return out
}

func quotedNames(subDefs map[string]*core.Definition) []string {
	names := make([]string, 0, len(subDefs))
	for _, sub := range orderedSubDefs(subDefs) {
		names = append(names, `"`+sub.Name+`"`)
	}
	return names
}

func idForName(name string, subDefs map[string]*core.Definition) (string, bool) {
	for id, sub := range subDefs {
		if sub.Name == name {
			return id, true
		}
	}
	return "", false
}
