package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/solarapparition/agent-automata/core"
)

// DefinitionBuilder helps construct definition documents on disk with
// fluent chaining for tests. Example:
//
//	loc := t.TempDir()
//	NewDefinitionBuilder("finalize", "Finalize Reply").
//		Runner(core.RunnerBuiltinFunction).
//		Requirements("the result to report").
//		Write(t, loc)
type DefinitionBuilder struct {
	id           string
	name         string
	description  string
	runner       string
	output       string
	requirements []string
	objectives   []string
	validator    *core.ComponentRef
	reasoning    *core.ReasoningSpec
	subAutomata  []string
	extraArgs    map[string]string
}

// NewDefinitionBuilder creates a builder for the given identifier and
// display name with sane defaults for the remaining required fields.
func NewDefinitionBuilder(id, name string) *DefinitionBuilder {
	return &DefinitionBuilder{
		id:          id,
		name:        name,
		description: fmt.Sprintf("Test automaton %s", id),
		runner:      core.RunnerBuiltinFunction,
		output:      "freeform text",
	}
}

// Description overrides the description (chainable).
func (b *DefinitionBuilder) Description(d string) *DefinitionBuilder {
	b.description = d
	return b
}

// Runner sets the runner kind (chainable).
func (b *DefinitionBuilder) Runner(r string) *DefinitionBuilder {
	b.runner = r
	return b
}

// Output sets the output format descriptor (chainable).
func (b *DefinitionBuilder) Output(format string) *DefinitionBuilder {
	b.output = format
	return b
}

// Requirements sets the input requirements (chainable).
func (b *DefinitionBuilder) Requirements(reqs ...string) *DefinitionBuilder {
	b.requirements = reqs
	return b
}

// Objectives sets the input objectives (chainable).
func (b *DefinitionBuilder) Objectives(objs ...string) *DefinitionBuilder {
	b.objectives = objs
	return b
}

// Validator wires an input validator (chainable).
func (b *DefinitionBuilder) Validator(name, oracle string) *DefinitionBuilder {
	b.validator = &core.ComponentRef{Name: name, Oracle: oracle}
	return b
}

// Planner wires a planner (chainable).
func (b *DefinitionBuilder) Planner(name, oracle string) *DefinitionBuilder {
	b.ensureReasoning().Planner = &core.ComponentRef{Name: name, Oracle: oracle}
	return b
}

// Reflector wires a reflector (chainable).
func (b *DefinitionBuilder) Reflector(name, oracle string) *DefinitionBuilder {
	b.ensureReasoning().Reflector = &core.ComponentRef{Name: name, Oracle: oracle}
	return b
}

// Knowledge wires a knowledge source (chainable).
func (b *DefinitionBuilder) Knowledge(name, oracle string) *DefinitionBuilder {
	b.ensureReasoning().Knowledge = &core.ComponentRef{Name: name, Oracle: oracle}
	return b
}

// SubAutomata sets the delegation targets (chainable).
func (b *DefinitionBuilder) SubAutomata(ids ...string) *DefinitionBuilder {
	b.subAutomata = ids
	return b
}

// ExtraArg sets an extra_args entry (chainable).
func (b *DefinitionBuilder) ExtraArg(key, value string) *DefinitionBuilder {
	if b.extraArgs == nil {
		b.extraArgs = map[string]string{}
	}
	b.extraArgs[key] = value
	return b
}

func (b *DefinitionBuilder) ensureReasoning() *core.ReasoningSpec {
	if b.reasoning == nil {
		b.reasoning = &core.ReasoningSpec{}
	}
	return b.reasoning
}

// YAML renders the builder as a spec document.
func (b *DefinitionBuilder) YAML() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "name: %q\n", b.name)
	fmt.Fprintf(&sb, "description: %q\n", b.description)
	sb.WriteString("input:\n")
	if b.validator != nil {
		sb.WriteString("  validator:\n")
		fmt.Fprintf(&sb, "    name: %q\n", b.validator.Name)
		if b.validator.Oracle != "" {
			fmt.Fprintf(&sb, "    oracle: %q\n", b.validator.Oracle)
		}
	}
	writeList(&sb, "  requirements", b.requirements)
	writeList(&sb, "  objectives", b.objectives)
	sb.WriteString("output:\n")
	fmt.Fprintf(&sb, "  format: %q\n", b.output)
	if b.reasoning != nil {
		sb.WriteString("reasoning:\n")
		writeRef(&sb, "knowledge", b.reasoning.Knowledge)
		writeRef(&sb, "reflector", b.reasoning.Reflector)
		writeRef(&sb, "planner", b.reasoning.Planner)
	}
	if len(b.subAutomata) > 0 {
		writeList(&sb, "sub_automata", b.subAutomata)
	}
	fmt.Fprintf(&sb, "runner: %q\n", b.runner)
	if len(b.extraArgs) > 0 {
		sb.WriteString("extra_args:\n")
		for key, value := range b.extraArgs {
			fmt.Fprintf(&sb, "  %s: %q\n", key, value)
		}
	}
	return sb.String()
}

// Write persists the spec document under <location>/<id>/spec.yml and
// returns the automaton's directory.
func (b *DefinitionBuilder) Write(t TestingT, location string) string {
	t.Helper()
	dir := filepath.Join(location, b.id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating definition dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "spec.yml"), []byte(b.YAML()), 0o644); err != nil {
		t.Fatalf("writing spec: %v", err)
	}
	return dir
}

// TestingT is the subset of *testing.T the builders need.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
}

func writeList(sb *strings.Builder, key string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s:\n", key)
	indent := strings.Repeat(" ", len(key)-len(strings.TrimLeft(key, " ")))
	for _, item := range items {
		fmt.Fprintf(sb, "%s- %q\n", indent, item)
	}
}

func writeRef(sb *strings.Builder, key string, ref *core.ComponentRef) {
	if ref == nil {
		return
	}
	fmt.Fprintf(sb, "  %s:\n", key)
	fmt.Fprintf(sb, "    name: %q\n", ref.Name)
	if ref.Oracle != "" {
		fmt.Fprintf(sb, "    oracle: %q\n", ref.Oracle)
	}
}
