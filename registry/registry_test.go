package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarapparition/agent-automata/core"
	"github.com/solarapparition/agent-automata/oracle"
)

func TestRegistry_OracleResolutionIsMemoized(t *testing.T) {
	r := New()
	constructed := 0
	r.RegisterOracle("scripted", func() (core.Oracle, error) {
		constructed++
		return oracle.NewScriptedOracle(), nil
	})

	first, err := r.Oracle("automata/a", "scripted")
	require.NoError(t, err)
	second, err := r.Oracle("automata/a", "scripted")
	require.NoError(t, err)

	// Identical wiring resolves to the identical instance, constructed once.
	assert.Same(t, first, second)
	assert.Equal(t, 1, constructed)
}

func TestRegistry_OracleScopedByPath(t *testing.T) {
	r := New()
	r.RegisterOracle("scripted", func() (core.Oracle, error) {
		return oracle.NewScriptedOracle(), nil
	})

	a, err := r.Oracle("automata/a", "scripted")
	require.NoError(t, err)
	b, err := r.Oracle("automata/b", "scripted")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestRegistry_EmptyOracleNameIsAbsent(t *testing.T) {
	r := New()
	o, err := r.Oracle("automata/a", "")
	require.NoError(t, err)
	assert.Nil(t, o)
}

func TestRegistry_UnknownOracle(t *testing.T) {
	r := New()
	r.RegisterOracle("scripted", func() (core.Oracle, error) {
		return oracle.NewScriptedOracle(), nil
	})

	_, err := r.Oracle("automata/a", "mystery")
	var nf *core.CapabilityNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "oracle", nf.Kind)
	assert.Equal(t, "mystery", nf.Name)
	assert.Equal(t, []string{"scripted"}, nf.Builtins)
}

func TestRegistry_NilRefResolvesToNil(t *testing.T) {
	r := New()

	p, err := r.Planner("automata/a", nil)
	require.NoError(t, err)
	assert.Nil(t, p)

	k, err := r.Knowledge("automata/a", nil)
	require.NoError(t, err)
	assert.Nil(t, k)

	refl, err := r.Reflector("automata/a", nil)
	require.NoError(t, err)
	assert.Nil(t, refl)

	v, err := r.Validator("automata/a", nil, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestRegistry_PlannerReceivesResolvedOracle(t *testing.T) {
	r := New()
	scripted := oracle.NewScriptedOracle()
	r.RegisterOracle("scripted", func() (core.Oracle, error) { return scripted, nil })

	var seen core.Oracle
	r.RegisterPlanner("capture", func(rc Context) (core.Planner, error) {
		seen = rc.Oracle
		return func(ctx context.Context, request string, steps []core.Step, reflection []string, def *core.Definition, subDefs map[string]*core.Definition) (core.Action, string, error) {
			return core.Action{AutomatonID: core.TerminalID, Request: request}, "", nil
		}, nil
	})

	p, err := r.Planner("automata/a", &core.ComponentRef{Name: "capture", Oracle: "scripted"})
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Same(t, scripted, seen)
}

func TestRegistry_UnknownPlannerEnumeratesBuiltins(t *testing.T) {
	r := New(WithBuiltins())

	_, err := r.Planner("automata/a", &core.ComponentRef{Name: "nonexistent_planner"})
	var nf *core.CapabilityNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "planner", nf.Kind)
	assert.Equal(t, []string{core.DefaultPlannerName}, nf.Builtins)
}

func TestRegistry_ValidatorRequiresOracleForBuiltins(t *testing.T) {
	r := New(WithBuiltins())

	_, err := r.Validator("automata/a", &core.ComponentRef{Name: "requirements_check"}, []string{"a question"}, nil)
	var confErr *core.ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Contains(t, confErr.Reason, "requires an oracle")
}

func TestRegistry_ValidatorScopedByContract(t *testing.T) {
	r := New()
	r.RegisterOracle("scripted", func() (core.Oracle, error) { return oracle.NewScriptedOracle(), nil })
	constructed := 0
	r.RegisterValidator("accept_all", func(rc Context) (core.Validator, error) {
		constructed++
		return func(ctx context.Context, value string) (bool, string, error) {
			return true, "", nil
		}, nil
	})

	ref := &core.ComponentRef{Name: "accept_all", Oracle: "scripted"}
	_, err := r.Validator("automata/a", ref, []string{"one"}, nil)
	require.NoError(t, err)
	_, err = r.Validator("automata/a", ref, []string{"one"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, constructed)

	// Different requirements are different wiring, not a cache hit.
	_, err = r.Validator("automata/a", ref, []string{"two"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, constructed)
}

func TestRegistry_CustomValidatorNeedsNoOracle(t *testing.T) {
	r := New()
	r.RegisterValidator("a/check", func(rc Context) (core.Validator, error) {
		return func(ctx context.Context, value string) (bool, string, error) {
			return value != "", "value must not be empty", nil
		}, nil
	})

	v, err := r.Validator("automata/a", &core.ComponentRef{Name: "a/check"}, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, v)

	valid, message, err := v(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Equal(t, "value must not be empty", message)
}

func TestRegistry_CustomNamesExcludedFromBuiltinList(t *testing.T) {
	r := New()
	r.RegisterPlanner("thoughtcycle", func(rc Context) (core.Planner, error) { return nil, nil })
	r.RegisterPlanner("a/custom", func(rc Context) (core.Planner, error) { return nil, nil })

	_, err := r.Planner("automata/a", &core.ComponentRef{Name: "mystery"})
	var nf *core.CapabilityNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []string{"thoughtcycle"}, nf.Builtins)
}

func TestRegistry_UnknownRunner(t *testing.T) {
	r := New()
	_, err := r.Runner("a/runner")
	var nf *core.CapabilityNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "runner", nf.Kind)
}

func TestRegistry_RunnerResolution(t *testing.T) {
	r := New()
	r.RegisterRunner("a/echo", func(def *core.Definition, location, requesterID string) (core.Runner, error) {
		return func(ctx context.Context, request string) (string, error) {
			return request, nil
		}, nil
	})

	factory, err := r.Runner("a/echo")
	require.NoError(t, err)
	run, err := factory(&core.Definition{ID: "a"}, "automata", "user")
	require.NoError(t, err)

	out, err := run(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestWithBuiltins_InstallsCapabilitySet(t *testing.T) {
	r := New(WithBuiltins())

	for _, name := range []string{"gpt-4o", "gpt-4o-mini", "claude-sonnet", "claude-haiku"} {
		f, _ := r.oracleFactory(name)
		assert.NotNil(t, f, name)
	}
	pf, _ := r.plannerFactory(core.DefaultPlannerName)
	assert.NotNil(t, pf)
	rf, _ := r.reflectorFactory("history_digest")
	assert.NotNil(t, rf)
	for _, name := range []string{"json_schema", "requirements_check"} {
		vf, _ := r.validatorFactory(name)
		assert.NotNil(t, vf, name)
	}
	for _, name := range []string{"workspace_notes", "oracle_digest"} {
		kf, _ := r.knowledgeFactory(name)
		assert.NotNil(t, kf, name)
	}
}
