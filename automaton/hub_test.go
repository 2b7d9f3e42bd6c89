package automaton

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarapparition/agent-automata/core"
	"github.com/solarapparition/agent-automata/internal/testutil"
	"github.com/solarapparition/agent-automata/oracle"
	"github.com/solarapparition/agent-automata/registry"
	"github.com/solarapparition/agent-automata/session"
	"github.com/solarapparition/agent-automata/toolkit"
	"github.com/solarapparition/agent-automata/workspace"
)

// testHub bundles a hub with the test doubles backing it.
type testHub struct {
	hub      *Hub
	scripted *oracle.ScriptedOracle
	recorder *session.MemoryRecorder
	ws       *workspace.Store
}

func newTestHub(t *testing.T, location string) *testHub {
	t.Helper()

	scripted := oracle.NewScriptedOracle()
	r := registry.New(registry.WithBuiltins())
	r.RegisterOracle("scripted", func() (core.Oracle, error) { return scripted, nil })

	recorder := session.NewMemoryRecorder()
	ws := workspace.NewStore(t.TempDir())

	hub := New(location, func(o *Options) {
		o.Registry = r
		o.Recorder = recorder
		o.Workspace = ws
	})
	return &testHub{hub: hub, scripted: scripted, recorder: recorder, ws: ws}
}

func writeLeaf(t *testing.T, location, id, name string) {
	t.Helper()
	testutil.NewDefinitionBuilder(id, name).Write(t, location)
}

func TestHub_BuildIsMemoizedPerEdge(t *testing.T) {
	loc := t.TempDir()
	writeLeaf(t, loc, core.SeedID, "Think")
	th := newTestHub(t, loc)

	first, err := th.hub.Build(core.SeedID, "session-1", "user")
	require.NoError(t, err)
	again, err := th.hub.Build(core.SeedID, "session-1", "user")
	require.NoError(t, err)
	assert.Same(t, first, again)

	// A different requester context is a different delegation edge.
	otherSession, err := th.hub.Build(core.SeedID, "session-2", "user")
	require.NoError(t, err)
	assert.NotSame(t, first, otherSession)

	otherRequester, err := th.hub.Build(core.SeedID, "session-1", "assistant")
	require.NoError(t, err)
	assert.NotSame(t, first, otherRequester)
}

func TestHub_BuildExposesContract(t *testing.T) {
	loc := t.TempDir()
	testutil.NewDefinitionBuilder("quick_answer", "Quick Answer").
		Description("Answers simple questions directly.").
		Requirements("a single question").
		Output("a one-paragraph answer").
		Write(t, loc)
	th := newTestHub(t, loc)

	a, err := th.hub.Build("quick_answer", "session-1", "user")
	require.NoError(t, err)
	assert.Equal(t, "quick_answer", a.ID)
	assert.Equal(t, "Quick Answer", a.Name)
	assert.Equal(t, "Answers simple questions directly.", a.Description)
	assert.Equal(t, []string{"a single question"}, a.InputRequirements)
	assert.Equal(t, "a one-paragraph answer", a.OutputFormat)
}

func TestHub_BuildUnknownDefinition(t *testing.T) {
	th := newTestHub(t, t.TempDir())
	_, err := th.hub.Build("missing", "session-1", "user")
	assert.ErrorIs(t, err, core.ErrDefinitionNotFound)
}

func TestHub_BuildUnknownPlannerFailsBeforeAnyRun(t *testing.T) {
	loc := t.TempDir()
	testutil.NewDefinitionBuilder("assistant", "Assistant").
		Runner(core.RunnerCoreAutomaton).
		Planner("nonexistent_planner", "scripted").
		SubAutomata(core.SeedID, core.TerminalID).
		Write(t, loc)
	writeLeaf(t, loc, core.SeedID, "Think")
	writeLeaf(t, loc, core.TerminalID, "Finalize Reply")
	th := newTestHub(t, loc)

	_, err := th.hub.Build("assistant", "session-1", "user")
	var nf *core.CapabilityNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "planner", nf.Kind)
	assert.Equal(t, "nonexistent_planner", nf.Name)

	// Nothing ran, so nothing was recorded.
	assert.Empty(t, th.recorder.AllEvents("assistant"))
	assert.Empty(t, th.scripted.Calls())
}

func TestHub_RunRecordsToBothLogs(t *testing.T) {
	loc := t.TempDir()
	writeLeaf(t, loc, core.SeedID, "Think")
	th := newTestHub(t, loc)

	a, err := th.hub.Build(core.SeedID, "requester-session", "user")
	require.NoError(t, err)
	out, err := a.Run(context.Background(), "remember the draft")
	require.NoError(t, err)
	assert.Equal(t, "remember the draft", out)

	own := th.recorder.AllEvents(core.SeedID)
	require.Len(t, own, 1)
	requester := th.recorder.Events("user", "requester-session")
	require.Len(t, requester, 1)

	// The identical event lands in both logs.
	assert.Equal(t, own[0], requester[0])
	assert.Equal(t, "user", own[0].Requester)
	assert.Equal(t, core.SeedID, own[0].SubAutomatonID)
	assert.Equal(t, "remember the draft", own[0].Input)
	assert.Equal(t, "remember the draft", own[0].Result)
}

func TestHub_CustomRunner(t *testing.T) {
	loc := t.TempDir()
	testutil.NewDefinitionBuilder("shout", "Shout").
		Runner("shout/upper").
		Write(t, loc)
	th := newTestHub(t, loc)

	th.hub.Registry().RegisterRunner("shout/upper", func(def *core.Definition, location, requesterID string) (core.Runner, error) {
		return func(ctx context.Context, request string) (string, error) {
			return request + "!", nil
		}, nil
	})

	out, err := th.hub.Run(context.Background(), "shout", "user", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello!", out)
}

func TestHub_RunnerErrorBecomesResultText(t *testing.T) {
	loc := t.TempDir()
	testutil.NewDefinitionBuilder("prober", "Prober").
		Runner("prober/fail").
		Write(t, loc)
	th := newTestHub(t, loc)

	th.hub.Registry().RegisterRunner("prober/fail", func(def *core.Definition, location, requesterID string) (core.Runner, error) {
		return func(ctx context.Context, request string) (string, error) {
			return "", errors.New("boom")
		}, nil
	})

	a, err := th.hub.Build("prober", "requester-session", "user")
	require.NoError(t, err)
	out, err := a.Run(context.Background(), "try it")
	require.NoError(t, err)
	assert.Equal(t, "Sub-automaton `Prober` encountered an error: boom", out)

	// The failure is still an audited run.
	events := th.recorder.Events("user", "requester-session")
	require.Len(t, events, 1)
	assert.Equal(t, out, events[0].Result)
}

func TestHub_FatalErrorEscapesRun(t *testing.T) {
	loc := t.TempDir()
	testutil.NewDefinitionBuilder("prober", "Prober").
		Runner("prober/fatal").
		Write(t, loc)
	th := newTestHub(t, loc)

	th.hub.Registry().RegisterRunner("prober/fatal", func(def *core.Definition, location, requesterID string) (core.Runner, error) {
		return func(ctx context.Context, request string) (string, error) {
			return "", core.NewConfigurationError("broken wiring")
		}, nil
	})

	a, err := th.hub.Build("prober", "requester-session", "user")
	require.NoError(t, err)
	_, err = a.Run(context.Background(), "try it")
	var confErr *core.ConfigurationError
	require.ErrorAs(t, err, &confErr)

	// Configuration faults are not ordinary outcomes; no event is written.
	assert.Empty(t, th.recorder.AllEvents("prober"))
}

func TestHub_InterruptionBecomesStandInResult(t *testing.T) {
	loc := t.TempDir()
	writeLeaf(t, loc, core.SeedID, "Think")
	th := newTestHub(t, loc)

	a, err := th.hub.Build(core.SeedID, "requester-session", "user")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := a.Run(ctx, "remember the draft")
	require.NoError(t, err)
	assert.Equal(t, "Sub-automaton `Think` took too long to process and was manually stopped.", out)

	// The interrupted run still leaves its audit trail.
	events := th.recorder.Events("user", "requester-session")
	require.Len(t, events, 1)
	assert.Equal(t, out, events[0].Result)
}

func TestHub_ValidationShortCircuit(t *testing.T) {
	loc := t.TempDir()
	schema := `{"type": "object", "required": ["file_name", "content"]}`
	testutil.NewDefinitionBuilder("prober", "Prober").
		Runner("prober/count").
		Validator("json_schema", "scripted").
		Requirements(schema).
		Write(t, loc)
	th := newTestHub(t, loc)

	entered := 0
	th.hub.Registry().RegisterRunner("prober/count", func(def *core.Definition, location, requesterID string) (core.Runner, error) {
		return func(ctx context.Context, request string) (string, error) {
			entered++
			return "ran", nil
		}, nil
	})

	a, err := th.hub.Build("prober", "requester-session", "user")
	require.NoError(t, err)

	out, err := a.Run(context.Background(), "not even json")
	require.NoError(t, err)
	assert.Contains(t, out, "valid JSON")
	assert.Equal(t, 0, entered)

	// The rejection is recorded as the run's result.
	events := th.recorder.Events("user", "requester-session")
	require.Len(t, events, 1)
	assert.Equal(t, out, events[0].Result)

	out, err = a.Run(context.Background(), `{"file_name": "a.txt", "content": "hi"}`)
	require.NoError(t, err)
	assert.Equal(t, "ran", out)
	assert.Equal(t, 1, entered)
}

func TestHub_MissingAssistantOracleFailsBuild(t *testing.T) {
	loc := t.TempDir()
	testutil.NewDefinitionBuilder(toolkit.LLMAssistantID, "LLM Assistant").Write(t, loc)
	th := newTestHub(t, loc)

	_, err := th.hub.Build(toolkit.LLMAssistantID, "session-1", "user")
	var confErr *core.ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Contains(t, confErr.Reason, "extra_args")
}
