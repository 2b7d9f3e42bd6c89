package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarapparition/agent-automata/core"
	"github.com/solarapparition/agent-automata/oracle"
)

func testDefs() (*core.Definition, map[string]*core.Definition) {
	def := &core.Definition{
		ID:          "assistant",
		Name:        "Assistant",
		SubAutomata: []string{core.SeedID, "save_text", core.TerminalID},
	}
	subDefs := map[string]*core.Definition{
		core.SeedID: {
			ID:          core.SeedID,
			Name:        "Think",
			Description: "Seeds the next reflection.",
		},
		"save_text": {
			ID:          "save_text",
			Name:        "Save Text",
			Description: "Saves text to a file.",
			Input:       core.InputSpec{Requirements: []string{"a JSON object with file_name and content"}},
		},
		core.TerminalID: {
			ID:          core.TerminalID,
			Name:        "Finalize Reply",
			Description: "Reports the result back to the requester.",
		},
	}
	return def, subDefs
}

func TestParseAction(t *testing.T) {
	raw := "Thought: the file should be saved now\n" +
		"Next Action: save the draft\n" +
		"Sub-Automaton Name: \"Save Text\"\n" +
		"Sub-Automaton Input Requirements: a JSON object with file_name and content\n" +
		"Sub-Automaton Input: {\"file_name\": \"draft.txt\", \"content\": \"hello\"}"

	name, request, ok := ParseAction(raw)
	require.True(t, ok)
	assert.Equal(t, "Save Text", name)
	assert.Equal(t, `{"file_name": "draft.txt", "content": "hello"}`, request)
}

func TestParseAction_NumberedLabels(t *testing.T) {
	raw := "Sub-Automaton Name 2: Finalize Reply\n" +
		"Sub-Automaton 2 Input Requirements 2: none\n" +
		"Sub-Automaton 2 Input 2: all done."

	name, request, ok := ParseAction(raw)
	require.True(t, ok)
	assert.Equal(t, "Finalize Reply", name)
	assert.Equal(t, "all done", request)
}

func TestParseAction_Incomplete(t *testing.T) {
	_, _, ok := ParseAction("Thought: I should think about this more")
	assert.False(t, ok)
}

func TestThoughtcycle_RequiresOracle(t *testing.T) {
	_, err := NewThoughtcycle(nil)
	var confErr *core.ConfigurationError
	require.ErrorAs(t, err, &confErr)
}

func TestThoughtcycle_ParsesPlannedAction(t *testing.T) {
	scripted := oracle.NewScriptedOracle()
	scripted.AddResponse("Assistant", "Next Action: save the draft\n"+
		"Sub-Automaton Name: \"Save Text\"\n"+
		"Sub-Automaton Input Requirements: a JSON object with file_name and content\n"+
		"Sub-Automaton Input: {\"file_name\": \"draft.txt\", \"content\": \"hello\"}")

	plan, err := NewThoughtcycle(scripted)
	require.NoError(t, err)

	def, subDefs := testDefs()
	action, planText, err := plan(context.Background(), "save the draft", nil, nil, def, subDefs)
	require.NoError(t, err)

	assert.Equal(t, "save_text", action.AutomatonID)
	assert.Equal(t, `{"file_name": "draft.txt", "content": "hello"}`, action.Request)
	assert.Contains(t, planText, "Save Text")
}

func TestThoughtcycle_UnparseableDefaultsToSeed(t *testing.T) {
	scripted := oracle.NewScriptedOracle()
	scripted.AddResponse("Assistant", "I am not sure what to do next.")

	plan, err := NewThoughtcycle(scripted)
	require.NoError(t, err)

	def, subDefs := testDefs()
	action, planText, err := plan(context.Background(), "save the draft", nil, nil, def, subDefs)
	require.NoError(t, err)

	// The corrective default keeps the loop moving instead of failing it.
	assert.Equal(t, core.SeedID, action.AutomatonID)
	assert.Contains(t, action.Request, "thoughtcycle_format")
	assert.Equal(t, "I am not sure what to do next.", planText)
}

func TestThoughtcycle_UnknownNameDefaultsToSeed(t *testing.T) {
	scripted := oracle.NewScriptedOracle()
	scripted.AddResponse("Assistant", "Sub-Automaton Name: \"Delete Everything\"\n"+
		"Sub-Automaton Input Requirements: none\n"+
		"Sub-Automaton Input: go")

	plan, err := NewThoughtcycle(scripted)
	require.NoError(t, err)

	def, subDefs := testDefs()
	action, _, err := plan(context.Background(), "save the draft", nil, nil, def, subDefs)
	require.NoError(t, err)

	assert.Equal(t, core.SeedID, action.AutomatonID)
	assert.Equal(t, `The Sub-Automaton Name must be one of the following: "Finalize Reply", "Save Text", "Think"`, action.Request)
}

func TestThoughtcycle_RequiresSeedSubAutomaton(t *testing.T) {
	plan, err := NewThoughtcycle(oracle.NewScriptedOracle())
	require.NoError(t, err)

	def, subDefs := testDefs()
	delete(subDefs, core.SeedID)
	_, _, err = plan(context.Background(), "save the draft", nil, nil, def, subDefs)
	var confErr *core.ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Contains(t, confErr.Reason, core.SeedID)
}

func TestThoughtcycle_PromptCarriesHistoryAndStops(t *testing.T) {
	scripted := oracle.NewScriptedOracle()
	plan, err := NewThoughtcycle(scripted)
	require.NoError(t, err)

	def, subDefs := testDefs()
	steps := []core.Step{{
		PlanText: "Sub-Automaton Name: \"Save Text\"\nSub-Automaton Input Requirements: none\nSub-Automaton Input: draft",
		Action:   core.Action{AutomatonID: "save_text", Request: "draft"},
		Result:   "Save Text: saved file to `user/draft.txt`",
	}}
	_, _, err = plan(context.Background(), "save the draft", steps, []string{"the draft exists"}, def, subDefs)
	require.NoError(t, err)

	calls := scripted.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], "save the draft")
	assert.Contains(t, calls[0], "Save Text: saved file to `user/draft.txt`")
	assert.Contains(t, calls[0], "the draft exists")
	assert.Contains(t, calls[0], `"Finalize Reply", "Save Text", "Think"`)
}
