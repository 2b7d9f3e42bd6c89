package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarapparition/agent-automata/core"
)

var _ core.Oracle = (*ScriptedOracle)(nil)

func TestScriptedOracle_FirstRegisteredMatchWins(t *testing.T) {
	o := NewScriptedOracle()
	o.AddResponse("draft", "about the draft")
	o.AddResponse("save", "about saving")

	out, err := o.Complete(context.Background(), "please save the draft", nil)
	require.NoError(t, err)
	assert.Equal(t, "about the draft", out)
}

func TestScriptedOracle_DefaultResponse(t *testing.T) {
	o := NewScriptedOracle()
	out, err := o.Complete(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, "Scripted response to: anything", out)
}

func TestScriptedOracle_RecordsCalls(t *testing.T) {
	o := NewScriptedOracle()
	_, err := o.Complete(context.Background(), "first", nil)
	require.NoError(t, err)
	_, err = o.CompleteMessages(context.Background(), []core.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "second"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "be brief\nsecond"}, o.Calls())
}

func TestScriptedOracle_CancelledContext(t *testing.T) {
	o := NewScriptedOracle()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.Complete(ctx, "anything", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
