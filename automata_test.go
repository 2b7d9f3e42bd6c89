package agentautomata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarapparition/agent-automata/core"
	"github.com/solarapparition/agent-automata/internal/testutil"
	"github.com/solarapparition/agent-automata/session"
)

func TestAutomata_RunLeaf(t *testing.T) {
	loc := t.TempDir()
	testutil.NewDefinitionBuilder(core.SeedID, "Think").Write(t, loc)

	recorder := session.NewMemoryRecorder()
	a := New(loc, func(o *Options) {
		o.Recorder = recorder
	})

	out, err := a.Run(context.Background(), core.SeedID, "user", "note the draft")
	require.NoError(t, err)
	assert.Equal(t, "note the draft", out)
	assert.Len(t, recorder.AllEvents(core.SeedID), 1)
	assert.Len(t, recorder.AllEvents("user"), 1)
}

func TestAutomata_BuildFreshEdges(t *testing.T) {
	loc := t.TempDir()
	testutil.NewDefinitionBuilder(core.SeedID, "Think").Write(t, loc)

	a := New(loc)
	first, err := a.Build(core.SeedID, "user")
	require.NoError(t, err)
	second, err := a.Build(core.SeedID, "user")
	require.NoError(t, err)

	// Each Build is a fresh top-level edge with its own session.
	assert.NotSame(t, first, second)
}

func TestAutomata_ExposesRegistry(t *testing.T) {
	a := New(t.TempDir())
	assert.NotNil(t, a.Registry())
	assert.Same(t, a.Hub().Registry(), a.Registry())
}
