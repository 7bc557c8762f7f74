package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/proofweave"
	"github.com/aretw0/proofweave/pkg/adapters/starlark"
	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng, err := proofweave.New(proofweave.WithOwnedEvaluator(starlark.New()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return NewServer(eng)
}

func TestServer_ListsTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	initResp := s.mcpServer.HandleMessage(ctx, []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`))
	require.NotNil(t, initResp)

	resp := s.mcpServer.HandleMessage(ctx, []byte(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	for _, name := range []string{"get_graph", "apply_tactic", "remove_edge", "reset_proof", "load_problem", "get_script", "run_proof", "list_tactics"} {
		assert.Contains(t, string(raw), `"`+name+`"`)
	}
}

func TestServer_ProofSession(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	loaded, err := s.handleLoadProblem(ctx, req, LoadProblemArgs{SessionID: "s1", ProblemID: "case-split"})
	require.NoError(t, err)
	require.Len(t, loaded.OpenGoals, 1)
	assert.Equal(t, "s1", loaded.SessionID)
	assert.False(t, loaded.Complete)

	split, err := s.handleApplyTactic(ctx, req, ApplyTacticArgs{SessionID: "s1", NodeID: loaded.OpenGoals[0], Tactic: "Cases(h1)"})
	require.NoError(t, err)
	require.Len(t, split.OpenGoals, 2)
	require.NotNil(t, split.Outcome)
	assert.Empty(t, split.Outcome.Error)

	state := split
	for range 2 {
		state, err = s.handleApplyTactic(ctx, req, ApplyTacticArgs{SessionID: "s1", NodeID: state.OpenGoals[0], Tactic: "Linarith()"})
		require.NoError(t, err)
	}
	assert.True(t, state.Complete)
	assert.Empty(t, state.OpenGoals)
	assert.True(t, state.Outcome.ProofComplete)

	var casesEdge string
	for _, e := range state.Edges {
		if e.Tactic == "Cases(h1)" {
			casesEdge = e.ID
		}
	}
	require.NotEmpty(t, casesEdge)

	removed, err := s.handleRemoveEdge(ctx, req, RemoveEdgeArgs{SessionID: "s1", EdgeID: casesEdge})
	require.NoError(t, err)
	assert.Len(t, removed.OpenGoals, 1)
	assert.False(t, removed.Complete)
}

func TestServer_Errors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	_, err := s.handleApplyTactic(ctx, req, ApplyTacticArgs{NodeID: "nope", Tactic: "Linarith()"})
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)

	_, err = s.handleApplyTactic(ctx, req, ApplyTacticArgs{NodeID: "x"})
	assert.Error(t, err)

	_, err = s.handleRemoveEdge(ctx, req, RemoveEdgeArgs{EdgeID: "nope"})
	assert.ErrorIs(t, err, domain.ErrEdgeNotFound)

	_, err = s.handleLoadProblem(ctx, req, LoadProblemArgs{ProblemID: "nope"})
	assert.ErrorIs(t, err, domain.ErrProblemNotFound)
}

func TestServer_ScriptAndReset(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	graph, err := s.handleGetGraph(ctx, mcp.CallToolRequest{}, SessionArgs{})
	require.NoError(t, err)
	assert.Equal(t, DefaultSession, graph.SessionID)

	_, err = s.handleApplyTactic(ctx, mcp.CallToolRequest{}, ApplyTacticArgs{NodeID: graph.OpenGoals[0], Tactic: "SplitGoal()"})
	require.NoError(t, err)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"session_id": DefaultSession}
	res, err := s.handleGetScript(ctx, req)
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "p.use(SplitGoal());")

	reset, err := s.handleReset(ctx, req, SessionArgs{})
	require.NoError(t, err)
	assert.Len(t, reset.OpenGoals, 1)

	ran, err := s.handleRun(ctx, req, SessionArgs{})
	require.NoError(t, err)
	require.NotNil(t, ran.Outcome)
	assert.False(t, ran.Outcome.ProofComplete)
}
