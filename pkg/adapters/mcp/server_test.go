package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/atlas/pkg/adapters/memory"
	"github.com/aretw0/atlas/pkg/domain"
	"github.com/aretw0/atlas/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc() *domain.Document {
	return &domain.Document{
		Meta:   domain.Meta{Title: "Atlas", Version: "1.0.0", TotalNodes: 2, Endings: 1},
		RootID: "start",
		Tokens: domain.Tokens{Chrono: domain.Chrono{Start: 1}},
		Nodes: []domain.Node{
			{ID: "start", Title: "Start", Body: "Go", Choices: []domain.Choice{{ID: "go", Label: "Go", NextID: "ending_a"}}},
			{ID: "ending_a", Title: "End", Body: "Done", Choices: []domain.Choice{}},
		},
	}
}

func newTestServer() *Server {
	return NewServer(memory.NewStore(testDoc()), "test", WithLocker(memory.NewLocker()))
}

func TestHandleValidate(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	view, err := s.handleValidate(ctx, mcp.CallToolRequest{}, ValidateArgs{})
	require.NoError(t, err)
	assert.True(t, view.OK)
	assert.Equal(t, 2, view.Tally.Total)

	broken := testDoc()
	broken.RootID = "nowhere"
	data, err := json.Marshal(broken)
	require.NoError(t, err)

	view, err = s.handleValidate(ctx, mcp.CallToolRequest{}, ValidateArgs{Document: string(data)})
	require.NoError(t, err)
	assert.False(t, view.OK)
	kinds := make([]domain.Kind, 0, len(view.Violations))
	for _, v := range view.Violations {
		kinds = append(kinds, v.Kind)
	}
	assert.Contains(t, kinds, domain.KindMissingRoot)

	_, err = s.handleValidate(ctx, mcp.CallToolRequest{}, ValidateArgs{Document: "{"})
	assert.Error(t, err)
}

func TestHandleVisit(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	first, err := s.handleVisit(ctx, mcp.CallToolRequest{}, VisitArgs{})
	require.NoError(t, err)
	assert.Equal(t, "start", first.State.Current)
	require.Len(t, first.Available, 1)

	state, err := json.Marshal(first.State)
	require.NoError(t, err)
	next, err := s.handleVisit(ctx, mcp.CallToolRequest{}, VisitArgs{State: string(state), ChoiceID: "go"})
	require.NoError(t, err)
	assert.True(t, next.Terminal)

	_, err = s.handleVisit(ctx, mcp.CallToolRequest{}, VisitArgs{State: string(state), ChoiceID: "nope"})
	assert.Error(t, err)
}

func TestLockTools(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	got, err := s.handleLockAcquire(ctx, mcp.CallToolRequest{}, LockArgs{Agent: "writer", Operation: "edit chapter 2"})
	require.NoError(t, err)
	assert.True(t, got.Locked)
	assert.Equal(t, "writer", got.Holder.Agent)

	_, err = s.handleLockAcquire(ctx, mcp.CallToolRequest{}, LockArgs{Agent: "reviewer"})
	assert.ErrorIs(t, err, ports.ErrLocked)

	_, err = s.handleLockRelease(ctx, mcp.CallToolRequest{}, LockArgs{Agent: "reviewer"})
	assert.ErrorIs(t, err, ports.ErrNotOwner)

	got, err = s.handleLockRelease(ctx, mcp.CallToolRequest{}, LockArgs{Agent: "reviewer", Force: true})
	require.NoError(t, err)
	assert.False(t, got.Locked)

	_, err = s.handleLockAcquire(ctx, mcp.CallToolRequest{}, LockArgs{})
	assert.Error(t, err)
}
