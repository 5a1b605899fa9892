package merge

import (
	"errors"
	"testing"

	"github.com/aretw0/atlas/pkg/adapters/file"
	"github.com/aretw0/atlas/pkg/assembler"
	"github.com/aretw0/atlas/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string, next ...string) domain.Node {
	n := domain.Node{ID: id, Title: id, Body: id, Choices: []domain.Choice{}}
	for _, to := range next {
		n.Choices = append(n.Choices, domain.Choice{ID: id + "_to_" + to, Label: to, NextID: to})
	}
	return n
}

func chunks() []file.Chunk {
	return []file.Chunk{
		{Name: "narrative_tree_chunk1.json", Document: &domain.Document{
			Meta:   domain.Meta{Title: "Atlas", Version: "2.0.0", TotalNodes: 99},
			RootID: "start",
			Tokens: domain.Tokens{Chrono: domain.Chrono{Start: 3}},
			Nodes:  []domain.Node{node("start", "mid"), node("mid", "ending_a")},
		}},
		{Name: "narrative_tree_chunk2.json", Document: &domain.Document{
			Meta:   domain.Meta{Title: "ignored"},
			RootID: "",
			Nodes:  []domain.Node{node("ending_a")},
		}},
	}
}

func TestChunks_MergesInOrder(t *testing.T) {
	res, err := Chunks(chunks())
	require.NoError(t, err)

	ids := make([]string, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"start", "mid", "ending_a"}, ids)
	assert.Equal(t, "start", res.Meta.RootID)
	assert.Equal(t, "Atlas", res.Meta.Title)
	assert.Equal(t, 3, res.Tokens.Chrono.Start)

	require.Len(t, res.Chunks, 2)
	assert.Equal(t, 1, res.Chunks[0].Links, "mid -> ending_a crosses chunks")
	assert.Equal(t, 1, res.Chunks[1].Tally.Endings)
}

func TestChunks_AssemblesAcrossBoundaries(t *testing.T) {
	res, err := Chunks(chunks())
	require.NoError(t, err)

	doc, rep, err := assembler.Assemble(res.Nodes, res.Meta, res.Tokens)
	require.NoError(t, err)
	assert.True(t, rep.OK())
	assert.Equal(t, 3, doc.Meta.TotalNodes, "declared chunk counts are recomputed")
}

func TestChunks_DuplicatesAreReportedNotRenamed(t *testing.T) {
	cs := chunks()
	cs[1].Document.Nodes = append(cs[1].Document.Nodes, node("mid"), node("start"))

	res, err := Chunks(cs)
	assert.Nil(t, res)

	var be *domain.BuildError
	require.True(t, errors.As(err, &be))
	require.Len(t, be.Errors, 2)

	var dup *domain.DuplicateIDError
	require.True(t, errors.As(be.Errors[0], &dup))
	assert.Equal(t, "mid", dup.ID)
	assert.Equal(t, "narrative_tree_chunk1.json#nodes[1]", dup.First)
	assert.Equal(t, "narrative_tree_chunk2.json#nodes[1]", dup.Second)
}

func TestChunks_NoRoot(t *testing.T) {
	cs := chunks()
	cs[0].Document.RootID = ""

	_, err := Chunks(cs)
	var missing *domain.MissingRootError
	assert.True(t, errors.As(err, &missing))
}

func TestChunks_Empty(t *testing.T) {
	_, err := Chunks(nil)
	assert.ErrorIs(t, err, domain.ErrEmptyGraph)
}
