package atlas_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/atlas"
	"github.com/aretw0/atlas/pkg/validator"
	"github.com/aretw0/atlas/pkg/adapters/file"
	"github.com/aretw0/atlas/pkg/adapters/sqlite"
	"github.com/aretw0/atlas/pkg/blueprint"
	"github.com/aretw0/atlas/pkg/content"
	"github.com/aretw0/atlas/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) }

const smallBlueprint = `
meta:
  title: Small
  version: "1.0.0"
  root_id: start
tokens:
  chrono:
    start: 1
    earn_rules:
      - {action: solve, amount: 1}
sections:
  - group:
      name: story
      nodes:
        - id: start
          title: Start
          body_md: Begin.
          choices:
            - {id: go, label: Go, next_id: ending_a}
        - id: ending_a
          title: End
          body_md: Done.
          category: ending
          choices: []
`

func TestEngine_Build_Default(t *testing.T) {
	bp, err := content.Default()
	require.NoError(t, err)

	res, err := atlas.New(atlas.WithClock(epoch)).Build(context.Background(), bp)
	require.NoError(t, err)

	assert.Equal(t, "2025-03-01T09:30:00.000000Z", res.Document.Meta.UpdatedUTC)
	assert.Equal(t, 51, res.Summary.TotalNodes)
	assert.True(t, res.Report.Clean())
	assert.Nil(t, res.Record)
}

func TestEngine_Build_Idempotent(t *testing.T) {
	bp, err := blueprint.Parse([]byte(smallBlueprint), blueprint.FormatYAML)
	require.NoError(t, err)
	eng := atlas.New(atlas.WithClock(epoch))

	a, err := eng.Build(context.Background(), bp)
	require.NoError(t, err)
	b, err := eng.Build(context.Background(), bp)
	require.NoError(t, err)

	ea, err := file.Encode(a.Document)
	require.NoError(t, err)
	eb, err := file.Encode(b.Document)
	require.NoError(t, err)
	assert.Equal(t, string(ea), string(eb))
}

func TestEngine_Build_Dangling(t *testing.T) {
	bp, err := blueprint.Parse([]byte(smallBlueprint), blueprint.FormatYAML)
	require.NoError(t, err)
	bp.Sections[0].Group.Nodes[0].Choices[0].NextID = "nowhere"

	res, err := atlas.New().Build(context.Background(), bp)
	assert.Nil(t, res)

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	var dangling *domain.DanglingReferenceError
	require.True(t, errors.As(err, &dangling))
	assert.Equal(t, "nowhere", dangling.Target)
}

func TestEngine_Build_Archive(t *testing.T) {
	archive, err := sqlite.Open(filepath.Join(t.TempDir(), "atlas.db"))
	require.NoError(t, err)
	defer archive.Close()

	bp, err := blueprint.Parse([]byte(smallBlueprint), blueprint.FormatYAML)
	require.NoError(t, err)
	eng := atlas.New(atlas.WithArchive(archive))

	first, err := eng.Build(context.Background(), bp)
	require.NoError(t, err)
	require.NotNil(t, first.Record)
	assert.False(t, first.Record.Unchanged)

	second, err := eng.Build(context.Background(), bp)
	require.NoError(t, err)
	assert.True(t, second.Record.Unchanged, "rebuild with identical content")

	list, err := archive.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestEngine_Merge(t *testing.T) {
	chunks := []file.Chunk{
		{Name: "narrative_tree_chunk1.json", Document: &domain.Document{
			Meta:   domain.Meta{Title: "Merged", Version: "1"},
			RootID: "start",
			Nodes: []domain.Node{{ID: "start", Title: "S", Body: "b",
				Choices: []domain.Choice{{ID: "go", Label: "Go", NextID: "ending_a"}}}},
		}},
		{Name: "narrative_tree_chunk2.json", Document: &domain.Document{
			Nodes: []domain.Node{{ID: "ending_a", Title: "E", Body: "b", Choices: []domain.Choice{}}},
		}},
	}

	res, stats, err := atlas.New().Merge(context.Background(), chunks)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Document.Meta.TotalNodes)
	assert.Equal(t, 1, res.Document.Meta.Endings)
	require.Len(t, stats, 2)
	assert.Equal(t, 1, stats[0].Links)
}

func TestEngine_ExportImport(t *testing.T) {
	bp, err := blueprint.Parse([]byte(smallBlueprint), blueprint.FormatYAML)
	require.NoError(t, err)
	eng := atlas.New(atlas.WithClock(epoch))
	ctx := context.Background()

	built, err := eng.Build(ctx, bp)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, eng.Export(ctx, built.Document, dir))

	imported, err := eng.Import(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, built.Document.RootID, imported.Document.RootID)
	assert.Equal(t, built.Document.Meta, imported.Document.Meta)
	require.Len(t, imported.Document.Nodes, len(built.Document.Nodes))
	assert.Empty(t, imported.Report.OfKind(domain.KindNodeShape))

	for i, want := range built.Document.Nodes {
		got := imported.Document.Nodes[i]
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Title, got.Title)
		assert.Equal(t, want.Body, got.Body, "body of %s", want.ID)
		require.Len(t, got.Choices, len(want.Choices), "choices of %s", want.ID)
		for j, c := range want.Choices {
			assert.Equal(t, c.ID, got.Choices[j].ID)
			assert.Equal(t, c.Label, got.Choices[j].Label)
			assert.Equal(t, c.NextID, got.Choices[j].NextID)
		}
	}
}

func TestEngine_Validate_WithOptions(t *testing.T) {
	doc := &domain.Document{
		RootID: "start",
		Nodes: []domain.Node{
			{ID: "start", Title: "S", Body: "b", Choices: []domain.Choice{{ID: "go", Label: "Go", NextID: "ending_a"}}},
			{ID: "ending_a", Title: "E", Body: "b", Choices: []domain.Choice{}},
		},
	}
	eng := atlas.New(atlas.WithValidatorOptions(validator.WithRequiredFlags("hero")))

	rep := eng.Validate(doc, validator.WithRequiredAnimations("fade"))
	assert.True(t, rep.OK())
	assert.Len(t, rep.OfKind(domain.KindMissingFlag), 1)
	assert.Len(t, rep.OfKind(domain.KindMissingAnimation), 1)
}
