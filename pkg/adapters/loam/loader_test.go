package loam

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/atlas/internal/testutils"
	"github.com/aretw0/atlas/pkg/assembler"
	"github.com/aretw0/atlas/pkg/domain"
	"github.com/aretw0/loam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() Tree {
	return Tree{
		Meta: assembler.MetaTemplate{
			Title:   "Atlas",
			Version: "1.2.0",
			RootID:  "start",
			Targets: &domain.Targets{Endings: 1},
		},
		Tokens: domain.Tokens{Chrono: domain.Chrono{
			Start:     3,
			EarnRules: []domain.EarnRule{{Action: "solve", Amount: 2}},
		}},
		Nodes: []domain.Node{
			{
				ID: "start", Title: "Start", Body: "Welcome aboard.",
				Choices: []domain.Choice{
					{ID: "go", Label: "Go", NextID: "skill_a", Grants: []string{"brave"}},
				},
			},
			{
				ID: "skill_a", Title: "Check", Body: "Pick one.", Category: domain.CategorySkillCheck,
				Choices: []domain.Choice{
					{ID: "right", Label: "Right", NextID: "ending_a", Requires: []string{"brave"}, Cost: 1},
				},
				Cinematic: map[string]any{"animation_key": "scan"},
			},
			{ID: "ending_a", Title: "End", Body: "Done.", Choices: []domain.Choice{}, Grants: []string{"finished"}},
		},
	}
}

func TestLoader_SaveLoadRoundTrip(t *testing.T) {
	_, repo := testutils.SetupTestRepo(t, loam.WithVersioning(false), loam.WithForceTemp(false))
	loader := New(loam.NewTypedRepository[NodeMetadata](repo))
	ctx := context.Background()

	in := sampleTree()
	require.NoError(t, loader.Save(ctx, in))

	out, err := loader.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, in.Meta, out.Meta)
	assert.Equal(t, in.Tokens, out.Tokens)
	require.Len(t, out.Nodes, 3)
	for i := range in.Nodes {
		assert.Equal(t, in.Nodes[i].ID, out.Nodes[i].ID, "document order is preserved")
		assert.Equal(t, in.Nodes[i].Choices, out.Nodes[i].Choices)
		assert.Equal(t, in.Nodes[i].Body, out.Nodes[i].Body)
		assert.Equal(t, in.Nodes[i].Category, out.Nodes[i].Category)
		assert.Equal(t, in.Nodes[i].Grants, out.Nodes[i].Grants)
	}
	assert.Equal(t, "scan", out.Nodes[1].AnimationKey())
}

func TestLoader_HandWrittenFiles(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, map[string]string{
		"start.md": `---
title: Start
order: 0
choices:
  - id: go
    label: Go on
    next_id: ending_a
    cost: 2
---
Welcome.`,
		"ending_a.md": `---
title: The End
order: 1
---
Fin.`,
	})

	loader := New(loam.NewTypedRepository[NodeMetadata](repo))
	tree, err := loader.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, tree.Nodes, 2)
	assert.Equal(t, "start", tree.Nodes[0].ID, "id is implied from filename")
	assert.Equal(t, "Welcome.", tree.Nodes[0].Body)
	require.Len(t, tree.Nodes[0].Choices, 1)
	assert.Equal(t, domain.Choice{ID: "go", Label: "Go on", NextID: "ending_a", Cost: 2}, tree.Nodes[0].Choices[0])
	assert.True(t, tree.Nodes[1].IsTerminal())
}

func TestLoader_DetectsCollisions(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, map[string]string{
		"foo.md": `---
id: foo
title: Markdown
---
Explicit ID`,
		"foo.json": `{
  "id": "foo",
  "title": "JSON"
}`,
	})

	loader := New(loam.NewTypedRepository[NodeMetadata](repo))
	_, err := loader.Load(context.Background())

	var dup *domain.DuplicateIDError
	require.True(t, errors.As(err, &dup), "got %v", err)
	assert.Equal(t, "foo", dup.ID)
}

func TestLoader_RejectsUnknownChoiceFields(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, map[string]string{
		"start.md": `---
title: Start
choices:
  - id: go
    label: Go
    next: ending_a
---
Body`,
	})

	loader := New(loam.NewTypedRepository[NodeMetadata](repo))
	_, err := loader.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "choices")
}

func TestTrimExtension(t *testing.T) {
	assert.Equal(t, "start", trimExtension("start.md"))
	assert.Equal(t, "chapter/one", trimExtension("chapter/one.json"))
	assert.Equal(t, "plain", trimExtension("plain"))
}
