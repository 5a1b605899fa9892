package validator

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"testing"

	"github.com/aretw0/atlas/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string, next ...string) domain.Node {
	n := domain.Node{ID: id, Title: id, Body: "body of " + id, Choices: []domain.Choice{}}
	for i, target := range next {
		n.Choices = append(n.Choices, domain.Choice{
			ID:     fmt.Sprintf("c%d", i),
			Label:  "to " + target,
			NextID: target,
		})
	}
	return n
}

func document(root string, nodes ...domain.Node) *domain.Document {
	t := domain.Count(nodes)
	return &domain.Document{
		Meta: domain.Meta{
			Title:           "test",
			TotalNodes:      t.Total,
			Endings:         t.Endings,
			GoldenPathNodes: t.GoldenPathNodes,
			SkillChecks:     t.SkillChecks,
			BranchingPoints: t.BranchingPoints,
		},
		RootID: root,
		Nodes:  nodes,
	}
}

func TestValidate_ValidGraph(t *testing.T) {
	doc := document("start",
		node("start", "a"),
		node("a", "b"),
		node("b"),
	)

	r := Validate(doc)
	assert.True(t, r.Clean(), "unexpected violations: %v", r.Violations)
	assert.NoError(t, r.Err())
	assert.Len(t, r.Reachable, 3)
	assert.Equal(t, 1, r.Tally.Endings)
}

func TestValidate_SingleTerminalRoot(t *testing.T) {
	doc := document("start", node("start"))

	r := Validate(doc)
	require.True(t, r.OK())
	assert.Equal(t, 1, r.Tally.Endings)
	assert.Empty(t, r.Unreachable())
	assert.True(t, r.Clean())
}

func TestValidate_DanglingReference(t *testing.T) {
	doc := document("start",
		node("start", "missing_node"),
	)

	r := Validate(doc)
	dangling := r.OfKind(domain.KindDanglingReference)
	require.Len(t, dangling, 1)

	d := dangling[0].(*domain.DanglingReferenceError)
	assert.Equal(t, "start", d.NodeID)
	assert.Equal(t, "c0", d.ChoiceID)
	assert.Equal(t, "missing_node", d.Target)

	assert.False(t, r.OK())
	var target *domain.DanglingReferenceError
	assert.True(t, errors.As(r.Err(), &target))
}

func TestValidate_DuplicateIDs(t *testing.T) {
	doc := document("start",
		node("start", "end"),
		node("end"),
		node("start"),
	)

	r := Validate(doc)
	dups := r.OfKind(domain.KindDuplicateID)
	require.Len(t, dups, 1)
	d := dups[0].(*domain.DuplicateIDError)
	assert.Equal(t, "nodes[0]", d.First)
	assert.Equal(t, "nodes[2]", d.Second)
}

func TestValidate_MissingRoot(t *testing.T) {
	tests := []struct {
		name string
		root string
	}{
		{"unset", ""},
		{"unknown", "nowhere"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Validate(document(tt.root, node("start")))
			roots := r.OfKind(domain.KindMissingRoot)
			require.Len(t, roots, 1)
			assert.Equal(t, tt.root, roots[0].(*domain.MissingRootError).RootID)
			assert.Empty(t, r.Unreachable(), "reachability is skipped without a root")
		})
	}
}

func TestValidate_CollectsEverything(t *testing.T) {
	doc := document("start",
		node("start", "ghost_a", "a"),
		node("a", "ghost_b"),
		node("orphan"),
		node("a"),
	)

	r := Validate(doc)
	assert.Len(t, r.OfKind(domain.KindDanglingReference), 2)
	assert.Len(t, r.OfKind(domain.KindDuplicateID), 1)
	assert.Equal(t, []string{"orphan"}, r.Unreachable())

	var agg *domain.ValidationError
	require.True(t, errors.As(r.Err(), &agg))
	assert.Len(t, agg.Violations, 3)
}

func TestValidate_MetadataMismatchIsWarning(t *testing.T) {
	doc := document("start", node("start", "end"), node("end"))
	doc.Meta.Endings = 15
	doc.Meta.TotalNodes = 0
	doc.Meta.Targets = &domain.Targets{SkillChecks: 25}

	r := Validate(doc)
	assert.True(t, r.OK())

	mismatches := r.OfKind(domain.KindMetadataMismatch)
	require.Len(t, mismatches, 3)
	fields := map[string]*domain.MetadataMismatchError{}
	for _, v := range mismatches {
		m := v.(*domain.MetadataMismatchError)
		fields[m.Field] = m
	}
	assert.Equal(t, 15, fields["endings"].Declared)
	assert.Equal(t, 1, fields["endings"].Actual)
	assert.Equal(t, 2, fields["total_nodes"].Actual)
	assert.Equal(t, 25, fields["targets.skill_checks"].Declared)
}

func TestValidate_ChoiceShape(t *testing.T) {
	start := node("start", "end")
	start.Choices = append(start.Choices,
		domain.Choice{ID: "c0", Label: "dup", NextID: "end"},
		domain.Choice{ID: "", Label: "", NextID: ""},
		domain.Choice{ID: "neg", Label: "neg", NextID: "end", Cost: -2},
	)
	doc := document("start", start, node("end"))

	r := Validate(doc)
	shapes := r.OfKind(domain.KindChoiceShape)

	var problems []string
	for _, v := range shapes {
		problems = append(problems, v.(*domain.ChoiceShapeError).Problem)
	}
	assert.ElementsMatch(t, []string{
		"duplicate choice id",
		"missing id",
		"missing label",
		"missing next_id",
		"negative cost -2",
	}, problems)
	assert.False(t, r.OK())
	assert.Empty(t, r.OfKind(domain.KindDanglingReference))
}

func TestValidate_NodeShapeIsWarning(t *testing.T) {
	doc := document("start", domain.Node{ID: "start", Category: "villain"})

	r := Validate(doc)
	assert.True(t, r.OK())
	assert.Len(t, r.OfKind(domain.KindNodeShape), 3)
}

func TestValidate_TokenEconomy(t *testing.T) {
	start := node("start", "end")
	start.Choices[0].Cost = 9
	doc := document("start", start, node("end"))
	doc.Tokens = domain.Tokens{Chrono: domain.Chrono{
		Start: 3,
		EarnRules: []domain.EarnRule{
			{Action: "complete_skill_check", Amount: 1},
			{Action: "discover_new_path", Amount: 2},
		},
	}}

	r := Validate(doc)
	assert.Equal(t, 6, r.TokenBudget)
	assert.Equal(t, 9, r.MaxCost)
	econ := r.OfKind(domain.KindTokenEconomy)
	require.Len(t, econ, 1)
	e := econ[0].(*domain.TokenEconomyError)
	assert.Equal(t, "c0", e.ChoiceID)
	assert.Equal(t, 6, e.Budget)
	assert.True(t, r.OK())
}

func TestValidate_FlagsAndAnimations(t *testing.T) {
	start := node("start", "end")
	start.Grants = []string{"mission_started"}
	start.Choices[0].Requires = []string{"secret_key"}
	start.Cinematic = map[string]any{"animation_key": "mission_start"}
	doc := document("start", start, node("end"))

	r := Validate(doc,
		WithRequiredFlags("mission_started", "perihelion_observed"),
		WithRequiredAnimations("mission_start", "perihelion_flash"),
	)

	var flags []string
	for _, v := range r.OfKind(domain.KindMissingFlag) {
		flags = append(flags, v.(*domain.MissingFlagError).Flag)
	}
	assert.Equal(t, []string{"perihelion_observed", "secret_key"}, flags)

	anims := r.OfKind(domain.KindMissingAnimation)
	require.Len(t, anims, 1)
	assert.Equal(t, "perihelion_flash", anims[0].(*domain.MissingAnimationError).Key)
	assert.Equal(t, 1, r.Flags)
}

func TestValidate_Facts(t *testing.T) {
	start := node("start", "end")
	start.Body = "3I/ATLAS was discovered July 1, 2025."
	doc := document("start", start, node("end"))

	r := Validate(doc, WithFacts(map[string]*regexp.Regexp{
		"discovery_date": regexp.MustCompile(`(?i)july.*1.*2025`),
		"velocity":       regexp.MustCompile(`(?i)137,?000.*mph`),
		"label":          regexp.MustCompile(`to end`),
	}))
	assert.Equal(t, []string{"discovery_date", "label"}, r.Facts)
}

// TestValidate_RandomGraphsFlagOrphans builds random connected graphs, then
// detaches one node and checks that exactly that node is reported.
func TestValidate_RandomGraphsFlagOrphans(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		size := 2 + rng.Intn(30)
		edges := make([][]string, size)
		id := func(i int) string { return fmt.Sprintf("n%d", i) }

		// Spanning tree from n0, then random extra edges.
		for i := 1; i < size; i++ {
			parent := rng.Intn(i)
			edges[parent] = append(edges[parent], id(i))
		}
		for k := rng.Intn(size); k > 0; k-- {
			from, to := rng.Intn(size), rng.Intn(size)
			edges[from] = append(edges[from], id(to))
		}

		nodes := make([]domain.Node, size)
		for i := range nodes {
			nodes[i] = node(id(i), edges[i]...)
		}

		r := Validate(document(id(0), nodes...))
		require.True(t, r.OK(), "round %d", round)
		require.Empty(t, r.Unreachable(), "round %d", round)

		// The orphan may point into the graph, nothing points to it.
		orphan := node("orphan", id(rng.Intn(size)))
		r = Validate(document(id(0), append(nodes, orphan)...))
		require.True(t, r.OK(), "round %d", round)
		assert.Equal(t, []string{"orphan"}, r.Unreachable(), "round %d", round)
	}
}
