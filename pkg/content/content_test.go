package content

import (
	"testing"
	"time"

	"github.com/aretw0/atlas/pkg/assembler"
	"github.com/aretw0/atlas/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_AssemblesCleanly(t *testing.T) {
	bp, err := Default()
	require.NoError(t, err)

	nodes, err := bp.Build()
	require.NoError(t, err)

	doc, rep, err := assembler.Assemble(nodes, bp.Meta, bp.Tokens,
		assembler.WithClock(func() time.Time { return time.Unix(0, 0) }),
		assembler.WithValidatorOptions(bp.ValidatorOptions()...),
	)
	require.NoError(t, err)
	assert.True(t, rep.Clean(), "violations: %v", rep.Violations)

	assert.Equal(t, "mission_briefing", doc.RootID)
	assert.Equal(t, 51, doc.Meta.TotalNodes)
	assert.Equal(t, bp.Meta.Targets.Endings, doc.Meta.Endings)
	assert.Equal(t, bp.Meta.Targets.SkillChecks, doc.Meta.SkillChecks)
	assert.Equal(t, bp.Meta.Targets.GoldenPathNodes, doc.Meta.GoldenPathNodes)
	assert.Equal(t, bp.Meta.Targets.BranchingPoints, doc.Meta.BranchingPoints)
	assert.Len(t, rep.Reachable, doc.Meta.TotalNodes)

	s := report.Summarize(doc)
	assert.Equal(t, 7, s.Count("Endings"))
	assert.Equal(t, 5, s.Count("Skill Checks"))
	assert.Equal(t, 5, s.Count("Error States"))
	assert.Equal(t, 5, s.Count("Bridges"))
}

func TestRaw_ReturnsCopy(t *testing.T) {
	a := Raw()
	a[0] = '#'
	assert.NotEqual(t, a[0], Raw()[0])
}
