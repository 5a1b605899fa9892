package domain

import "strings"

// legacyConventions maps id naming conventions of documents that predate the
// category field. Evaluated top to bottom, first match wins.
var legacyConventions = []struct {
	match    func(id string) bool
	category Category
}{
	{func(id string) bool { return strings.HasPrefix(id, "ending_") }, CategoryEnding},
	{func(id string) bool { return strings.HasPrefix(id, "skill_") }, CategorySkillCheck},
	{func(id string) bool { return strings.HasPrefix(id, "golden_path") }, CategoryGoldenPath},
	{func(id string) bool { return strings.Contains(id, "path_entry") }, CategoryPathEntry},
	{func(id string) bool { return strings.HasPrefix(id, "fatal_") }, CategoryError},
	{func(id string) bool {
		return strings.HasPrefix(id, "bridge_") || strings.HasPrefix(id, "transition_node_")
	}, CategoryBridge},
}

// InferCategory classifies an id by the legacy naming conventions.
// Ids that match no convention are story nodes.
func InferCategory(id string) Category {
	for _, c := range legacyConventions {
		if c.match(id) {
			return c.category
		}
	}
	return CategoryStory
}

// EffectiveCategory returns the authored category, or the inferred one when
// the node was loaded from a document without categories.
func (n Node) EffectiveCategory() Category {
	if n.Category != "" {
		return n.Category
	}
	return InferCategory(n.ID)
}

// Tally holds the counters derived from a node list.
type Tally struct {
	Total           int `json:"total_nodes"`
	Endings         int `json:"endings"`
	GoldenPathNodes int `json:"golden_path_nodes"`
	SkillChecks     int `json:"skill_checks"`
	BranchingPoints int `json:"branching_points"`
}

// Count derives every meta counter from nodes. Endings are nodes without
// choices, whatever their category.
func Count(nodes []Node) Tally {
	t := Tally{Total: len(nodes)}
	for _, n := range nodes {
		if n.IsTerminal() {
			t.Endings++
		}
		switch n.EffectiveCategory() {
		case CategoryGoldenPath:
			t.GoldenPathNodes++
		case CategorySkillCheck:
			t.SkillChecks++
		case CategoryHub:
			t.BranchingPoints++
		}
	}
	return t
}
