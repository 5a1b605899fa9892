package report

import (
	"strings"

	"github.com/aretw0/atlas/pkg/domain"
)

// Unclassified is the bucket for nodes that no rule matched.
const Unclassified = "Unclassified"

// Rule assigns a label to the nodes it matches.
type Rule struct {
	Label string
	Match func(domain.Node) bool
}

// Bucket is the number of nodes that landed under one label.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary is the descriptive statistics of one document.
type Summary struct {
	Title           string   `json:"title"`
	Version         string   `json:"version"`
	TotalNodes      int      `json:"total_nodes"`
	Endings         int      `json:"endings"`
	SkillChecks     int      `json:"skill_checks"`
	GoldenPathNodes int      `json:"golden_path_nodes"`
	BranchingPoints int      `json:"branching_points"`
	StartTokens     int      `json:"start_tokens"`
	Buckets         []Bucket `json:"buckets"`
}

// ByCategory matches nodes whose effective category is c.
func ByCategory(label string, c domain.Category) Rule {
	return Rule{Label: label, Match: func(n domain.Node) bool { return n.EffectiveCategory() == c }}
}

// ByPrefix matches nodes whose id starts with prefix.
func ByPrefix(label, prefix string) Rule {
	return Rule{Label: label, Match: func(n domain.Node) bool { return strings.HasPrefix(n.ID, prefix) }}
}

// Any matches every node. Use it last.
func Any(label string) Rule {
	return Rule{Label: label, Match: func(domain.Node) bool { return true }}
}

// DefaultRules classifies by category. Nodes without one fall back to the
// legacy id conventions through domain.Node.EffectiveCategory.
func DefaultRules() []Rule {
	return []Rule{
		ByCategory("Endings", domain.CategoryEnding),
		ByCategory("Skill Checks", domain.CategorySkillCheck),
		ByCategory("Golden Path", domain.CategoryGoldenPath),
		ByCategory("Path Entries", domain.CategoryPathEntry),
		ByCategory("Hubs", domain.CategoryHub),
		ByCategory("Error States", domain.CategoryError),
		ByCategory("Bridges", domain.CategoryBridge),
		Any("Story Nodes"),
	}
}

// Summarize counts doc's nodes. Rules are evaluated top to bottom and the
// first match wins. Without rules, DefaultRules is used.
func Summarize(doc *domain.Document, rules ...Rule) Summary {
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	tally := domain.Count(doc.Nodes)
	s := Summary{
		Title:           doc.Meta.Title,
		Version:         doc.Meta.Version,
		TotalNodes:      tally.Total,
		Endings:         tally.Endings,
		SkillChecks:     tally.SkillChecks,
		GoldenPathNodes: tally.GoldenPathNodes,
		BranchingPoints: tally.BranchingPoints,
		StartTokens:     doc.Tokens.Chrono.Start,
		Buckets:         make([]Bucket, len(rules)),
	}
	for i, r := range rules {
		s.Buckets[i].Label = r.Label
	}

	unmatched := 0
	for _, n := range doc.Nodes {
		matched := false
		for i, r := range rules {
			if r.Match(n) {
				s.Buckets[i].Count++
				matched = true
				break
			}
		}
		if !matched {
			unmatched++
		}
	}
	if unmatched > 0 {
		s.Buckets = append(s.Buckets, Bucket{Label: Unclassified, Count: unmatched})
	}
	return s
}

// Count returns the bucket count for label, or zero.
func (s Summary) Count(label string) int {
	for _, b := range s.Buckets {
		if b.Label == label {
			return b.Count
		}
	}
	return 0
}
