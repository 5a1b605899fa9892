package validator

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/aretw0/atlas/pkg/domain"
)

// Option configures a validation run.
type Option func(*config)

type config struct {
	requiredFlags      []string
	requiredAnimations []string
	facts              map[string]*regexp.Regexp
}

// WithRequiredFlags reports every flag in flags that no node or choice grants.
func WithRequiredFlags(flags ...string) Option {
	return func(c *config) {
		c.requiredFlags = append(c.requiredFlags, flags...)
	}
}

// WithRequiredAnimations reports every animation key that no node uses.
func WithRequiredAnimations(keys ...string) Option {
	return func(c *config) {
		c.requiredAnimations = append(c.requiredAnimations, keys...)
	}
}

// WithFacts records which named patterns occur in node bodies or choice
// labels. Coverage is informational and never produces a violation.
func WithFacts(facts map[string]*regexp.Regexp) Option {
	return func(c *config) {
		if c.facts == nil {
			c.facts = make(map[string]*regexp.Regexp, len(facts))
		}
		for k, v := range facts {
			c.facts[k] = v
		}
	}
}

// Validate checks doc and reports every violation it finds. It never stops at
// the first problem and never modifies doc.
func Validate(doc *domain.Document, opts ...Option) *Report {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	r := &Report{Tally: domain.Count(doc.Nodes)}
	index := checkIDs(doc.Nodes, r)

	for _, n := range doc.Nodes {
		checkNode(n, r)
		checkChoices(n, index, r)
	}

	_, rootOK := index[doc.RootID]
	if !rootOK {
		r.add(&domain.MissingRootError{RootID: doc.RootID})
	} else {
		r.Reachable = reach(doc, index)
		for _, n := range doc.Nodes {
			if _, ok := r.Reachable[n.ID]; !ok {
				r.add(&domain.UnreachableNodeError{NodeID: n.ID})
			}
		}
	}

	checkMeta(doc.Meta, r.Tally, r)
	checkEconomy(doc, r)
	checkFlags(doc.Nodes, cfg.requiredFlags, r)
	checkAnimations(doc.Nodes, cfg.requiredAnimations, r)
	if len(cfg.facts) > 0 {
		r.Facts = coverage(doc.Nodes, cfg.facts)
	}

	return r
}

// checkIDs reports duplicates and returns the index of first occurrences.
func checkIDs(nodes []domain.Node, r *Report) map[string]int {
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if first, ok := index[n.ID]; ok {
			r.add(&domain.DuplicateIDError{
				ID:     n.ID,
				First:  site(first),
				Second: site(i),
			})
			continue
		}
		index[n.ID] = i
	}
	return index
}

func checkNode(n domain.Node, r *Report) {
	if n.ID == "" {
		r.add(&domain.NodeShapeError{Problem: "missing id"})
	}
	if n.Title == "" {
		r.add(&domain.NodeShapeError{NodeID: n.ID, Problem: "missing title"})
	}
	if n.Body == "" {
		r.add(&domain.NodeShapeError{NodeID: n.ID, Problem: "missing body_md"})
	}
	if !n.Category.Valid() {
		r.add(&domain.NodeShapeError{NodeID: n.ID, Problem: fmt.Sprintf("unknown category %q", n.Category)})
	}
	if n.Cost < 0 {
		r.add(&domain.NodeShapeError{NodeID: n.ID, Problem: fmt.Sprintf("negative cost %d", n.Cost)})
	}
}

func checkChoices(n domain.Node, index map[string]int, r *Report) {
	seen := make(map[string]bool, len(n.Choices))
	for i, c := range n.Choices {
		shape := func(problem string) {
			r.add(&domain.ChoiceShapeError{NodeID: n.ID, Index: i, ChoiceID: c.ID, Problem: problem})
		}
		if c.ID == "" {
			shape("missing id")
		} else if seen[c.ID] {
			shape("duplicate choice id")
		}
		seen[c.ID] = true
		if c.Label == "" {
			shape("missing label")
		}
		if c.Cost < 0 {
			shape(fmt.Sprintf("negative cost %d", c.Cost))
		}
		if c.NextID == "" {
			shape("missing next_id")
			continue
		}
		if _, ok := index[c.NextID]; !ok {
			r.add(&domain.DanglingReferenceError{NodeID: n.ID, ChoiceID: c.ID, Target: c.NextID})
		}
	}
}

// reach walks the choice graph breadth-first from the root.
func reach(doc *domain.Document, index map[string]int) map[string]struct{} {
	visited := map[string]struct{}{doc.RootID: {}}
	queue := []string{doc.RootID}

	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		i, ok := index[currentID]
		if !ok {
			continue
		}
		for _, c := range doc.Nodes[i].Choices {
			if _, seen := visited[c.NextID]; seen {
				continue
			}
			if _, exists := index[c.NextID]; !exists {
				continue
			}
			visited[c.NextID] = struct{}{}
			queue = append(queue, c.NextID)
		}
	}
	return visited
}

func checkMeta(meta domain.Meta, t domain.Tally, r *Report) {
	mismatch := func(field string, declared, actual int) {
		if declared != actual {
			r.add(&domain.MetadataMismatchError{Field: field, Declared: declared, Actual: actual})
		}
	}
	mismatch("total_nodes", meta.TotalNodes, t.Total)
	mismatch("endings", meta.Endings, t.Endings)
	mismatch("golden_path_nodes", meta.GoldenPathNodes, t.GoldenPathNodes)
	mismatch("skill_checks", meta.SkillChecks, t.SkillChecks)
	mismatch("branching_points", meta.BranchingPoints, t.BranchingPoints)

	if meta.Targets == nil {
		return
	}
	// Zero means no target was declared for that counter.
	target := func(field string, declared, actual int) {
		if declared != 0 {
			mismatch("targets."+field, declared, actual)
		}
	}
	target("endings", meta.Targets.Endings, t.Endings)
	target("golden_path_nodes", meta.Targets.GoldenPathNodes, t.GoldenPathNodes)
	target("skill_checks", meta.Targets.SkillChecks, t.SkillChecks)
	target("branching_points", meta.Targets.BranchingPoints, t.BranchingPoints)
}

// checkEconomy flags costs larger than the most tokens a reader can ever hold.
func checkEconomy(doc *domain.Document, r *Report) {
	budget := doc.Tokens.Chrono.Start + doc.Tokens.EarnPotential()
	r.TokenBudget = budget

	for _, n := range doc.Nodes {
		if n.Cost > r.MaxCost {
			r.MaxCost = n.Cost
		}
		if n.Cost > budget {
			r.add(&domain.TokenEconomyError{NodeID: n.ID, Cost: n.Cost, Budget: budget})
		}
		for _, c := range n.Choices {
			if c.Cost > r.MaxCost {
				r.MaxCost = c.Cost
			}
			if c.Cost > budget {
				r.add(&domain.TokenEconomyError{NodeID: n.ID, ChoiceID: c.ID, Cost: c.Cost, Budget: budget})
			}
		}
	}
}

// checkFlags reports required flags and gating flags that nothing grants.
func checkFlags(nodes []domain.Node, required []string, r *Report) {
	granted := make(map[string]bool)
	var gates []string
	for _, n := range nodes {
		for _, f := range n.Grants {
			granted[f] = true
		}
		gates = append(gates, n.Requires...)
		for _, c := range n.Choices {
			for _, f := range c.Grants {
				granted[f] = true
			}
			gates = append(gates, c.Requires...)
		}
	}
	r.Flags = len(granted)

	reported := make(map[string]bool)
	for _, f := range append(append([]string(nil), required...), gates...) {
		if granted[f] || reported[f] {
			continue
		}
		reported[f] = true
		r.add(&domain.MissingFlagError{Flag: f})
	}
}

func checkAnimations(nodes []domain.Node, required []string, r *Report) {
	if len(required) == 0 {
		return
	}
	used := make(map[string]bool)
	for _, n := range nodes {
		if key := n.AnimationKey(); key != "" {
			used[key] = true
		}
	}
	for _, key := range required {
		if !used[key] {
			r.add(&domain.MissingAnimationError{Key: key})
		}
	}
}

func coverage(nodes []domain.Node, facts map[string]*regexp.Regexp) []string {
	var found []string
	for key, pattern := range facts {
		for _, n := range nodes {
			if pattern.MatchString(n.Body) || matchLabels(pattern, n.Choices) {
				found = append(found, key)
				break
			}
		}
	}
	sort.Strings(found)
	return found
}

func matchLabels(pattern *regexp.Regexp, choices []domain.Choice) bool {
	for _, c := range choices {
		if pattern.MatchString(c.Label) {
			return true
		}
	}
	return false
}

func site(i int) string {
	return fmt.Sprintf("nodes[%d]", i)
}
