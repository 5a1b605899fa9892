package domain

// Document is the emitted artifact. It carries exactly four top-level keys.
type Document struct {
	Meta   Meta   `json:"meta" yaml:"meta"`
	RootID string `json:"root_id" yaml:"root_id"`
	Tokens Tokens `json:"tokens" yaml:"tokens"`
	Nodes  []Node `json:"nodes" yaml:"nodes"`
}

// Meta is the document envelope. Every counter is derived from the node list
// at assembly time. Authorial design numbers live under Targets.
type Meta struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string `json:"version" yaml:"version"`

	// UpdatedUTC is the only field that differs between two builds of the
	// same input.
	UpdatedUTC string `json:"updated_utc" yaml:"updated_utc"`

	TotalNodes      int `json:"total_nodes" yaml:"total_nodes"`
	Endings         int `json:"endings" yaml:"endings"`
	GoldenPathNodes int `json:"golden_path_nodes" yaml:"golden_path_nodes"`
	SkillChecks     int `json:"skill_checks" yaml:"skill_checks"`
	BranchingPoints int `json:"branching_points" yaml:"branching_points"`

	Targets *Targets `json:"targets,omitempty" yaml:"targets,omitempty"`
}

// Targets are declared design goals. They are never treated as verified facts.
type Targets struct {
	Endings         int `json:"endings,omitempty" yaml:"endings,omitempty"`
	GoldenPathNodes int `json:"golden_path_nodes,omitempty" yaml:"golden_path_nodes,omitempty"`
	SkillChecks     int `json:"skill_checks,omitempty" yaml:"skill_checks,omitempty"`
	BranchingPoints int `json:"branching_points,omitempty" yaml:"branching_points,omitempty"`
}

// Tokens is the economy configuration handed to the runtime.
type Tokens struct {
	Chrono Chrono `json:"chrono" yaml:"chrono"`
}

// Chrono is the single token currency.
type Chrono struct {
	Start     int        `json:"start" yaml:"start"`
	EarnRules []EarnRule `json:"earn_rules" yaml:"earn_rules"`
}

// EarnRule awards Amount tokens when the runtime observes Action.
type EarnRule struct {
	Action string `json:"action" yaml:"action"`
	Amount int    `json:"amount" yaml:"amount"`
}

// Rewards returns the action to amount mapping. Later rules for the same
// action replace earlier ones.
func (t Tokens) Rewards() map[string]int {
	out := make(map[string]int, len(t.Chrono.EarnRules))
	for _, r := range t.Chrono.EarnRules {
		out[r.Action] = r.Amount
	}
	return out
}

// EarnPotential is the sum of every positive reward.
func (t Tokens) EarnPotential() int {
	total := 0
	for _, amount := range t.Rewards() {
		if amount > 0 {
			total += amount
		}
	}
	return total
}

// Clone returns a copy of the token block that shares no slices with t.
func (t Tokens) Clone() Tokens {
	out := t
	if t.Chrono.EarnRules != nil {
		out.Chrono.EarnRules = make([]EarnRule, len(t.Chrono.EarnRules))
		copy(out.Chrono.EarnRules, t.Chrono.EarnRules)
	}
	return out
}

// Node returns the node with the given id.
func (d *Document) Node(id string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Index maps node ids to their first position in Nodes.
func (d *Document) Index() map[string]int {
	idx := make(map[string]int, len(d.Nodes))
	for i, n := range d.Nodes {
		if _, seen := idx[n.ID]; !seen {
			idx[n.ID] = i
		}
	}
	return idx
}
