package domain

// Node represents a single narrative screen in the graph.
// A node with no choices is a terminal node (an ending).
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Title    string   `json:"title" yaml:"title"`
	Body     string   `json:"body_md" yaml:"body_md"`
	Category Category `json:"category,omitempty" yaml:"category,omitempty"`

	// Choices is always serialized so that consumers can tell an ending
	// (empty list) apart from a malformed node.
	Choices []Choice `json:"choices" yaml:"choices"`

	Grants   []string `json:"grants,omitempty" yaml:"grants,omitempty"`
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty"`
	Cost     int      `json:"cost,omitempty" yaml:"cost,omitempty"`

	// Cinematic is an opaque presentation hint (animation key, view mode,
	// timeline position, fx flags). It is passed through verbatim.
	Cinematic map[string]any `json:"cinematic,omitempty" yaml:"cinematic,omitempty"`
}

// IsTerminal reports whether the node ends a playthrough.
func (n Node) IsTerminal() bool {
	return len(n.Choices) == 0
}

// AnimationKey returns cinematic.animation_key when present.
func (n Node) AnimationKey() string {
	if n.Cinematic == nil {
		return ""
	}
	key, _ := n.Cinematic["animation_key"].(string)
	return key
}

// Clone returns a deep copy of the node's slices so that callers can hand the
// copy out without sharing backing arrays. Cinematic is copied one level deep.
func (n Node) Clone() Node {
	out := n
	out.Grants = cloneStrings(n.Grants)
	out.Requires = cloneStrings(n.Requires)
	out.Choices = make([]Choice, len(n.Choices))
	for i, c := range n.Choices {
		out.Choices[i] = c.Clone()
	}
	if n.Cinematic != nil {
		out.Cinematic = make(map[string]any, len(n.Cinematic))
		for k, v := range n.Cinematic {
			out.Cinematic[k] = v
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
