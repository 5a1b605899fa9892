package domain

// Choice is a labeled edge from its owning node to another node.
type Choice struct {
	ID     string `json:"id" yaml:"id"`
	Label  string `json:"label" yaml:"label"`
	NextID string `json:"next_id" yaml:"next_id"`

	Grants   []string `json:"grants,omitempty" yaml:"grants,omitempty"`
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty"`
	Cost     int      `json:"cost,omitempty" yaml:"cost,omitempty"`
}

// Clone returns a copy that does not share slices with c.
func (c Choice) Clone() Choice {
	out := c
	out.Grants = cloneStrings(c.Grants)
	out.Requires = cloneStrings(c.Requires)
	return out
}
