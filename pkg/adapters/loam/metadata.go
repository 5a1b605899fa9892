package loam

// ManifestID is the document holding the envelope (meta, root_id, tokens)
// of an exported tree. It is skipped when listing nodes.
const ManifestID = "_atlas"

// NodeMetadata represents the frontmatter of one node file.
// Choices and the manifest stay untyped here and are decoded with
// mapstructure, since Loam hands nested frontmatter over as maps.
type NodeMetadata struct {
	ID       string `json:"id" yaml:"id" mapstructure:"id"`
	Title    string `json:"title" yaml:"title" mapstructure:"title"`
	Category string `json:"category,omitempty" yaml:"category,omitempty" mapstructure:"category"`
	// Order keeps the document order across the filesystem listing.
	Order int `json:"order" yaml:"order" mapstructure:"order"`

	Choices  []any    `json:"choices" yaml:"choices" mapstructure:"choices"`
	Grants   []string `json:"grants,omitempty" yaml:"grants,omitempty" mapstructure:"grants"`
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty" mapstructure:"requires"`
	Cost     int      `json:"cost,omitempty" yaml:"cost,omitempty" mapstructure:"cost"`

	Cinematic map[string]any `json:"cinematic,omitempty" yaml:"cinematic,omitempty" mapstructure:"cinematic"`

	// Manifest is only set on the ManifestID document.
	Manifest map[string]any `json:"manifest,omitempty" yaml:"manifest,omitempty" mapstructure:"manifest"`
}
