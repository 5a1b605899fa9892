package blueprint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/atlas/pkg/validator"
	"github.com/aretw0/atlas/pkg/assembler"
	"github.com/aretw0/atlas/pkg/domain"
	"github.com/aretw0/atlas/pkg/dsl"
	"gopkg.in/yaml.v3"
)

// Format selects the decoder used by Parse.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Blueprint is the declarative input of one build.
type Blueprint struct {
	Meta     assembler.MetaTemplate `yaml:"meta" json:"meta"`
	Tokens   domain.Tokens          `yaml:"tokens" json:"tokens"`
	Sections []Section              `yaml:"sections" json:"sections"`
	Audit    Audit                  `yaml:"audit,omitempty" json:"audit,omitempty"`
}

// Section holds exactly one of a hand-authored group, a skill check or a
// generated chain. Sections are expanded in file order.
type Section struct {
	Group      *Group          `yaml:"group,omitempty" json:"group,omitempty"`
	SkillCheck *dsl.SkillCheck `yaml:"skill_check,omitempty" json:"skill_check,omitempty"`
	Chain      *dsl.Chain      `yaml:"chain,omitempty" json:"chain,omitempty"`
}

// Group is a named list of hand-authored nodes.
type Group struct {
	Name     string          `yaml:"name" json:"name"`
	Category domain.Category `yaml:"category,omitempty" json:"category,omitempty"`
	Nodes    []domain.Node   `yaml:"nodes" json:"nodes"`
}

// Audit lists extra checks run during validation.
type Audit struct {
	RequiredFlags      []string `yaml:"required_flags,omitempty" json:"required_flags,omitempty"`
	RequiredAnimations []string `yaml:"required_animations,omitempty" json:"required_animations,omitempty"`
}

// Load reads a blueprint file. Files ending in .json are decoded as JSON,
// anything else as YAML.
func Load(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blueprint: %w", err)
	}

	format := FormatYAML
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		format = FormatJSON
	}

	bp, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return bp, nil
}

// Parse decodes a blueprint. Unknown keys are rejected so that typos do not
// silently drop content.
func Parse(data []byte, format Format) (*Blueprint, error) {
	var bp Blueprint

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&bp); err != nil {
			return nil, fmt.Errorf("failed to parse blueprint json: %w", err)
		}
	case FormatYAML, "":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&bp); err != nil {
			return nil, fmt.Errorf("failed to parse blueprint yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported blueprint format %q", format)
	}

	for i, s := range bp.Sections {
		if s.count() != 1 {
			return nil, fmt.Errorf("section %d: exactly one of group, skill_check or chain is required", i)
		}
	}
	return &bp, nil
}

func (s Section) count() int {
	n := 0
	if s.Group != nil {
		n++
	}
	if s.SkillCheck != nil {
		n++
	}
	if s.Chain != nil {
		n++
	}
	return n
}

// Apply expands every section into b, in order.
func (bp *Blueprint) Apply(b *dsl.Builder) {
	for _, s := range bp.Sections {
		switch {
		case s.Group != nil:
			g := b.Group(s.Group.Name, s.Group.Category)
			for _, n := range s.Group.Nodes {
				nb := g.Add(n.ID).
					Title(n.Title).
					Body(n.Body).
					Grants(n.Grants...).
					Requires(n.Requires...).
					Cost(n.Cost)
				if n.Category != "" {
					nb.Category(n.Category)
				}
				for _, c := range n.Choices {
					nb.ChoiceWith(c)
				}
				for k, v := range n.Cinematic {
					nb.Cinematic(k, v)
				}
			}
		case s.SkillCheck != nil:
			b.SkillCheck(*s.SkillCheck)
		case s.Chain != nil:
			b.Chain(*s.Chain)
		}
	}
}

// Build expands the blueprint into a fresh builder and returns its nodes.
func (bp *Blueprint) Build() ([]domain.Node, error) {
	b := dsl.New()
	bp.Apply(b)
	reg, err := b.Build()
	if err != nil {
		return nil, err
	}
	return reg.All(), nil
}

// ValidatorOptions returns the audit checks declared by the blueprint.
func (bp *Blueprint) ValidatorOptions() []validator.Option {
	var opts []validator.Option
	if len(bp.Audit.RequiredFlags) > 0 {
		opts = append(opts, validator.WithRequiredFlags(bp.Audit.RequiredFlags...))
	}
	if len(bp.Audit.RequiredAnimations) > 0 {
		opts = append(opts, validator.WithRequiredAnimations(bp.Audit.RequiredAnimations...))
	}
	return opts
}
