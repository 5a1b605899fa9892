package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/atlas/pkg/domain"
)

// Placeholder is replaced by the 1-based position in chain templates.
const Placeholder = "{n}"

// Chain describes N numbered nodes linked one after another.
//
// Nodes are named Prefix_1..Prefix_N. Every node except the last links to
// its successor. The last node links to Exit or, when Terminal is set, has no
// choices at all. A chain with neither is rejected with *domain.OpenChainError.
type Chain struct {
	// Group is the site name used in error reports. Defaults to Prefix.
	Group    string          `json:"group,omitempty" yaml:"group,omitempty"`
	Prefix   string          `json:"prefix" yaml:"prefix"`
	Count    int             `json:"count" yaml:"count"`
	Category domain.Category `json:"category,omitempty" yaml:"category,omitempty"`

	// Title, Body, Label and Grant are templates; {n} is the node position.
	Title string `json:"title" yaml:"title"`
	Body  string `json:"body_md" yaml:"body_md"`
	Label string `json:"label" yaml:"label"`
	Grant string `json:"grant,omitempty" yaml:"grant,omitempty"`

	Exit     string  `json:"exit,omitempty" yaml:"exit,omitempty"`
	Terminal bool    `json:"terminal,omitempty" yaml:"terminal,omitempty"`
	Branch   *Branch `json:"branch,omitempty" yaml:"branch,omitempty"`
}

// Branch adds a second choice to every chain node at position At or later.
type Branch struct {
	At     int    `json:"at" yaml:"at"`
	Label  string `json:"label" yaml:"label"`
	Target string `json:"target" yaml:"target"`
	Grant  string `json:"grant,omitempty" yaml:"grant,omitempty"`
}

// NodeID returns the id of the chain node at 1-based position i.
func (c Chain) NodeID(i int) string {
	return c.Prefix + "_" + strconv.Itoa(i)
}

// Chain expands the descriptor into the builder.
func (b *Builder) Chain(c Chain) *Builder {
	if c.Prefix == "" {
		b.fail(fmt.Errorf("chain: prefix is required"))
		return b
	}
	if c.Count < 1 {
		b.fail(fmt.Errorf("chain %q: count must be positive, got %d", c.Prefix, c.Count))
		return b
	}
	if c.Exit != "" && c.Terminal {
		b.fail(fmt.Errorf("chain %q: exit %q and terminal are mutually exclusive", c.Prefix, c.Exit))
		return b
	}
	if c.Exit == "" && !c.Terminal {
		b.fail(&domain.OpenChainError{Prefix: c.Prefix, LastID: c.NodeID(c.Count)})
		return b
	}

	groupName := c.Group
	if groupName == "" {
		groupName = c.Prefix
	}
	category := c.Category
	if category == "" {
		category = domain.CategoryBridge
	}
	g := b.Group(groupName, category)

	for i := 1; i <= c.Count; i++ {
		nb := g.Add(c.NodeID(i)).
			Category(category).
			Title(expand(c.Title, i)).
			Body(expand(c.Body, i))

		last := i == c.Count
		if last && c.Terminal {
			nb.Terminal()
			continue
		}

		next := c.Exit
		if !last {
			next = c.NodeID(i + 1)
		}
		nb.ChoiceWith(domain.Choice{
			ID:     fmt.Sprintf("continue_%s_%d", c.Prefix, i),
			Label:  expand(c.Label, i),
			NextID: next,
			Grants: grantList(c.Grant, i),
		})

		if c.Branch != nil && i >= c.Branch.At {
			nb.ChoiceWith(domain.Choice{
				ID:     fmt.Sprintf("branch_%s_%d", c.Prefix, i),
				Label:  expand(c.Branch.Label, i),
				NextID: c.Branch.Target,
				Grants: grantList(c.Branch.Grant, i),
			})
		}
	}
	return b
}

// SkillCheck describes a question node and the error node that sends the
// reader back to it.
type SkillCheck struct {
	// Group is the site name used in error reports. Defaults to "skill_checks".
	Group    string `json:"group,omitempty" yaml:"group,omitempty"`
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Question string `json:"question" yaml:"question"`

	Correct domain.Choice   `json:"correct" yaml:"correct"`
	Wrong   []domain.Choice `json:"wrong" yaml:"wrong"`

	// ErrorID defaults to "fatal_<id without skill_ prefix>_error".
	ErrorID    string `json:"error_id,omitempty" yaml:"error_id,omitempty"`
	ErrorTitle string `json:"error_title,omitempty" yaml:"error_title,omitempty"`
	ErrorBody  string `json:"error_body,omitempty" yaml:"error_body,omitempty"`
	RetryLabel string `json:"retry_label,omitempty" yaml:"retry_label,omitempty"`

	Animation      string `json:"animation,omitempty" yaml:"animation,omitempty"`
	ErrorAnimation string `json:"error_animation,omitempty" yaml:"error_animation,omitempty"`
}

// ErrorNodeID returns the id of the generated error node.
func (s SkillCheck) ErrorNodeID() string {
	if s.ErrorID != "" {
		return s.ErrorID
	}
	return "fatal_" + strings.TrimPrefix(s.ID, "skill_") + "_error"
}

// SkillCheck expands the descriptor into the builder. Wrong answers without a
// next_id are routed to the error node, whose single retry choice leads back
// to the skill node.
func (b *Builder) SkillCheck(s SkillCheck) *Builder {
	if s.ID == "" {
		b.fail(fmt.Errorf("skill check: id is required"))
		return b
	}

	groupName := s.Group
	if groupName == "" {
		groupName = "skill_checks"
	}
	g := b.Group(groupName, domain.CategorySkillCheck)
	errorID := s.ErrorNodeID()

	skill := g.Add(s.ID).
		Category(domain.CategorySkillCheck).
		Title(s.Title).
		Body(s.Question).
		ChoiceWith(s.Correct)
	for _, w := range s.Wrong {
		if w.NextID == "" {
			w.NextID = errorID
		}
		skill.ChoiceWith(w)
	}
	if s.Animation != "" {
		skill.Animation(s.Animation)
	}

	title := s.ErrorTitle
	if title == "" {
		title = "Analysis Error"
	}
	retry := s.RetryLabel
	if retry == "" {
		retry = "Review the data and retry"
	}
	fatal := g.Add(errorID).
		Category(domain.CategoryError).
		Title(title).
		Body(s.ErrorBody).
		Choice("retry_"+strings.TrimPrefix(s.ID, "skill_"), retry, s.ID)
	animation := s.ErrorAnimation
	if animation == "" {
		animation = "error_state"
	}
	fatal.Animation(animation)

	return b
}

func expand(tmpl string, i int) string {
	return strings.ReplaceAll(tmpl, Placeholder, strconv.Itoa(i))
}

func grantList(tmpl string, i int) []string {
	if tmpl == "" {
		return nil
	}
	return []string{expand(tmpl, i)}
}
