package dsl

import "github.com/aretw0/atlas/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node domain.Node
	site string
}

// Title sets the display title.
func (n *NodeBuilder) Title(title string) *NodeBuilder {
	n.node.Title = title
	return n
}

// Body sets the markdown body.
func (n *NodeBuilder) Body(md string) *NodeBuilder {
	n.node.Body = md
	return n
}

// Category overrides the category inherited from the group.
func (n *NodeBuilder) Category(c domain.Category) *NodeBuilder {
	n.node.Category = c
	return n
}

// Choice adds an ungated edge to the target node.
func (n *NodeBuilder) Choice(id, label, next string) *NodeBuilder {
	return n.ChoiceWith(domain.Choice{ID: id, Label: label, NextID: next})
}

// ChoiceWith adds a fully specified edge.
func (n *NodeBuilder) ChoiceWith(c domain.Choice) *NodeBuilder {
	n.node.Choices = append(n.node.Choices, c.Clone())
	return n
}

// Grants adds flags awarded on visiting the node.
func (n *NodeBuilder) Grants(flags ...string) *NodeBuilder {
	n.node.Grants = append(n.node.Grants, flags...)
	return n
}

// Requires adds flags the visitor must hold for the node.
func (n *NodeBuilder) Requires(flags ...string) *NodeBuilder {
	n.node.Requires = append(n.node.Requires, flags...)
	return n
}

// Cost sets the token deduction applied on arrival.
func (n *NodeBuilder) Cost(tokens int) *NodeBuilder {
	n.node.Cost = tokens
	return n
}

// Cinematic sets one presentation hint. Values are passed through verbatim.
func (n *NodeBuilder) Cinematic(key string, value any) *NodeBuilder {
	if n.node.Cinematic == nil {
		n.node.Cinematic = make(map[string]any)
	}
	n.node.Cinematic[key] = value
	return n
}

// Animation is shorthand for Cinematic("animation_key", key).
func (n *NodeBuilder) Animation(key string) *NodeBuilder {
	return n.Cinematic("animation_key", key)
}

// Terminal marks the node as an ending by dropping its choices.
func (n *NodeBuilder) Terminal() *NodeBuilder {
	n.node.Choices = nil
	if n.node.Category == "" {
		n.node.Category = domain.CategoryEnding
	}
	return n
}

// Site returns the insertion site used in error reports.
func (n *NodeBuilder) Site() string {
	return n.site
}

// Build returns the underlying domain.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.Node {
	return n.node.Clone()
}
