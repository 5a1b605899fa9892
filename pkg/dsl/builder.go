package dsl

import (
	"fmt"

	"github.com/aretw0/atlas/pkg/domain"
	"github.com/aretw0/atlas/pkg/registry"
)

// DefaultGroup is the site name of nodes added directly on the Builder.
const DefaultGroup = "nodes"

// Builder manages the graph construction.
// Nodes are kept in the order they were added. Nothing is registered until
// Build, so every collision is reported in one pass.
type Builder struct {
	entries []*NodeBuilder
	groups  map[string]*Group
	errs    []error
}

// Group is a named section of the graph. Its name is used in insertion sites,
// e.g. "opening[2]", and its category is applied to every node that does not
// set one.
type Group struct {
	name     string
	category domain.Category
	count    int
	builder  *Builder
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		groups: make(map[string]*Group),
	}
}

// Group returns the named group, creating it on first use.
// Later calls with the same name keep counting sites where the previous call
// stopped; the category of the first call wins.
func (b *Builder) Group(name string, category domain.Category) *Group {
	if g, ok := b.groups[name]; ok {
		return g
	}
	g := &Group{name: name, category: category, builder: b}
	b.groups[name] = g
	return g
}

// Add creates a new node in the default group.
// Adding the same id twice is not an error here; Build reports it.
func (b *Builder) Add(id string) *NodeBuilder {
	return b.Group(DefaultGroup, "").Add(id)
}

// Add creates a new node in the group.
func (g *Group) Add(id string) *NodeBuilder {
	nb := &NodeBuilder{
		node: domain.Node{
			ID:       id,
			Category: g.category,
		},
		site: fmt.Sprintf("%s[%d]", g.name, g.count),
	}
	g.count++
	g.builder.entries = append(g.builder.entries, nb)
	return nb
}

// Name returns the group name.
func (g *Group) Name() string {
	return g.name
}

// Build registers every node in order and returns the registry.
// All duplicate ids and descriptor failures are collected into a single
// *domain.BuildError; no partial registry is returned.
func (b *Builder) Build() (*registry.Registry, error) {
	reg := registry.NewRegistry()
	errs := append([]error(nil), b.errs...)

	for _, nb := range b.entries {
		if err := reg.Register(nb.node, nb.site); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, &domain.BuildError{Errors: errs}
	}
	return reg, nil
}

// Nodes returns the nodes added so far, duplicates included.
func (b *Builder) Nodes() []domain.Node {
	out := make([]domain.Node, 0, len(b.entries))
	for _, nb := range b.entries {
		out = append(out, nb.Build())
	}
	return out
}

func (b *Builder) fail(err error) {
	b.errs = append(b.errs, err)
}
