package registry

import (
	"sync"

	"github.com/aretw0/atlas/pkg/domain"
)

// Registry holds every node definition of one build in insertion order.
// A node id can be registered once; a second registration is an error that
// names both sites.
type Registry struct {
	mu    sync.RWMutex
	order []string
	nodes map[string]entry
}

type entry struct {
	node domain.Node
	site string
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes: make(map[string]entry),
	}
}

// Register adds a node. site is a free-form label of where the node was
// defined, e.g. "opening[0]".
// If a node with the same id exists, the registry is left untouched and a
// *domain.DuplicateIDError is returned.
func (r *Registry) Register(node domain.Node, site string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.nodes[node.ID]; ok {
		return &domain.DuplicateIDError{
			ID:     node.ID,
			First:  existing.site,
			Second: site,
		}
	}

	r.nodes[node.ID] = entry{node: node.Clone(), site: site}
	r.order = append(r.order, node.ID)
	return nil
}

// Get looks up a node by id.
// Returns *domain.UnknownIDError if the id is not registered.
func (r *Registry) Get(id string) (domain.Node, error) {
	r.mu.RLock()
	e, ok := r.nodes[id]
	r.mu.RUnlock()

	if !ok {
		return domain.Node{}, &domain.UnknownIDError{ID: id}
	}
	return e.node.Clone(), nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.nodes[id]
	return ok
}

// Site returns the insertion site recorded for id.
func (r *Registry) Site(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.nodes[id]
	return e.site, ok
}

// Len returns the number of registered nodes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// All returns copies of every node in insertion order.
func (r *Registry) All() []domain.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Node, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.nodes[id].node.Clone())
	}
	return out
}
