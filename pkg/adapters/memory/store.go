package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/atlas/pkg/domain"
)

// ErrNoDocument is returned before the first Set.
var ErrNoDocument = errors.New("no document loaded")

// Store implements ports.DocumentSource in memory.
// Safe for concurrent use.
type Store struct {
	doc *domain.Document
	mu  sync.RWMutex
}

// NewStore creates a store, optionally seeded with doc.
func NewStore(doc *domain.Document) *Store {
	s := &Store{}
	if doc != nil {
		s.Set(doc)
	}
	return s
}

// Set replaces the served document with a copy of doc.
func (s *Store) Set(doc *domain.Document) {
	copied := cloneDocument(doc)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = copied
}

// Document returns a copy so callers can't mutate the store by pointer.
func (s *Store) Document(ctx context.Context) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.doc == nil {
		return nil, ErrNoDocument
	}
	return cloneDocument(s.doc), nil
}

func cloneDocument(doc *domain.Document) *domain.Document {
	out := *doc
	out.Tokens = doc.Tokens.Clone()
	if doc.Meta.Targets != nil {
		t := *doc.Meta.Targets
		out.Meta.Targets = &t
	}
	out.Nodes = make([]domain.Node, len(doc.Nodes))
	for i, n := range doc.Nodes {
		out.Nodes[i] = n.Clone()
	}
	return &out
}
