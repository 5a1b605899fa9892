package ports

import (
	"context"
	"time"

	"github.com/aretw0/atlas/pkg/domain"
)

// BuildRecord describes one emitted document.
type BuildRecord struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Nodes     int       `json:"nodes"`
	Endings   int       `json:"endings"`
	Warnings  int       `json:"warnings"`
	Hash      string    `json:"hash"`
	// Unchanged is set when the content hash equals the previous build.
	Unchanged bool `json:"unchanged"`
}

// BuildArchive keeps a ledger of emitted documents.
type BuildArchive interface {
	// Record stores doc. The content hash covers everything except
	// meta.updated_utc so that identical rebuilds hash the same.
	Record(ctx context.Context, doc *domain.Document, warnings int) (BuildRecord, error)

	// List returns the most recent records first. A limit <= 0 means all.
	List(ctx context.Context, limit int) ([]BuildRecord, error)

	Close() error
}

// DocumentSource provides the current document to read-only consumers such
// as the HTTP and MCP servers.
type DocumentSource interface {
	Document(ctx context.Context) (*domain.Document, error)
}
