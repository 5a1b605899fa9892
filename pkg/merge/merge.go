// Package merge combines partial narrative documents (chunks) into one node set.
//
// Duplicate ids across chunks are reported with both chunk sites and are never
// renamed. The merged nodes still need to go through the assembler, which
// recomputes the counts and validates references across chunk boundaries.
package merge

import (
	"fmt"

	"github.com/aretw0/atlas/pkg/adapters/file"
	"github.com/aretw0/atlas/pkg/assembler"
	"github.com/aretw0/atlas/pkg/domain"
	"github.com/aretw0/atlas/pkg/registry"
)

// ChunkStats summarizes one chunk.
type ChunkStats struct {
	Name  string
	Tally domain.Tally
	// Links counts choices whose target lives in another chunk.
	Links int
}

// Result is the outcome of a merge.
type Result struct {
	Nodes  []domain.Node
	Meta   assembler.MetaTemplate
	Tokens domain.Tokens
	Chunks []ChunkStats
}

// Site names node i of a chunk, e.g. "narrative_tree_chunk1.json#nodes[3]".
func Site(chunk string, i int) string {
	return fmt.Sprintf("%s#nodes[%d]", chunk, i)
}

// Chunks merges chunks in order. Meta, root and tokens come from the first
// chunk declaring a root_id. Every duplicate id is collected into a
// *domain.BuildError; no partial result is returned in that case.
func Chunks(chunks []file.Chunk) (*Result, error) {
	if len(chunks) == 0 {
		return nil, &domain.EmptyGraphError{Reason: "no chunks to merge"}
	}

	reg := registry.NewRegistry()
	var errs []error
	res := &Result{}
	owner := make(map[string]string)
	haveHeader := false

	for _, c := range chunks {
		doc := c.Document
		if doc == nil {
			continue
		}
		if !haveHeader && doc.RootID != "" {
			haveHeader = true
			res.Meta = assembler.MetaTemplate{
				Title:       doc.Meta.Title,
				Description: doc.Meta.Description,
				Version:     doc.Meta.Version,
				RootID:      doc.RootID,
				Targets:     doc.Meta.Targets,
			}
			res.Tokens = doc.Tokens.Clone()
		}
		for i, n := range doc.Nodes {
			if err := reg.Register(n, Site(c.Name, i)); err != nil {
				errs = append(errs, err)
				continue
			}
			owner[n.ID] = c.Name
		}
	}

	if len(errs) > 0 {
		return nil, &domain.BuildError{Errors: errs}
	}
	if !haveHeader {
		return nil, &domain.MissingRootError{}
	}

	res.Nodes = reg.All()
	for _, c := range chunks {
		if c.Document == nil {
			continue
		}
		stats := ChunkStats{Name: c.Name, Tally: domain.Count(c.Document.Nodes)}
		for _, n := range c.Document.Nodes {
			for _, ch := range n.Choices {
				if o, ok := owner[ch.NextID]; ok && o != c.Name {
					stats.Links++
				}
			}
		}
		res.Chunks = append(res.Chunks, stats)
	}
	return res, nil
}
