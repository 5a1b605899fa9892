package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/aretw0/atlas/pkg/domain"
)

// ChunkPattern matches the chunk files produced by parallel authoring.
const ChunkPattern = "narrative_tree_chunk*.json"

// Chunk is one partial document read from disk.
type Chunk struct {
	Name     string
	Document *domain.Document
}

// Encode renders doc as two-space indented JSON with a trailing newline.
func Encode(doc *domain.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a document.
func Decode(data []byte) (*domain.Document, error) {
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return &doc, nil
}

// ReadDocument loads a document from path.
func ReadDocument(path string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// WriteDocument persists doc to path atomically.
// It writes to a temporary file in the same directory, syncs, and renames it over the destination.
func WriteDocument(path string, doc *domain.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

func writeAtomic(destPath string, data []byte) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure output directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "tmp-"+filepath.Base(destPath)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Cannot rename an open file on Windows.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing document for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to document: %w", err)
	}
	return nil
}

// FindChunks returns the chunk files in dir, sorted by name.
func FindChunks(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, ChunkPattern))
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// ReadChunks loads every path in order. A directory argument expands to
// its chunk files.
func ReadChunks(paths ...string) ([]Chunk, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := FindChunks(p)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	chunks := make([]Chunk, 0, len(files))
	for _, f := range files {
		doc, err := ReadDocument(f)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, Chunk{Name: filepath.Base(f), Document: doc})
	}
	return chunks, nil
}

// Source serves the document stored at Path, re-reading it on each call.
type Source struct {
	Path string
}

// Document implements ports.DocumentSource.
func (s Source) Document(ctx context.Context) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadDocument(s.Path)
}
