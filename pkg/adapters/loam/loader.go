package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/atlas/pkg/assembler"
	"github.com/aretw0/atlas/pkg/domain"
	"github.com/aretw0/atlas/pkg/registry"
	"github.com/aretw0/loam"
	"github.com/mitchellh/mapstructure"
)

// Tree is the content of a node-per-file authoring directory.
type Tree struct {
	Meta   assembler.MetaTemplate `json:"meta"`
	Tokens domain.Tokens          `json:"tokens"`
	Nodes  []domain.Node          `json:"-"`
}

// Loader adapts a Loam repository to node-per-file authoring trees.
type Loader struct {
	Repo *loam.TypedRepository[NodeMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[NodeMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a Loam repository at dir. Read-only repositories never
// touch the directory, which is what validation and import want.
func Open(dir string, readOnly bool) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	opts := []loam.Option{loam.WithVersioning(false)}
	if readOnly {
		opts = append(opts, loam.WithReadOnly(true))
	} else {
		opts = append(opts, loam.WithForceTemp(false))
	}
	repo, err := loam.Init(absPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[NodeMetadata](repo)), nil
}

// Save writes the manifest and one document per node.
func (l *Loader) Save(ctx context.Context, tree Tree) error {
	err := l.Repo.Save(ctx, &loam.DocumentModel[NodeMetadata]{
		ID:      ManifestID,
		Content: tree.Meta.Description,
		Data:    NodeMetadata{ID: ManifestID, Manifest: encodeManifest(tree)},
	})
	if err != nil {
		return fmt.Errorf("loam save failed for manifest: %w", err)
	}

	for i, n := range tree.Nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := l.Repo.Save(ctx, &loam.DocumentModel[NodeMetadata]{
			ID:      n.ID,
			Content: n.Body,
			Data:    toMetadata(n, i),
		})
		if err != nil {
			return fmt.Errorf("loam save failed for %s: %w", n.ID, err)
		}
	}
	return nil
}

// Load reads every document of the repository. Nodes come back in their
// recorded order; ids defined by more than one file are reported as a
// *domain.BuildError.
func (l *Loader) Load(ctx context.Context) (*Tree, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	tree := &Tree{}
	type ordered struct {
		order int
		node  domain.Node
		site  string
	}
	var (
		items []ordered
		errs  []error
	)

	for _, entry := range docs {
		// List serves index entries without bodies; read each document in full.
		doc, err := l.Repo.Get(ctx, entry.ID)
		if err != nil {
			return nil, fmt.Errorf("loam get failed for %s: %w", entry.ID, err)
		}
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if id == ManifestID {
			if err := decodeManifest(doc.Data.Manifest, tree); err != nil {
				return nil, fmt.Errorf("%s: %w", doc.ID, err)
			}
			if tree.Meta.Description == "" {
				tree.Meta.Description = strings.TrimSpace(doc.Content)
			}
			continue
		}

		n, err := fromMetadata(id, doc.Data, doc.Content)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", doc.ID, err))
			continue
		}
		items = append(items, ordered{order: doc.Data.Order, node: n, site: doc.ID})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].order != items[j].order {
			return items[i].order < items[j].order
		}
		return items[i].node.ID < items[j].node.ID
	})

	reg := registry.NewRegistry()
	for _, it := range items {
		if err := reg.Register(it.node, it.site); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, &domain.BuildError{Errors: errs}
	}
	tree.Nodes = reg.All()
	return tree, nil
}

func toMetadata(n domain.Node, order int) NodeMetadata {
	meta := NodeMetadata{
		ID:        n.ID,
		Title:     n.Title,
		Category:  string(n.Category),
		Order:     order,
		Choices:   make([]any, 0, len(n.Choices)),
		Grants:    n.Grants,
		Requires:  n.Requires,
		Cost:      n.Cost,
		Cinematic: n.Cinematic,
	}
	for _, c := range n.Choices {
		m := map[string]any{
			"id":      c.ID,
			"label":   c.Label,
			"next_id": c.NextID,
		}
		if len(c.Grants) > 0 {
			m["grants"] = c.Grants
		}
		if len(c.Requires) > 0 {
			m["requires"] = c.Requires
		}
		if c.Cost != 0 {
			m["cost"] = c.Cost
		}
		meta.Choices = append(meta.Choices, m)
	}
	return meta
}

func fromMetadata(id string, meta NodeMetadata, content string) (domain.Node, error) {
	n := domain.Node{
		ID:        id,
		Title:     meta.Title,
		Body:      strings.TrimSpace(content),
		Category:  domain.Category(meta.Category),
		Choices:   []domain.Choice{},
		Cost:      meta.Cost,
		Cinematic: meta.Cinematic,
	}
	if len(meta.Grants) > 0 {
		n.Grants = meta.Grants
	}
	if len(meta.Requires) > 0 {
		n.Requires = meta.Requires
	}
	if len(meta.Choices) > 0 {
		if err := decode(meta.Choices, &n.Choices); err != nil {
			return domain.Node{}, fmt.Errorf("choices: %w", err)
		}
	}
	return n, nil
}

func encodeManifest(tree Tree) map[string]any {
	meta := map[string]any{
		"title":   tree.Meta.Title,
		"version": tree.Meta.Version,
		"root_id": tree.Meta.RootID,
	}
	if t := tree.Meta.Targets; t != nil {
		meta["targets"] = map[string]any{
			"endings":           t.Endings,
			"golden_path_nodes": t.GoldenPathNodes,
			"skill_checks":      t.SkillChecks,
			"branching_points":  t.BranchingPoints,
		}
	}
	rules := make([]any, 0, len(tree.Tokens.Chrono.EarnRules))
	for _, r := range tree.Tokens.Chrono.EarnRules {
		rules = append(rules, map[string]any{"action": r.Action, "amount": r.Amount})
	}
	return map[string]any{
		"meta": meta,
		"tokens": map[string]any{
			"chrono": map[string]any{
				"start":      tree.Tokens.Chrono.Start,
				"earn_rules": rules,
			},
		},
	}
}

func decodeManifest(raw map[string]any, tree *Tree) error {
	if len(raw) == 0 {
		return nil
	}
	if err := decode(raw, tree); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	return nil
}

// decode maps loosely typed frontmatter onto the json-tagged domain types.
func decode(input, output any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           output,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
