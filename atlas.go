package atlas

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/atlas/internal/logging"
	"github.com/aretw0/atlas/pkg/validator"
	"github.com/aretw0/atlas/pkg/adapters/file"
	loamAdapter "github.com/aretw0/atlas/pkg/adapters/loam"
	"github.com/aretw0/atlas/pkg/assembler"
	"github.com/aretw0/atlas/pkg/blueprint"
	"github.com/aretw0/atlas/pkg/domain"
	"github.com/aretw0/atlas/pkg/merge"
	"github.com/aretw0/atlas/pkg/ports"
	"github.com/aretw0/atlas/pkg/report"
)

// Version of the atlas toolchain.
const Version = "0.4.0"

// Engine is the high-level entry point for the Atlas library.
// It wires the build pipeline (builder, assembler, validator, reporter)
// to the optional build archive.
type Engine struct {
	logger        *slog.Logger
	clock         func() time.Time
	archive       ports.BuildArchive
	validatorOpts []validator.Option
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source used for meta.updated_utc.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithArchive records every emitted document in the given ledger.
func WithArchive(a ports.BuildArchive) Option {
	return func(e *Engine) {
		e.archive = a
	}
}

// WithValidatorOptions adds audit checks applied to every validation.
func WithValidatorOptions(opts ...validator.Option) Option {
	return func(e *Engine) {
		e.validatorOpts = append(e.validatorOpts, opts...)
	}
}

// New initializes a new Atlas Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.clock == nil {
		eng.clock = time.Now
	}
	return eng
}

// Result is the outcome of a successful pipeline run.
type Result struct {
	Document *domain.Document
	Report   *validator.Report
	Summary  report.Summary
	// Record is set when an archive is configured.
	Record *ports.BuildRecord
}

// Build runs the full pipeline on a blueprint. It returns a
// *domain.BuildError when the definitions themselves are invalid, and a
// *domain.ValidationError (with the report still available through
// domain.Violations) when the assembled graph has fatal violations.
func (e *Engine) Build(ctx context.Context, bp *blueprint.Blueprint) (*Result, error) {
	nodes, err := bp.Build()
	if err != nil {
		e.logger.Error("blueprint build failed", "err", err)
		return nil, err
	}
	return e.assemble(ctx, nodes, bp.Meta, bp.Tokens, bp.ValidatorOptions()...)
}

// Merge combines chunk documents and assembles the result.
func (e *Engine) Merge(ctx context.Context, chunks []file.Chunk) (*Result, []merge.ChunkStats, error) {
	merged, err := merge.Chunks(chunks)
	if err != nil {
		e.logger.Error("merge failed", "chunks", len(chunks), "err", err)
		return nil, nil, err
	}
	for _, c := range merged.Chunks {
		e.logger.Debug("chunk merged", "chunk", c.Name, "nodes", c.Tally.Total, "cross_links", c.Links)
	}
	res, err := e.assemble(ctx, merged.Nodes, merged.Meta, merged.Tokens)
	if err != nil {
		return nil, merged.Chunks, err
	}
	return res, merged.Chunks, nil
}

// Import loads a node-per-file tree from a Loam directory and assembles it.
func (e *Engine) Import(ctx context.Context, dir string) (*Result, error) {
	loader, err := loamAdapter.Open(dir, true)
	if err != nil {
		return nil, err
	}
	tree, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", dir, err)
	}
	return e.assemble(ctx, tree.Nodes, tree.Meta, tree.Tokens)
}

// Export writes doc as a node-per-file tree into dir.
func (e *Engine) Export(ctx context.Context, doc *domain.Document, dir string) error {
	loader, err := loamAdapter.Open(dir, false)
	if err != nil {
		return err
	}
	tree := loamAdapter.Tree{
		Meta: assembler.MetaTemplate{
			Title:       doc.Meta.Title,
			Description: doc.Meta.Description,
			Version:     doc.Meta.Version,
			RootID:      doc.RootID,
			Targets:     doc.Meta.Targets,
		},
		Tokens: doc.Tokens,
		Nodes:  doc.Nodes,
	}
	if err := loader.Save(ctx, tree); err != nil {
		return fmt.Errorf("export %s: %w", dir, err)
	}
	e.logger.Info("document exported", "dir", dir, "nodes", len(doc.Nodes))
	return nil
}

// Validate checks an already assembled document without modifying it.
func (e *Engine) Validate(doc *domain.Document, opts ...validator.Option) *validator.Report {
	all := append(append([]validator.Option{}, e.validatorOpts...), opts...)
	rep := validator.Validate(doc, all...)
	e.logger.Debug("document validated",
		"nodes", len(doc.Nodes),
		"fatal", len(rep.Fatal()),
		"warnings", len(rep.Warnings()),
	)
	return rep
}

func (e *Engine) assemble(ctx context.Context, nodes []domain.Node, tmpl assembler.MetaTemplate, tokens domain.Tokens, extra ...validator.Option) (*Result, error) {
	vopts := append(append([]validator.Option{}, e.validatorOpts...), extra...)
	doc, rep, err := assembler.Assemble(nodes, tmpl, tokens,
		assembler.WithClock(e.clock),
		assembler.WithLogger(e.logger),
		assembler.WithValidatorOptions(vopts...),
	)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Document: doc,
		Report:   rep,
		Summary:  report.Summarize(doc),
	}

	if e.archive != nil {
		rec, err := e.archive.Record(ctx, doc, len(rep.Warnings()))
		if err != nil {
			return nil, fmt.Errorf("archive build: %w", err)
		}
		res.Record = &rec
		e.logger.Info("build archived", "id", rec.ID, "hash", rec.Hash, "unchanged", rec.Unchanged)
	}
	return res, nil
}
