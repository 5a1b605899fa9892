package assembler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/atlas/internal/logging"
	"github.com/aretw0/atlas/pkg/validator"
	"github.com/aretw0/atlas/pkg/domain"
)

// TimeFormat is the layout of meta.updated_utc.
const TimeFormat = "2006-01-02T15:04:05.000000Z"

// MetaTemplate carries the authored part of the envelope. Counters are not
// part of it: they are always derived from the node list.
type MetaTemplate struct {
	Title       string          `json:"title" yaml:"title"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string          `json:"version" yaml:"version"`
	RootID      string          `json:"root_id" yaml:"root_id"`
	Targets     *domain.Targets `json:"targets,omitempty" yaml:"targets,omitempty"`
}

// Option configures Assemble.
type Option func(*options)

type options struct {
	clock     func() time.Time
	validator []validator.Option
	logger    *slog.Logger
}

// WithClock replaces time.Now as the source of meta.updated_utc.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithValidatorOptions forwards options to the validation run.
func WithValidatorOptions(opts ...validator.Option) Option {
	return func(o *options) {
		o.validator = append(o.validator, opts...)
	}
}

// WithLogger sets the logger used to report warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Assemble produces the final document from nodes.
//
// The operation is all-or-nothing: when validation finds a fatal violation no
// document is returned, only the report and its aggregated error. Warnings
// are returned in the report next to the document.
func Assemble(nodes []domain.Node, tmpl MetaTemplate, tokens domain.Tokens, opts ...Option) (*domain.Document, *validator.Report, error) {
	o := &options{clock: time.Now, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	if len(nodes) == 0 {
		return nil, nil, &domain.EmptyGraphError{Reason: "no nodes"}
	}
	if tmpl.RootID == "" {
		return nil, nil, &domain.EmptyGraphError{Reason: "root_id is not set"}
	}

	copied := make([]domain.Node, len(nodes))
	for i, n := range nodes {
		copied[i] = n.Clone()
	}

	tally := domain.Count(copied)
	doc := &domain.Document{
		Meta: domain.Meta{
			Title:           tmpl.Title,
			Description:     tmpl.Description,
			Version:         tmpl.Version,
			UpdatedUTC:      o.clock().UTC().Format(TimeFormat),
			TotalNodes:      tally.Total,
			Endings:         tally.Endings,
			GoldenPathNodes: tally.GoldenPathNodes,
			SkillChecks:     tally.SkillChecks,
			BranchingPoints: tally.BranchingPoints,
			Targets:         cloneTargets(tmpl.Targets),
		},
		RootID: tmpl.RootID,
		Tokens: tokens.Clone(),
		Nodes:  copied,
	}

	report := validator.Validate(doc, o.validator...)
	if err := report.Err(); err != nil {
		o.logger.Error("Assembly discarded", "fatal", len(report.Fatal()), "warnings", len(report.Warnings()))
		return nil, report, fmt.Errorf("assemble %q: %w", tmpl.Title, err)
	}

	for _, w := range report.Warnings() {
		o.logger.Warn("Validation warning", "kind", w.Kind(), "detail", w.Error())
	}
	o.logger.Debug("Document assembled", "nodes", tally.Total, "endings", tally.Endings)

	return doc, report, nil
}

// FromRegistry is a convenience for assembling every node in nodes order.
func FromRegistry(all interface{ All() []domain.Node }, tmpl MetaTemplate, tokens domain.Tokens, opts ...Option) (*domain.Document, *validator.Report, error) {
	return Assemble(all.All(), tmpl, tokens, opts...)
}

func cloneTargets(t *domain.Targets) *domain.Targets {
	if t == nil {
		return nil
	}
	out := *t
	return &out
}
