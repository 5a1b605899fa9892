package validator

import "github.com/aretw0/atlas/pkg/domain"

// Report is the complete outcome of one validation run.
type Report struct {
	// Violations holds every finding in detection order.
	Violations []domain.Violation

	Tally     domain.Tally
	Reachable map[string]struct{}

	TokenBudget int
	MaxCost     int
	Flags       int
	Facts       []string
}

func (r *Report) add(v domain.Violation) {
	r.Violations = append(r.Violations, v)
}

// Fatal returns the violations that discard a document.
func (r *Report) Fatal() []domain.Violation {
	return r.filter(func(v domain.Violation) bool { return v.Severity() == domain.SeverityFatal })
}

// Warnings returns the advisory violations.
func (r *Report) Warnings() []domain.Violation {
	return r.filter(func(v domain.Violation) bool { return v.Severity() == domain.SeverityWarning })
}

// OfKind returns the violations of one class.
func (r *Report) OfKind(k domain.Kind) []domain.Violation {
	return r.filter(func(v domain.Violation) bool { return v.Kind() == k })
}

// OK reports whether there is no fatal violation.
func (r *Report) OK() bool {
	return len(r.Fatal()) == 0
}

// Clean reports whether there is no violation at all.
func (r *Report) Clean() bool {
	return len(r.Violations) == 0
}

// Err returns a *domain.ValidationError holding the fatal violations, or nil.
func (r *Report) Err() error {
	fatal := r.Fatal()
	if len(fatal) == 0 {
		return nil
	}
	return &domain.ValidationError{Violations: fatal}
}

// Unreachable returns the ids reported as unreachable, in node order.
func (r *Report) Unreachable() []string {
	var ids []string
	for _, v := range r.OfKind(domain.KindUnreachableNode) {
		ids = append(ids, v.(*domain.UnreachableNodeError).NodeID)
	}
	return ids
}

func (r *Report) filter(keep func(domain.Violation) bool) []domain.Violation {
	var out []domain.Violation
	for _, v := range r.Violations {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// Finding is the serializable form of a violation.
type Finding struct {
	Kind     domain.Kind `json:"kind"`
	Severity string      `json:"severity"`
	Message  string      `json:"message"`
}

// View is the serializable form of a report.
type View struct {
	OK          bool         `json:"ok"`
	Clean       bool         `json:"clean"`
	Tally       domain.Tally `json:"tally"`
	Violations  []Finding    `json:"violations"`
	Unreachable []string     `json:"unreachable,omitempty"`
	TokenBudget int          `json:"token_budget"`
	MaxCost     int          `json:"max_cost"`
	Flags       int          `json:"flags"`
	Facts       []string     `json:"facts,omitempty"`
}

// View flattens the report for JSON output.
func (r *Report) View() View {
	v := View{
		OK:          r.OK(),
		Clean:       r.Clean(),
		Tally:       r.Tally,
		Violations:  make([]Finding, 0, len(r.Violations)),
		Unreachable: r.Unreachable(),
		TokenBudget: r.TokenBudget,
		MaxCost:     r.MaxCost,
		Flags:       r.Flags,
		Facts:       r.Facts,
	}
	for _, viol := range r.Violations {
		v.Violations = append(v.Violations, Finding{
			Kind:     viol.Kind(),
			Severity: viol.Severity().String(),
			Message:  viol.Error(),
		})
	}
	return v
}
