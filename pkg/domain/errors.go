package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Severity decides whether a violation discards the document.
type Severity int

const (
	// SeverityWarning is advisory. The document is still emitted.
	SeverityWarning Severity = iota
	// SeverityFatal makes the document unusable by a runtime.
	SeverityFatal
)

func (s Severity) String() string {
	if s == SeverityFatal {
		return "fatal"
	}
	return "warning"
}

// Kind identifies a violation class.
type Kind string

const (
	KindDuplicateID       Kind = "duplicate_id"
	KindUnknownID         Kind = "unknown_id"
	KindDanglingReference Kind = "dangling_reference"
	KindUnreachableNode   Kind = "unreachable_node"
	KindMetadataMismatch  Kind = "metadata_mismatch"
	KindEmptyGraph        Kind = "empty_graph"
	KindMissingRoot       Kind = "missing_root"
	KindOpenChain         Kind = "open_chain"
	KindChoiceShape       Kind = "choice_shape"
	KindNodeShape         Kind = "node_shape"
	KindTokenEconomy      Kind = "token_economy"
	KindMissingFlag       Kind = "missing_flag"
	KindMissingAnimation  Kind = "missing_animation"
)

// Violation is an error that carries its class and severity.
type Violation interface {
	error
	Kind() Kind
	Severity() Severity
}

// ErrEmptyGraph is matched by every EmptyGraphError.
var ErrEmptyGraph = errors.New("empty graph")

// DuplicateIDError reports two nodes sharing one id. First and Second name
// the insertion sites, e.g. "opening[0]" and "skill_checks[3]".
type DuplicateIDError struct {
	ID     string
	First  string
	Second string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate node id %q: first defined at %s, again at %s", e.ID, e.First, e.Second)
}
func (e *DuplicateIDError) Kind() Kind { return KindDuplicateID }
func (e *DuplicateIDError) Severity() Severity { return SeverityFatal }

// UnknownIDError is returned by lookups against an id that is not registered.
type UnknownIDError struct {
	ID string
}

func (e *UnknownIDError) Error() string { return fmt.Sprintf("unknown node id %q", e.ID) }
func (e *UnknownIDError) Kind() Kind { return KindUnknownID }
func (e *UnknownIDError) Severity() Severity { return SeverityFatal }

// DanglingReferenceError reports a choice whose next_id does not resolve.
type DanglingReferenceError struct {
	NodeID   string
	ChoiceID string
	Target   string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("node %q choice %q points to missing node %q", e.NodeID, e.ChoiceID, e.Target)
}
func (e *DanglingReferenceError) Kind() Kind { return KindDanglingReference }
func (e *DanglingReferenceError) Severity() Severity { return SeverityFatal }

// UnreachableNodeError reports a node that no path from the root visits.
type UnreachableNodeError struct {
	NodeID string
}

func (e *UnreachableNodeError) Error() string {
	return fmt.Sprintf("node %q is unreachable from root", e.NodeID)
}
func (e *UnreachableNodeError) Kind() Kind { return KindUnreachableNode }
func (e *UnreachableNodeError) Severity() Severity { return SeverityWarning }

// MetadataMismatchError reports a declared counter that disagrees with the
// value derived from the node list.
type MetadataMismatchError struct {
	Field    string
	Declared int
	Actual   int
}

func (e *MetadataMismatchError) Error() string {
	return fmt.Sprintf("meta %s declares %d but nodes yield %d", e.Field, e.Declared, e.Actual)
}
func (e *MetadataMismatchError) Kind() Kind { return KindMetadataMismatch }
func (e *MetadataMismatchError) Severity() Severity { return SeverityWarning }

// EmptyGraphError is returned when there is nothing to assemble.
type EmptyGraphError struct {
	Reason string
}

func (e *EmptyGraphError) Error() string { return "empty graph: " + e.Reason }
func (e *EmptyGraphError) Is(target error) bool { return target == ErrEmptyGraph }
func (e *EmptyGraphError) Kind() Kind { return KindEmptyGraph }
func (e *EmptyGraphError) Severity() Severity { return SeverityFatal }

// MissingRootError reports a root_id that matches no node.
type MissingRootError struct {
	RootID string
}

func (e *MissingRootError) Error() string {
	if e.RootID == "" {
		return "root_id is not set"
	}
	return fmt.Sprintf("root node %q not found", e.RootID)
}
func (e *MissingRootError) Kind() Kind { return KindMissingRoot }
func (e *MissingRootError) Severity() Severity { return SeverityFatal }

// OpenChainError reports a generated chain whose last node neither exits nor
// is declared terminal.
type OpenChainError struct {
	Prefix string
	LastID string
}

func (e *OpenChainError) Error() string {
	return fmt.Sprintf("chain %q dead-ends at %q without exit or terminal flag", e.Prefix, e.LastID)
}
func (e *OpenChainError) Kind() Kind { return KindOpenChain }
func (e *OpenChainError) Severity() Severity { return SeverityFatal }

// ChoiceShapeError reports a malformed choice.
type ChoiceShapeError struct {
	NodeID   string
	Index    int
	ChoiceID string
	Problem  string
}

func (e *ChoiceShapeError) Error() string {
	if e.ChoiceID != "" {
		return fmt.Sprintf("node %q choice %q: %s", e.NodeID, e.ChoiceID, e.Problem)
	}
	return fmt.Sprintf("node %q choice #%d: %s", e.NodeID, e.Index, e.Problem)
}
func (e *ChoiceShapeError) Kind() Kind { return KindChoiceShape }
func (e *ChoiceShapeError) Severity() Severity { return SeverityFatal }

// NodeShapeError reports missing display fields on a node.
type NodeShapeError struct {
	NodeID  string
	Problem string
}

func (e *NodeShapeError) Error() string { return fmt.Sprintf("node %q: %s", e.NodeID, e.Problem) }
func (e *NodeShapeError) Kind() Kind { return KindNodeShape }
func (e *NodeShapeError) Severity() Severity { return SeverityWarning }

// TokenEconomyError reports a cost no player could ever afford.
type TokenEconomyError struct {
	NodeID   string
	ChoiceID string
	Cost     int
	Budget   int
}

func (e *TokenEconomyError) Error() string {
	where := fmt.Sprintf("node %q", e.NodeID)
	if e.ChoiceID != "" {
		where = fmt.Sprintf("node %q choice %q", e.NodeID, e.ChoiceID)
	}
	return fmt.Sprintf("%s costs %d but at most %d tokens can be held", where, e.Cost, e.Budget)
}
func (e *TokenEconomyError) Kind() Kind { return KindTokenEconomy }
func (e *TokenEconomyError) Severity() Severity { return SeverityWarning }

// MissingFlagError reports a required flag that nothing grants.
type MissingFlagError struct {
	Flag string
}

func (e *MissingFlagError) Error() string { return fmt.Sprintf("flag %q is never granted", e.Flag) }
func (e *MissingFlagError) Kind() Kind { return KindMissingFlag }
func (e *MissingFlagError) Severity() Severity { return SeverityWarning }

// MissingAnimationError reports a required animation key no node uses.
type MissingAnimationError struct {
	Key string
}

func (e *MissingAnimationError) Error() string {
	return fmt.Sprintf("animation key %q is not used by any node", e.Key)
}
func (e *MissingAnimationError) Kind() Kind { return KindMissingAnimation }
func (e *MissingAnimationError) Severity() Severity { return SeverityWarning }

// BuildError aggregates every failure found while expanding descriptors.
type BuildError struct {
	Errors []error
}

func (e *BuildError) Error() string {
	return joinErrors("build", e.Errors)
}

// Unwrap exposes members to errors.Is and errors.As.
func (e *BuildError) Unwrap() []error { return e.Errors }

// ValidationError aggregates the fatal violations of one validation run.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	errs := make([]error, len(e.Violations))
	for i, v := range e.Violations {
		errs[i] = v
	}
	return joinErrors("validation", errs)
}

// Unwrap exposes members to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Violations))
	for i, v := range e.Violations {
		errs[i] = v
	}
	return errs
}

func joinErrors(stage string, errs []error) string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s errors:\n", len(errs), stage)
	for i, err := range errs {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// Violations flattens err into the violations it carries. Aggregates are
// expanded; plain errors are skipped.
func Violations(err error) []Violation {
	if err == nil {
		return nil
	}
	var out []Violation
	switch e := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			out = append(out, Violations(inner)...)
		}
	case Violation:
		out = append(out, e)
	default:
		if inner := errors.Unwrap(err); inner != nil {
			out = append(out, Violations(inner)...)
		}
	}
	return out
}
