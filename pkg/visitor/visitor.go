// Package visitor encodes what a narrative runtime does with a document:
// start at the root, filter choices by held flags, apply grants and costs,
// and stop at a node without choices.
//
// It holds no session and performs no I/O. It exists so that the shape of an
// assembled document can be exercised the way a player would.
package visitor

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/aretw0/atlas/pkg/domain"
)

// ErrTerminal is returned by Select on a node that has no choices.
var ErrTerminal = errors.New("node is terminal")

// ChoiceUnavailableError is returned when the selected choice does not exist
// or is gated by flags the state does not hold, on the choice itself or on
// the node it leads to.
type ChoiceUnavailableError struct {
	NodeID   string
	ChoiceID string
	Missing  []string
}

func (e *ChoiceUnavailableError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("node %q has no choice %q", e.NodeID, e.ChoiceID)
	}
	return fmt.Sprintf("choice %q of node %q requires %v", e.ChoiceID, e.NodeID, e.Missing)
}

// InsufficientTokensError is returned when a selection would overdraw the
// token balance.
type InsufficientTokensError struct {
	Cost    int
	Balance int
}

func (e *InsufficientTokensError) Error() string {
	return fmt.Sprintf("cost %d exceeds balance %d", e.Cost, e.Balance)
}

// State is the visitor's position, held flags and token balance.
// States are values; Select returns a new one.
type State struct {
	Current string          `json:"current"`
	Grants  map[string]bool `json:"grants,omitempty"`
	Tokens  int             `json:"tokens"`
	Path    []string        `json:"path"`
}

// Has reports whether flag is held.
func (s State) Has(flag string) bool {
	return s.Grants[flag]
}

// Flags returns the held flags sorted.
func (s State) Flags() []string {
	out := make([]string, 0, len(s.Grants))
	for f := range s.Grants {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (s State) clone() State {
	out := s
	out.Grants = make(map[string]bool, len(s.Grants))
	for k, v := range s.Grants {
		out.Grants[k] = v
	}
	out.Path = slices.Clone(s.Path)
	return out
}

// Start places a new visitor at the root, seeded with tokens.chrono.start,
// and applies the root's own grants and cost.
func Start(doc *domain.Document) (State, error) {
	root, ok := doc.Node(doc.RootID)
	if !ok {
		return State{}, &domain.MissingRootError{RootID: doc.RootID}
	}
	s := State{
		Grants: make(map[string]bool),
		Tokens: doc.Tokens.Chrono.Start,
	}
	return enter(s, root), nil
}

// Available returns the choices of node that can be taken, in authored
// order: the choice's requirements are held, and so are those of its target
// node once the choice's own grants apply.
func Available(doc *domain.Document, node domain.Node, s State) []domain.Choice {
	var out []domain.Choice
	for _, c := range node.Choices {
		if len(gate(doc, c, s)) == 0 {
			out = append(out, c)
		}
	}
	return out
}

// Select applies the choice with id choiceID of the current node: its cost
// and grants, then the target node's cost and grants.
func Select(doc *domain.Document, s State, choiceID string) (State, error) {
	current, ok := doc.Node(s.Current)
	if !ok {
		return s, &domain.UnknownIDError{ID: s.Current}
	}
	if IsTerminal(current) {
		return s, ErrTerminal
	}

	idx := slices.IndexFunc(current.Choices, func(c domain.Choice) bool { return c.ID == choiceID })
	if idx < 0 {
		return s, &ChoiceUnavailableError{NodeID: current.ID, ChoiceID: choiceID}
	}
	choice := current.Choices[idx]

	next, ok := doc.Node(choice.NextID)
	if !ok {
		return s, &domain.DanglingReferenceError{NodeID: current.ID, ChoiceID: choice.ID, Target: choice.NextID}
	}
	if m := gate(doc, choice, s); len(m) > 0 {
		return s, &ChoiceUnavailableError{NodeID: current.ID, ChoiceID: choiceID, Missing: m}
	}
	if cost := choice.Cost + next.Cost; cost > s.Tokens {
		return s, &InsufficientTokensError{Cost: cost, Balance: s.Tokens}
	}

	out := s.clone()
	out.Tokens -= choice.Cost
	for _, f := range choice.Grants {
		out.Grants[f] = true
	}
	return enter(out, next), nil
}

// IsTerminal reports whether node ends the session.
func IsTerminal(node domain.Node) bool {
	return node.IsTerminal()
}

func enter(s State, n domain.Node) State {
	s.Current = n.ID
	s.Path = append(s.Path, n.ID)
	s.Tokens -= n.Cost
	for _, f := range n.Grants {
		s.Grants[f] = true
	}
	return s
}

// gate returns the flags that block choice: its own requirements, then those
// of its target node not covered by the choice's grants.
func gate(doc *domain.Document, choice domain.Choice, s State) []string {
	out := missing(choice.Requires, s)
	next, ok := doc.Node(choice.NextID)
	if !ok {
		return out
	}
	for _, f := range next.Requires {
		if !s.Has(f) && !slices.Contains(choice.Grants, f) && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

func missing(required []string, s State) []string {
	var out []string
	for _, f := range required {
		if !s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}
