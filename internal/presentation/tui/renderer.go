package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/atlas/pkg/domain"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewRenderer returns a function that renders markdown.
// On a terminal it uses glamour with auto style and wraps at the terminal
// width; otherwise markdown is passed through unchanged.
func NewRenderer(f *os.File) func(string) (string, error) {
	if f == nil || !IsTerminal(f) {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// NodeMarkdown formats a node as a markdown page: title, body and choices.
func NodeMarkdown(n domain.Node) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", n.Title)
	fmt.Fprintf(&sb, "`%s` · %s\n\n", n.ID, n.EffectiveCategory())
	if body := strings.TrimSpace(n.Body); body != "" {
		sb.WriteString(body)
		sb.WriteString("\n\n")
	}

	if len(n.Grants) > 0 {
		fmt.Fprintf(&sb, "Grants: %s\n\n", strings.Join(n.Grants, ", "))
	}
	if key := n.AnimationKey(); key != "" {
		fmt.Fprintf(&sb, "Animation: `%s`\n\n", key)
	}

	if n.IsTerminal() {
		sb.WriteString("_End of path._\n")
		return sb.String()
	}

	sb.WriteString("## Choices\n\n")
	for _, c := range n.Choices {
		fmt.Fprintf(&sb, "- **%s** → `%s`", c.Label, c.NextID)
		var notes []string
		if len(c.Requires) > 0 {
			notes = append(notes, "requires "+strings.Join(c.Requires, ", "))
		}
		if len(c.Grants) > 0 {
			notes = append(notes, "grants "+strings.Join(c.Grants, ", "))
		}
		if c.Cost > 0 {
			notes = append(notes, fmt.Sprintf("costs %d", c.Cost))
		}
		if len(notes) > 0 {
			fmt.Fprintf(&sb, " (%s)", strings.Join(notes, "; "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
