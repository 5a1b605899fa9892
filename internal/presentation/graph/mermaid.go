package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/atlas/pkg/domain"
)

// GraphOverlay contains state data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
	// Unreachable nodes are highlighted as orphans.
	Unreachable []string
}

// GenerateMermaid produces a Mermaid flowchart from a document.
// It applies semantic styling by effective category:
// - Root: ((Circle))
// - Skill check: {Rhombus}
// - Hub: {{Hexagon}}
// - Error: [[Subroutine]]
// - Ending: ([Stadium])
// - Default: [Rectangle]
// Choices gated by requires are drawn dotted.
func GenerateMermaid(doc *domain.Document, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range doc.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case node.ID == doc.RootID:
			opener, closer = "((", "))"
		case node.IsTerminal():
			opener, closer = "([", "])"
		default:
			switch node.EffectiveCategory() {
			case domain.CategorySkillCheck:
				opener, closer = "{", "}"
			case domain.CategoryHub:
				opener, closer = "{{", "}}"
			case domain.CategoryError:
				opener, closer = "[[", "]]"
			}
		}

		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(node.ID), closer)

		for _, c := range node.Choices {
			safeTo := sanitizeMermaidID(c.NextID)
			label := escapeLabel(c.Label)
			if label == "" {
				label = escapeLabel(c.ID)
			}
			arrow := fmt.Sprintf("-- \"%s\" -->", label)
			if len(c.Requires) > 0 {
				arrow = fmt.Sprintf("-. \"%s\" .->", label)
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, safeTo)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast regardless of theme.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef orphan fill:#ffebee,stroke:#c62828,stroke-dasharray:4 2,color:#000;\n")

		writeClass(&sb, "visited", overlay.VisitedNodes)
		writeClass(&sb, "orphan", overlay.Unreachable)
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func writeClass(sb *strings.Builder, class string, ids []string) {
	seen := make(map[string]bool)
	for _, id := range ids {
		safeID := sanitizeMermaidID(id)
		if safeID == "" || seen[safeID] {
			continue
		}
		seen[safeID] = true
		fmt.Fprintf(sb, "    class %s %s;\n", safeID, class)
	}
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
