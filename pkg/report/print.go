package report

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// Print writes a human-readable summary block to w. Colours are applied only
// when w is a terminal that supports them.
func Print(w io.Writer, s Summary) {
	out := termenv.NewOutput(w)
	heading := out.String(fmt.Sprintf("%s v%s", s.Title, s.Version)).Bold().Foreground(out.Color("#818cf8"))
	label := func(text string) termenv.Style {
		return out.String(text).Foreground(out.Color("#a78bfa"))
	}

	fmt.Fprintln(w, heading)
	fmt.Fprintf(w, "%s %d\n", label("Total nodes:  "), s.TotalNodes)
	fmt.Fprintf(w, "%s %d\n", label("Endings:      "), s.Endings)
	fmt.Fprintf(w, "%s %d\n", label("Skill checks: "), s.SkillChecks)
	fmt.Fprintf(w, "%s %d\n", label("Golden path:  "), s.GoldenPathNodes)
	fmt.Fprintf(w, "%s %d\n", label("Branching:    "), s.BranchingPoints)
	fmt.Fprintf(w, "%s %d\n", label("Start tokens: "), s.StartTokens)

	fmt.Fprintln(w)
	fmt.Fprintln(w, out.String("Node distribution").Bold())
	for _, b := range s.Buckets {
		if b.Count == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-14s %d\n", b.Label+":", b.Count)
	}
}
