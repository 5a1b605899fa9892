package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for Atlas.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text, color string
	}{
		{"     _   _   _           ", "#818cf8"},
		{"    / \\ | |_| | __ _ ___ ", "#a78bfa"},
		{"   / _ \\| __| |/ _` / __|", "#c084fc"},
		{"  / ___ \\ |_| | (_| \\__ \\", "#e879f9"},
		{" /_/   \\_\\__|_|\\__,_|___/", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
