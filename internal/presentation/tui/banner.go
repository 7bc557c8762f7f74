package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the proofweave ASCII banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.EnvColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"                        __                               ", "#34d399"},
		{"   ___  _______  ___  / _/    _____ ___ __  _____       ", "#2dd4bf"},
		{"  / _ \\/ __/ _ \\/ _ \\/ _/ |/|/ / -_) _ `/ |/ / -_)   ", "#22d3ee"},
		{" / .__/_/  \\___/\\___/_/ |__,__/\\__/\\_,_/|___/\\__/ ", "#38bdf8"},
		{"/_/                                                      ", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Status renders a one-line proof status, green when the proof is complete.
func Status(complete bool, openGoals int) string {
	p := termenv.EnvColorProfile()
	if complete {
		return termenv.String("✔ proof complete").Foreground(p.Color("#22c55e")).Bold().String()
	}
	return termenv.String(fmt.Sprintf("● %d open goal(s)", openGoals)).Foreground(p.Color("#f59e0b")).String()
}
