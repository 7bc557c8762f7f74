package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Without a terminal style it falls back to the raw markdown.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// ScriptMarkdown wraps a generated script in a fenced code block.
func ScriptMarkdown(script string) string {
	return "```python\n" + script + "\n```\n"
}

// OutcomeMarkdown describes the latest evaluator run.
func OutcomeMarkdown(out domain.Outcome) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Run %d\n\n", out.Generation)

	switch {
	case out.Error != "":
		fmt.Fprintf(&sb, "**Error:** `%s`\n\n", out.Error)
	case out.ProofComplete:
		sb.WriteString("**Proof complete.**\n\n")
	default:
		sb.WriteString("**Proof incomplete.**\n\n")
	}
	if out.FinalValue != nil {
		fmt.Fprintf(&sb, "Result: `%v`\n\n", out.FinalValue)
	}
	if len(out.Console) > 0 {
		sb.WriteString("```text\n")
		sb.WriteString(strings.Join(out.Console, "\n"))
		sb.WriteString("\n```\n")
	}
	return sb.String()
}
