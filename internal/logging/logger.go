package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
	"golang.org/x/term"
)

// Options tunes New.
type Options struct {
	// Output defaults to os.Stderr so stdout stays free for scripts and JSON.
	Output io.Writer

	// Audit, when set, also receives every record as JSON.
	Audit io.Writer

	// NoColor forces the plain text handler even on a terminal.
	NoColor bool
}

// New creates a configured application logger.
// It standardizes common keys (e.g., "error" -> "err").
func New(level slog.Level, opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var handler slog.Handler
	if !opts.NoColor && isTerminal(out) {
		handler = tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05.000",
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a = renameError(groups, a)
				if _, ok := a.Value.Any().(error); ok {
					return tint.Attr(9, a)
				}
				return a
			},
		})
	} else {
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: renameError,
		})
	}

	if opts.Audit != nil {
		audit := slog.NewJSONHandler(opts.Audit, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: renameError,
		})
		handler = slogmulti.Fanout(handler, audit)
	}
	return slog.New(handler)
}

// ParseLevel maps "debug", "info", "warn" and "error" to a slog level.
// Unknown strings yield slog.LevelInfo.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func renameError(_ []string, a slog.Attr) slog.Attr {
	if a.Key == "error" {
		a.Key = "err"
	}
	return a
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
