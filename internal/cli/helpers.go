package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/aretw0/proofweave/internal/presentation/tui"
	"github.com/aretw0/proofweave/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
		sc.stop.Do(func() {
			signal.Stop(sc.sigCh)
		})
	}()

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// Printer writes command results either as text or as JSON.
type Printer struct {
	Out  io.Writer
	JSON bool

	// Render turns markdown into terminal output. Nil prints the markdown.
	Render func(string) (string, error)
}

// SystemMessage prints a standardized system message. It is silent in JSON mode.
func (p *Printer) SystemMessage(format string, args ...any) {
	if p.JSON {
		return
	}
	fmt.Fprintf(p.Out, ">>> %s\n", fmt.Sprintf(format, args...))
}

// Value prints v as indented JSON.
func (p *Printer) Value(v any) error {
	enc := json.NewEncoder(p.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Markdown prints md through the renderer.
func (p *Printer) Markdown(md string) error {
	if p.Render != nil {
		out, err := p.Render(md)
		if err == nil {
			md = out
		}
	}
	_, err := io.WriteString(p.Out, md)
	return err
}

// View prints a session: its proof states, open goals and latest run.
func (p *Printer) View(v View) error {
	if p.JSON {
		return p.Value(v)
	}

	fmt.Fprintf(p.Out, "Session %s (generation %d, %s mode)\n", v.ID, v.Generation, v.Mode)
	fmt.Fprintln(p.Out, tui.Status(v.Complete, len(v.OpenGoals)))

	open := make(map[string]bool, len(v.OpenGoals))
	for _, id := range v.OpenGoals {
		open[id] = true
	}
	for _, n := range v.Nodes {
		if n.Type == domain.NodeGoal {
			continue
		}
		marker := " "
		if open[n.ID] {
			marker = "○"
		}
		fmt.Fprintf(p.Out, "  %s %s  %s\n", marker, n.ID, lastLine(n.Label))
	}
	for _, e := range v.Edges {
		if e.IsOpen() {
			continue
		}
		fmt.Fprintf(p.Out, "    %s: %s --%s--> %s\n", e.ID, e.Source, e.Tactic, e.Target)
	}

	if v.Outcome != nil {
		fmt.Fprintln(p.Out)
		return p.Markdown(tui.OutcomeMarkdown(*v.Outcome))
	}
	return nil
}

func lastLine(label string) string {
	if i := strings.LastIndexByte(label, '\n'); i >= 0 {
		return label[i+1:]
	}
	return label
}
