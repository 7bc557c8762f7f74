// Package process runs proof scripts through an external evaluator program.
//
// The script is written to the program's stdin. The program answers with one
// JSON object, on the last non-empty line of stdout:
//
//	{"result": ..., "stdout": ["..."], "output": {"nodes": [...], "edges": [...], "proof_complete": false}, "error": ""}
//
// Lines printed before the reply are kept as console output.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/aretw0/proofweave/internal/logging"
	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// ErrTimeout is returned when the evaluator does not answer within Config.Timeout.
var ErrTimeout = errors.New("evaluator timed out")

// reply is the JSON object the evaluator prints.
type reply struct {
	Result any               `mapstructure:"result"`
	Stdout []string          `mapstructure:"stdout"`
	Output *domain.ProofTree `mapstructure:"output"`
	Error  string            `mapstructure:"error"`
}

// Evaluator implements ports.Evaluator by spawning one process per execution.
type Evaluator struct {
	cfg         Config
	logger      *slog.Logger
	gracePeriod time.Duration
}

// Option configures the evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithGracePeriod sets how long a cancelled process may take to exit after the
// interrupt before it is killed.
func WithGracePeriod(d time.Duration) Option {
	return func(e *Evaluator) {
		e.gracePeriod = d
	}
}

// New creates an evaluator for cfg.
func New(cfg Config, opts ...Option) *Evaluator {
	e := &Evaluator{
		cfg:         cfg,
		logger:      logging.NewNop(),
		gracePeriod: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs script and decodes the evaluator's reply.
func (e *Evaluator) Execute(ctx context.Context, script string) (*domain.Result, error) {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.cfg.Command, e.cfg.Args...)
	cmd.Dir = e.cfg.Dir
	cmd.Env = os.Environ()
	for k, v := range e.cfg.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stdin = strings.NewReader(script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Interrupt first so well-behaved evaluators can clean up.
	cmd.Cancel = func() error {
		if err := cmd.Process.Signal(os.Interrupt); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
	cmd.WaitDelay = e.gracePeriod

	start := time.Now()
	runErr := cmd.Run()
	e.logger.Debug("evaluator exited", "command", e.cfg.Command, "duration", time.Since(start), "err", runErr)

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) && e.cfg.Timeout > 0 {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, e.cfg.Timeout)
		}
		return nil, ctxErr
	}

	var execErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &execErr) {
		return nil, fmt.Errorf("failed to start evaluator %q: %w", e.cfg.Command, runErr)
	}

	console, payload := splitReply(stdout.String())
	if payload == "" {
		if runErr != nil {
			return nil, &domain.ExecutionError{
				Message: fmt.Sprintf("evaluator exited: %v: %s", runErr, strings.TrimSpace(stderr.String())),
				Console: console,
			}
		}
		return nil, &domain.ExecutionError{Message: "evaluator produced no reply", Console: console}
	}

	rep, err := decodeReply(payload)
	if err != nil {
		return nil, &domain.ExecutionError{Message: err.Error(), Console: console}
	}
	console = append(console, rep.Stdout...)

	if rep.Error != "" {
		return nil, &domain.ExecutionError{Message: rep.Error, Console: console}
	}
	if runErr != nil {
		return nil, &domain.ExecutionError{Message: fmt.Sprintf("evaluator exited: %v", runErr), Console: console}
	}
	if rep.Output == nil {
		return nil, &domain.ExecutionError{Message: "evaluator reply has no proof tree", Console: console}
	}

	return &domain.Result{
		FinalValue: rep.Result,
		Console:    console,
		Tree:       *rep.Output,
	}, nil
}

// splitReply separates the last non-empty line of out from the lines before it.
func splitReply(out string) (console []string, payload string) {
	lines := strings.Split(strings.TrimRight(out, "\r\n \t"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "{") {
			payload = line
			lines = lines[:i]
		}
		break
	}
	for _, l := range lines {
		l = strings.TrimRight(l, "\r")
		if l != "" {
			console = append(console, l)
		}
	}
	return console, payload
}

func decodeReply(payload string) (reply, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return reply{}, fmt.Errorf("malformed evaluator reply: %w", err)
	}

	var rep reply
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rep,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return reply{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return reply{}, fmt.Errorf("unexpected evaluator reply: %w", err)
	}
	return rep, nil
}

// Close is a no-op; processes do not outlive Execute.
func (e *Evaluator) Close() error {
	return nil
}
