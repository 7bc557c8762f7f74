package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/proofweave/internal/cli"
	"github.com/aretw0/proofweave/internal/config"
	"github.com/aretw0/proofweave/internal/logging"
	"github.com/aretw0/proofweave/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "proofweave",
	Short: "Proofweave builds inequality proofs as a graph of tactic applications",
	Long: `Proofweave lets you prove inequalities by applying tactics to open goals.
Every edit regenerates a proof script, which an evaluator runs and checks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to the configuration file (default ./"+config.FileName+")")
	rootCmd.PersistentFlags().String("server", "", "Send commands to a running proofweave server instead of the local store")
	rootCmd.PersistentFlags().Bool("json", false, "Print JSON instead of formatted text")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides the config file)")
	rootCmd.PersistentFlags().String("audit", "", "Append a JSON audit log of every record to this file")
}

// env is what every command needs: the configuration, a logger and the
// resources to release when done.
type env struct {
	cfg     config.Config
	logger  *slog.Logger
	closers []io.Closer
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			e.logger.Warn("cleanup failed", "err", err)
		}
	}
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if audit, _ := cmd.Flags().GetString("audit"); audit != "" {
		cfg.Log.Audit = audit
	}

	e := &env{cfg: cfg}
	opts := logging.Options{}
	if cfg.Log.Audit != "" {
		f, err := os.OpenFile(cfg.Log.Audit, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
		opts.Audit = f
		e.closers = append(e.closers, f)
	}
	e.logger = logging.New(logging.ParseLevel(cfg.Log.Level), opts)
	return e, nil
}

// openBackend returns the backend the session commands talk to.
func openBackend(cmd *cobra.Command) (cli.Backend, *env, error) {
	e, err := loadEnv(cmd)
	if err != nil {
		return nil, nil, err
	}

	if server, _ := cmd.Flags().GetString("server"); server != "" {
		e.logger.Debug("using remote backend", "server", server)
		return cli.NewRemote(server), e, nil
	}

	rt, err := cli.CreateEngine(e.cfg, e.logger)
	if err != nil {
		e.Close()
		return nil, nil, err
	}
	e.closers = append(e.closers, rt)
	return &cli.Local{Engine: rt.Engine, Direction: e.cfg.Direction}, e, nil
}

func newPrinter(cmd *cobra.Command) *cli.Printer {
	jsonMode, _ := cmd.Flags().GetBool("json")
	p := &cli.Printer{Out: cmd.OutOrStdout(), JSON: jsonMode}
	if !jsonMode {
		p.Render = tui.NewRenderer()
	}
	return p
}
