package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/proofweave/internal/cli"
	"github.com/aretw0/proofweave/internal/presentation/tui"
	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/spf13/cobra"
)

// sessionCommand builds a command that edits or reads one session and
// prints the resulting view.
func sessionCommand(use, short string, args cobra.PositionalArgs, fn func(cmd *cobra.Command, b cli.Backend, id string, args []string) (cli.View, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, e, err := openBackend(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			id, _ := cmd.Flags().GetString("session")
			v, err := fn(cmd, b, id, args)
			if err != nil {
				return err
			}
			return newPrinter(cmd).View(v)
		},
	}
	cmd.Flags().StringP("session", "s", "default", "Session to work on")
	return cmd
}

var newCmd = sessionCommand("new [problem-id]", "Open a session, optionally loading a problem from the library",
	cobra.MaximumNArgs(1),
	func(cmd *cobra.Command, b cli.Backend, id string, args []string) (cli.View, error) {
		ctx := cmd.Context()
		if len(args) == 1 {
			return b.Load(ctx, id, args[0])
		}
		return b.Open(ctx, id)
	})

var showCmd = sessionCommand("show", "Print the proof graph and the latest run of a session",
	cobra.NoArgs,
	func(cmd *cobra.Command, b cli.Backend, id string, _ []string) (cli.View, error) {
		return b.Open(cmd.Context(), id)
	})

var applyCmd = sessionCommand("apply <node-id> <tactic>", "Apply a tactic to an open goal",
	cobra.MinimumNArgs(2),
	func(cmd *cobra.Command, b cli.Backend, id string, args []string) (cli.View, error) {
		lemma, _ := cmd.Flags().GetBool("lemma")
		return b.Apply(cmd.Context(), id, args[0], strings.Join(args[1:], " "), lemma)
	})

var removeCmd = sessionCommand("remove <edge-id>", "Undo the tactic application an edge belongs to",
	cobra.ExactArgs(1),
	func(cmd *cobra.Command, b cli.Backend, id string, args []string) (cli.View, error) {
		return b.Remove(cmd.Context(), id, args[0])
	})

var resetCmd = sessionCommand("reset", "Drop every tactic application of a session",
	cobra.NoArgs,
	func(cmd *cobra.Command, b cli.Backend, id string, _ []string) (cli.View, error) {
		return b.Reset(cmd.Context(), id)
	})

var runCmd = sessionCommand("run", "Run the evaluator on the current script",
	cobra.NoArgs,
	func(cmd *cobra.Command, b cli.Backend, id string, _ []string) (cli.View, error) {
		return b.Run(cmd.Context(), id)
	})

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Print the proof script generated for a session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, e, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		id, _ := cmd.Flags().GetString("session")
		script, err := b.Script(cmd.Context(), id)
		if err != nil {
			return err
		}
		p := newPrinter(cmd)
		if p.JSON {
			return p.Value(map[string]string{"session_id": id, "script": script})
		}
		return p.Markdown(tui.ScriptMarkdown(script))
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a session and its stored snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, e, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		id, _ := cmd.Flags().GetString("session")
		if err := b.Delete(cmd.Context(), id); err != nil {
			return err
		}
		newPrinter(cmd).SystemMessage("Session %s deleted", id)
		return nil
	},
}

var problemsCmd = &cobra.Command{
	Use:   "problems",
	Short: "List the problems in the library",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, e, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		problems, err := b.Problems(cmd.Context())
		if err != nil {
			return err
		}
		p := newPrinter(cmd)
		if p.JSON {
			return p.Value(problems)
		}
		for _, pr := range problems {
			fmt.Fprintf(p.Out, "%-20s %s\n", pr.ID, problemSummary(pr))
		}
		return nil
	},
}

func problemSummary(p domain.Problem) string {
	if p.Title != "" {
		return p.Title
	}
	return p.Goal.Expression
}

func init() {
	applyCmd.Flags().Bool("lemma", false, "Apply the tactic as a lemma")
	for _, cmd := range []*cobra.Command{scriptCmd, deleteCmd} {
		cmd.Flags().StringP("session", "s", "default", "Session to work on")
	}
	rootCmd.AddCommand(newCmd, showCmd, applyCmd, removeCmd, resetCmd, runCmd, scriptCmd, deleteCmd, problemsCmd)
}
