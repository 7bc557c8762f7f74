package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the proof graph visualization",
	Long:  `Outputs a Mermaid diagram of the session's proof graph, with open goals highlighted.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, e, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		id, _ := cmd.Flags().GetString("session")
		output, err := b.Mermaid(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "default", "Session to draw")
}
