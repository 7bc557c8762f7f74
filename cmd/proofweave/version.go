package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/proofweave"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of proofweave",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "proofweave version %s\n", strings.TrimSpace(proofweave.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
