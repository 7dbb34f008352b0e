package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/aslgraph"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of aslgraph",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "aslgraph version %s\n", aslgraph.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
