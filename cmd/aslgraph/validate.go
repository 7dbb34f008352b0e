package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/aslgraph/internal/presentation/tui"
)

var validateCmd = &cobra.Command{
	Use:   "validate <document>...",
	Short: "Check that documents compile into valid state machines",
	Long: `Compiles every document and reports, per document, whether the result is a
complete state machine: transitions resolved and targets present, every state
continuing or ending, and every state reachable.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		compiler := newCompiler(cmd)
		failed := 0
		for _, path := range args {
			data, err := readDocument(cmd, path)
			if err == nil {
				_, err = compiler.CompileDocument(data)
			}
			if err != nil {
				failed++
			}
			tui.PrintStatus(cmd.OutOrStdout(), path, err)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d documents are invalid", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("entry", envOr("ASLGRAPH_ENTRY", ""), "Entry state name, overriding the documents (env ASLGRAPH_ENTRY)")
}
