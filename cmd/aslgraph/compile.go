package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/aslgraph"
)

var compileCmd = &cobra.Command{
	Use:   "compile <document|->",
	Short: "Compile a fragment document into a state machine",
	Long: `Reads a YAML or JSON fragment document and prints the compiled Amazon States
Language definition. The machine is validated unless --no-validate is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format != "json" && format != "yaml" {
			return fmt.Errorf("unknown format %q: want json or yaml", format)
		}

		var opts []aslgraph.Option
		if skip, _ := cmd.Flags().GetBool("no-validate"); skip {
			opts = append(opts, aslgraph.WithoutValidation())
		}

		data, err := readDocument(cmd, args[0])
		if err != nil {
			return err
		}
		sm, err := newCompiler(cmd, opts...).CompileDocument(data)
		if err != nil {
			return fmt.Errorf("compile %s: %w", args[0], err)
		}

		var out []byte
		if format == "yaml" {
			out, err = yaml.Marshal(sm)
		} else {
			out, err = json.MarshalIndent(sm, "", "  ")
			out = append(out, '\n')
		}
		if err != nil {
			return fmt.Errorf("encode machine: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().String("entry", envOr("ASLGRAPH_ENTRY", ""), "Entry state name, overriding the document (env ASLGRAPH_ENTRY)")
	compileCmd.Flags().StringP("format", "f", envOr("ASLGRAPH_FORMAT", "json"), "Output format: json or yaml (env ASLGRAPH_FORMAT)")
	compileCmd.Flags().Bool("no-validate", false, "Skip validation of the compiled machine")
}
