package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/aslgraph"
	"github.com/aretw0/aslgraph/internal/presentation/graph"
	"github.com/aretw0/aslgraph/internal/presentation/tui"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <document|->",
	Short: "Describe a compiled machine and draw it as a Mermaid flowchart",
	Long: `Compiles the document and prints a report: its states, any validation
problems, and a Mermaid diagram (graph TD) with invalid states highlighted.
The report is rendered for the terminal when stdout is one. With --mermaid
only the diagram is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readDocument(cmd, args[0])
		if err != nil {
			return err
		}
		sm, err := newCompiler(cmd).CompileDocument(data)
		findings := aslgraph.Findings(err)
		if err != nil && findings == nil {
			return fmt.Errorf("compile %s: %w", args[0], err)
		}

		out := cmd.OutOrStdout()
		if only, _ := cmd.Flags().GetBool("mermaid"); only {
			var overlay *graph.GraphOverlay
			if len(findings) > 0 {
				overlay = &graph.GraphOverlay{}
				for _, f := range findings {
					overlay.Invalid = append(overlay.Invalid, f.State)
				}
			}
			_, err := io.WriteString(out, graph.GenerateMermaid(sm, overlay))
			return err
		}

		report := tui.MachineReport(args[0], sm, findings)
		if isTerminal(out) {
			rendered, err := tui.NewRenderer()(report)
			if err != nil {
				logger.Warn("falling back to plain markdown", "error", err)
			} else {
				report = rendered
			}
		}
		_, err = io.WriteString(out, report)
		return err
	},
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("entry", envOr("ASLGRAPH_ENTRY", ""), "Entry state name, overriding the document (env ASLGRAPH_ENTRY)")
	graphCmd.Flags().Bool("mermaid", false, "Print only the Mermaid diagram")
}
