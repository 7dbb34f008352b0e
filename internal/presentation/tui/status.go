package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"

	"github.com/aretw0/aslgraph/internal/validator"
)

// PrintStatus writes a coloured one-line verdict for a validated machine,
// followed by one line per finding. Colours are dropped when w is not a
// terminal.
func PrintStatus(w io.Writer, name string, err error) {
	out := termenv.NewOutput(w)
	if err == nil {
		ok := out.String("✓ valid").Foreground(out.Color("#22c55e")).Bold()
		fmt.Fprintf(w, "%s %s\n", ok, name)
		return
	}

	bad := out.String("✗ invalid").Foreground(out.Color("#ef4444")).Bold()
	fmt.Fprintf(w, "%s %s\n", bad, name)
	findings := validator.Findings(err)
	if findings == nil {
		fmt.Fprintf(w, "  %s\n", out.String(err.Error()).Faint())
		return
	}
	for _, f := range findings {
		fmt.Fprintf(w, "  - %s\n", f.String())
	}
}
