package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/aretw0/aslgraph/internal/presentation/graph"
	"github.com/aretw0/aslgraph/internal/validator"
	"github.com/aretw0/aslgraph/pkg/asl"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)

	return func(markdown string) (string, error) {
		if err != nil {
			return "", fmt.Errorf("failed to create renderer: %w", err)
		}
		return r.Render(markdown)
	}
}

// MachineReport describes a compiled machine as markdown: a table of its
// states, validation findings when there are any, and a Mermaid diagram.
func MachineReport(name string, sm *asl.StateMachine, findings []validator.Finding) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", name)
	if sm.Comment != "" {
		fmt.Fprintf(&sb, "%s\n\n", sm.Comment)
	}
	fmt.Fprintf(&sb, "Starts at `%s`, %d states.\n\n", sm.StartAt, len(sm.States))

	sb.WriteString("| State | Type | Transitions |\n|---|---|---|\n")
	for _, stateName := range sm.States.Names() {
		st := sm.States[stateName]
		var edges []string
		for _, t := range asl.Transitions(st) {
			edges = append(edges, fmt.Sprintf("%s → `%s`", t.Kind, t.Target))
		}
		if asl.IsEnd(st) {
			edges = append(edges, "end")
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s |\n", stateName, st.Kind(), strings.Join(edges, ", "))
	}

	var invalid []string
	if len(findings) > 0 {
		sb.WriteString("\n## Problems\n\n")
		for _, f := range findings {
			fmt.Fprintf(&sb, "- %s\n", f.String())
			invalid = append(invalid, f.State)
		}
	}

	sb.WriteString("\n## Graph\n\n```mermaid\n")
	var overlay *graph.GraphOverlay
	if len(invalid) > 0 {
		overlay = &graph.GraphOverlay{Invalid: invalid}
	}
	sb.WriteString(graph.GenerateMermaid(sm, overlay))
	sb.WriteString("```\n")
	return sb.String()
}
