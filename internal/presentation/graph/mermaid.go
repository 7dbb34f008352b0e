package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/aslgraph/pkg/asl"
)

// endNode is the synthetic terminal every End: true state points at.
const endNode = "__end"

// GraphOverlay contains diagnostic data to visualize on the graph.
type GraphOverlay struct {
	// Invalid lists states that validation reported.
	Invalid []string
	// Focus is drawn highlighted, e.g. the state a caller asked about.
	Focus string
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a state machine.
// It applies semantic styling:
// - StartAt: ((Circle))
// - Task, Map, Parallel: [[Subroutine]]
// - Choice: {Rhombus}
// - Wait: [/Parallelogram/]
// - Succeed, Fail: ([Stadium])
// - Default: [Rectangle]
// It also applies overlay styles (Invalid/Focus) if provided.
func GenerateMermaid(sm *asl.StateMachine, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if sm == nil {
		return sb.String()
	}

	hasEnd := false
	for _, name := range sm.States.Names() {
		st := sm.States[name]
		safeID := sanitizeMermaidID(name)

		opener, closer := "[", "]"
		switch st.(type) {
		case *asl.Task, *asl.Map, *asl.Parallel:
			opener, closer = "[[", "]]"
		case *asl.Choice:
			opener, closer = "{", "}"
		case *asl.Wait:
			opener, closer = "[/", "/]"
		case *asl.Succeed, *asl.Fail:
			opener, closer = "([", "])"
		}
		if name == sm.StartAt {
			opener, closer = "((", "))"
		}

		label := name
		switch s := st.(type) {
		case *asl.Map:
			label = fmt.Sprintf("%s <br/> map over %s", name, orDefault(s.ItemsPath, "$"))
		case *asl.Parallel:
			label = fmt.Sprintf("%s <br/> %d branches", name, len(s.Branches))
		case *asl.Fail:
			if s.Error != "" {
				label = fmt.Sprintf("%s <br/> %s", name, s.Error)
			}
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(label), closer))

		// Transitions
		for _, t := range asl.Transitions(st) {
			safeTo := sanitizeMermaidID(t.Target)
			arrow := "-->"
			switch t.Kind {
			case asl.TransitionChoice:
				cond := st.(*asl.Choice).Choices[t.Index].Condition
				arrow = fmt.Sprintf("-- \"%s\" -->", escapeLabel(cond.String()))
			case asl.TransitionDefault:
				arrow = "-- \"default\" -->"
			case asl.TransitionCatch:
				errs := catchesOf(st)[t.Index].ErrorEquals
				arrow = fmt.Sprintf("-. \"%s\" .->", escapeLabel(strings.Join(errs, ", ")))
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeID, arrow, safeTo))
		}
		if asl.IsEnd(st) {
			hasEnd = true
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeID, endNode))
		}
	}
	if hasEnd {
		sb.WriteString(fmt.Sprintf("    %s((\"end\"))\n", endNode))
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef invalid fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef focus fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Invalid {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s invalid;\n", safeID))
			}
		}

		if overlay.Focus != "" {
			sb.WriteString(fmt.Sprintf("    class %s focus;\n", sanitizeMermaidID(overlay.Focus)))
		}
	}

	return sb.String()
}

func catchesOf(st asl.State) []asl.CatchClause {
	switch s := st.(type) {
	case *asl.Task:
		return s.Catch
	case *asl.Map:
		return s.Catch
	case *asl.Parallel:
		return s.Catch
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
