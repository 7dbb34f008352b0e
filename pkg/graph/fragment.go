package graph

import (
	"sort"

	"github.com/aretw0/aslgraph/pkg/asl"
)

// Fragment is what synthesizing one piece of source produces: a single
// state, a tree of sub-states, or a bare Output with no control flow.
type Fragment interface {
	fragment()
}

// StateNode is a leaf fragment wrapping one state.
type StateNode struct {
	State asl.State
	// Output is the value the state leaves behind, if any.
	Output Output
	// Origin labels the source node that produced the fragment. Namers
	// may use it to build readable state names.
	Origin string
}

// SubState is a named collection of nested fragments with an entry point.
// Member names are local; they become global only while flattening.
type SubState struct {
	StartAt string
	States  map[string]Fragment
	// Output makes this an OutputSubState: a compound expression whose
	// value is available once the sub-state has run.
	Output Output
	Origin string
}

func (*StateNode) fragment() {}
func (*SubState) fragment()  {}

// Leaf wraps a state into a fragment.
func Leaf(s asl.State) *StateNode { return &StateNode{State: s} }

// MemberNames returns the member names in sorted order.
func (s *SubState) MemberNames() []string {
	names := make([]string, 0, len(s.States))
	for name := range s.States {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OutputOf returns the Output carried by f, or nil.
func OutputOf(f Fragment) Output {
	switch v := f.(type) {
	case *StateNode:
		return v.Output
	case *SubState:
		return v.Output
	case Output:
		return v
	}
	return nil
}

// withOrigin returns a shallow copy of f labelled with origin.
func withOrigin(f Fragment, origin string) Fragment {
	if origin == "" {
		return f
	}
	switch v := f.(type) {
	case *StateNode:
		cp := *v
		cp.Origin = origin
		return &cp
	case *SubState:
		cp := *v
		cp.Origin = origin
		return &cp
	}
	return f
}

func originOf(f Fragment) string {
	switch v := f.(type) {
	case *StateNode:
		return v.Origin
	case *SubState:
		return v.Origin
	}
	return ""
}
