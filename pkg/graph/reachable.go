package graph

import "github.com/aretw0/aslgraph/pkg/asl"

// FindReachableStates walks depth-first from entry over choice branches,
// defaults, catch handlers and Next transitions. Targets missing from
// states are not reported.
func FindReachableStates(entry string, states asl.States) map[string]bool {
	reachable := make(map[string]bool)
	stack := []string{entry}
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reachable[name] {
			continue
		}
		st, ok := states[name]
		if !ok {
			continue
		}
		reachable[name] = true
		for _, t := range asl.Transitions(st) {
			if !reachable[t.Target] {
				stack = append(stack, t.Target)
			}
		}
	}
	return reachable
}

// PruneUnreachable keeps only the states reachable from entry.
func PruneUnreachable(entry string, states asl.States) asl.States {
	reachable := FindReachableStates(entry, states)
	out := make(asl.States, len(reachable))
	for name := range reachable {
		out[name] = states[name]
	}
	return out
}
