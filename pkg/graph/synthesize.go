package graph

import "github.com/aretw0/aslgraph/pkg/asl"

// Synthesize lowers a complete fragment tree into a flat states map whose
// entry state is named entry. Transitions still deferred at the top level
// end the machine.
func Synthesize(root Fragment, entry string, naming NamingStrategy) (asl.States, error) {
	if root == nil {
		return nil, synthErrorf(ErrStructural, entry, "nothing to synthesize")
	}
	resolved, err := UpdateDeferredNextStates(ToEnd(), root)
	if err != nil {
		return nil, err
	}
	return ToStates(entry, resolved, naming)
}
