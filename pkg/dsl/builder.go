package dsl

import (
	"fmt"

	"github.com/aretw0/aslgraph/pkg/graph"
)

// Builder manages the construction of one sub-state.
type Builder struct {
	startAt string
	origin  string
	order   []string
	nodes   map[string]*NodeBuilder
	nested  map[string]*Builder
}

// New creates a builder whose entry member is startAt.
func New(startAt string) *Builder {
	return &Builder{
		startAt: startAt,
		nodes:   make(map[string]*NodeBuilder),
		nested:  make(map[string]*Builder),
	}
}

// Origin labels the sub-state, so namers can give its entry a readable
// name.
func (b *Builder) Origin(label string) *Builder {
	b.origin = label
	return b
}

// Add creates a new member state.
// If the member already exists, it returns the existing builder.
func (b *Builder) Add(name string) *NodeBuilder {
	if nb, ok := b.nodes[name]; ok {
		return nb
	}
	nb := &NodeBuilder{name: name, builder: b}
	b.nodes[name] = nb
	b.order = append(b.order, name)
	return nb
}

// Nest adds child as a nested sub-state member. Transitions inside child
// reach members of b with a "../" prefix.
func (b *Builder) Nest(name string, child *Builder) *Builder {
	if _, ok := b.nested[name]; !ok {
		b.order = append(b.order, name)
	}
	b.nested[name] = child
	return b
}

// Build compiles the members into a sub-state fragment.
func (b *Builder) Build() (*graph.SubState, error) {
	members := make(map[string]graph.Fragment, len(b.order))
	for _, name := range b.order {
		if _, dup := members[name]; dup {
			return nil, fmt.Errorf("member %q is both a state and a nested sub-state", name)
		}
		if child, ok := b.nested[name]; ok {
			if _, clash := b.nodes[name]; clash {
				return nil, fmt.Errorf("member %q is both a state and a nested sub-state", name)
			}
			sub, err := child.Build()
			if err != nil {
				return nil, fmt.Errorf("nested %q: %w", name, err)
			}
			members[name] = sub
			continue
		}
		node, err := b.nodes[name].Build()
		if err != nil {
			return nil, err
		}
		members[name] = node
	}
	if _, ok := members[b.startAt]; !ok {
		return nil, fmt.Errorf("start member %q was never added", b.startAt)
	}
	return &graph.SubState{StartAt: b.startAt, States: members, Origin: b.origin}, nil
}

// Sequence runs fragments one after another; see graph.JoinSubStates.
func Sequence(origin string, fragments ...graph.Fragment) (graph.Fragment, error) {
	return graph.JoinSubStates(origin, fragments...)
}
