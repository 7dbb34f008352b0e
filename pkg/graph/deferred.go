package graph

import (
	"strconv"

	"github.com/aretw0/aslgraph/pkg/asl"
)

// DeferredProps is the disposition given to DeferNext transitions: either
// End, or a hand-off to the state named Next.
type DeferredProps struct {
	End  bool
	Next string
}

// ToEnd resolves deferred transitions as terminal.
func ToEnd() DeferredProps { return DeferredProps{End: true} }

// ToNext resolves deferred transitions to the named successor.
func ToNext(name string) DeferredProps { return DeferredProps{Next: name} }

// parent returns the props as seen one sub-state level down.
func (p DeferredProps) parent() DeferredProps {
	if p.End {
		return p
	}
	return DeferredProps{Next: "../" + p.Next}
}

// JoinSubStates runs fragments in order. Nil fragments and bare Outputs
// are dropped. A single remaining fragment is returned labelled with
// origin; several are wrapped into a sub-state with members "0".."n-1"
// whose deferred transitions lead to the next member. The last member's
// deferred transitions stay deferred. It returns nil when nothing remains.
func JoinSubStates(origin string, fragments ...Fragment) (Fragment, error) {
	var flow []Fragment
	for _, f := range fragments {
		switch f.(type) {
		case nil, Output:
			continue
		}
		flow = append(flow, f)
	}

	switch len(flow) {
	case 0:
		return nil, nil
	case 1:
		return withOrigin(flow[0], origin), nil
	}

	members := make(map[string]Fragment, len(flow))
	for i, f := range flow {
		name := strconv.Itoa(i)
		if i == len(flow)-1 {
			members[name] = f
			continue
		}
		wired, err := UpdateDeferredNextStates(ToNext(strconv.Itoa(i+1)), f)
		if err != nil {
			return nil, err
		}
		members[name] = wired
	}
	return &SubState{StartAt: "0", States: members, Origin: origin}, nil
}

// UpdateDeferredNextStates returns a copy of f in which every DeferNext
// transition takes the given disposition. Inside a sub-state, Next is
// rewritten to "../"+Next so it still names the same state once scopes
// are resolved. A fragment without deferred transitions comes back
// structurally identical.
func UpdateDeferredNextStates(props DeferredProps, f Fragment) (Fragment, error) {
	switch v := f.(type) {
	case nil:
		return nil, nil
	case Output:
		return v, nil
	case *StateNode:
		return updateDeferredLeaf(props, v)
	case *SubState:
		inner := props.parent()
		members := make(map[string]Fragment, len(v.States))
		for name, member := range v.States {
			updated, err := UpdateDeferredNextStates(inner, member)
			if err != nil {
				return nil, err
			}
			members[name] = updated
		}
		cp := *v
		cp.States = members
		return &cp, nil
	}
	return nil, impossible(f)
}

// endMember is a placeholder for deferred choice and catch targets that
// must end. It cannot collide with a real state name.
const endMember = "\x00end"

func updateDeferredLeaf(props DeferredProps, node *StateNode) (Fragment, error) {
	needsEnd := false
	resolve := func(target string) string {
		if target != asl.DeferNext {
			return target
		}
		if !props.End {
			return props.Next
		}
		needsEnd = true
		return endMember
	}

	var updated asl.State
	switch st := node.State.(type) {
	case *asl.Choice:
		s, err := asl.MapTransitions(st, resolve)
		if err != nil {
			return nil, err
		}
		updated = s
	case *asl.Pass:
		cp := *st
		cp.Next, cp.End = primary(props, cp.Next, cp.End)
		updated = &cp
	case *asl.Wait:
		cp := *st
		cp.Next, cp.End = primary(props, cp.Next, cp.End)
		updated = &cp
	case *asl.Task:
		cp := *st
		cp.Next, cp.End = primary(props, cp.Next, cp.End)
		cp.Catch = catchTargets(cp.Catch, resolve)
		updated = &cp
	case *asl.Map:
		cp := *st
		cp.Next, cp.End = primary(props, cp.Next, cp.End)
		cp.Catch = catchTargets(cp.Catch, resolve)
		updated = &cp
	case *asl.Parallel:
		cp := *st
		cp.Next, cp.End = primary(props, cp.Next, cp.End)
		cp.Catch = catchTargets(cp.Catch, resolve)
		updated = &cp
	case *asl.Succeed, *asl.Fail:
		updated = st
	default:
		return nil, impossible(node.State)
	}

	if !needsEnd {
		cp := *node
		cp.State = updated
		return &cp, nil
	}

	// A choice branch or catch handler cannot declare End, so it jumps to
	// a Succeed state added next to it one level down.
	wrapped, err := asl.MapTransitions(updated, func(target string) string {
		if target == endMember {
			return "end"
		}
		return "../" + target
	})
	if err != nil {
		return nil, err
	}
	return &SubState{
		StartAt: "state",
		States: map[string]Fragment{
			"state": &StateNode{State: wrapped},
			"end":   Leaf(&asl.Succeed{}),
		},
		Output: node.Output,
		Origin: node.Origin,
	}, nil
}

func primary(props DeferredProps, next string, end bool) (string, bool) {
	if next != asl.DeferNext {
		return next, end
	}
	if props.End {
		return "", true
	}
	return props.Next, false
}

func catchTargets(catch []asl.CatchClause, resolve func(string) string) []asl.CatchClause {
	if catch == nil {
		return nil
	}
	out := make([]asl.CatchClause, len(catch))
	for i, c := range catch {
		c.Next = resolve(c.Next)
		out[i] = c
	}
	return out
}
