package graph

import (
	"github.com/aretw0/aslgraph/pkg/asl"
)

// isNoOp reports whether st is a Pass state that only forwards to Next.
func isNoOp(st asl.State) bool {
	p, ok := st.(*asl.Pass)
	if !ok {
		return false
	}
	return p.Next != "" && !p.End &&
		p.InputPath == "" && p.OutputPath == "" && p.ResultPath == "" &&
		p.Parameters == nil && p.Result == nil
}

// RemoveEmptyStates drops no-op Pass states other than entry and points
// their incoming transitions at the first real successor. A no-op state
// whose chain of no-op successors loops back on itself has no safe
// replacement and is kept.
func RemoveEmptyStates(entry string, states asl.States) (asl.States, error) {
	empty := func(name string) bool {
		st, ok := states[name]
		return ok && name != entry && isNoOp(st)
	}

	replacement := make(map[string]string)
	for _, name := range states.Names() {
		if !empty(name) {
			continue
		}
		seen := map[string]bool{name: true}
		target := states[name].(*asl.Pass).Next
		cycle := false
		for empty(target) {
			if seen[target] {
				cycle = true
				break
			}
			seen[target] = true
			target = states[target].(*asl.Pass).Next
		}
		if !cycle {
			replacement[name] = target
		}
	}
	if len(replacement) == 0 {
		return states, nil
	}

	redirect := func(target string) string {
		if r, ok := replacement[target]; ok {
			return r
		}
		return target
	}
	out := make(asl.States, len(states)-len(replacement))
	for name, st := range states {
		if _, removed := replacement[name]; removed {
			continue
		}
		rewritten, err := asl.MapTransitions(st, redirect)
		if err != nil {
			return nil, impossible(st)
		}
		out[name] = rewritten
	}
	return out, nil
}

type mergeMark int

const (
	unvisited mergeMark = iota
	inProgress
	merged
)

type choiceJoiner struct {
	states asl.States
	marks  map[string]mergeMark
	done   map[string]*asl.Choice
}

// JoinChainedChoices folds Choice states that lead straight into other
// Choice states. A branch `p -> C2` with C2 = {q -> T, default D} becomes
// `p && q -> T` followed by `p -> D`; a Default pointing at a Choice
// appends that Choice's branches and takes over its Default. A Choice is
// marked in progress before its targets are folded, so a loop of Choice
// states stops folding instead of recursing forever.
func JoinChainedChoices(entry string, states asl.States) (asl.States, error) {
	j := &choiceJoiner{
		states: states,
		marks:  make(map[string]mergeMark),
		done:   make(map[string]*asl.Choice),
	}

	visited := make(map[string]bool)
	stack := []string{entry}
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[name] {
			continue
		}
		visited[name] = true
		st, ok := states[name]
		if !ok {
			continue
		}
		if _, isChoice := st.(*asl.Choice); isChoice {
			folded, err := j.merge(name)
			if err != nil {
				return nil, err
			}
			st = folded
		}
		ts := asl.Transitions(st)
		for i := len(ts) - 1; i >= 0; i-- {
			stack = append(stack, ts[i].Target)
		}
	}

	if len(j.done) == 0 {
		return states, nil
	}
	out := make(asl.States, len(states))
	for name, st := range states {
		if c, ok := j.done[name]; ok {
			out[name] = c
			continue
		}
		out[name] = st
	}
	return out, nil
}

// merge returns the folded form of the Choice state name, or nil when name
// is already being folded further up the stack.
func (j *choiceJoiner) merge(name string) (*asl.Choice, error) {
	switch j.marks[name] {
	case inProgress:
		return nil, nil
	case merged:
		return j.done[name], nil
	}
	j.marks[name] = inProgress

	c := j.states[name].(*asl.Choice)
	for i, rule := range c.Choices {
		if rule.Condition == nil {
			return nil, synthErrorf(ErrStructural, name, "choice rule %d has no condition", i)
		}
	}
	out := *c
	if c.OutputPath == "" {
		out.Choices = make([]asl.ChoiceRule, 0, len(c.Choices))
		for _, rule := range c.Choices {
			target, err := j.foldable(rule.Next)
			if err != nil {
				return nil, err
			}
			if target == nil || target.Default == "" {
				out.Choices = append(out.Choices, rule)
				continue
			}
			for _, tr := range target.Choices {
				out.Choices = append(out.Choices, asl.ChoiceRule{
					Condition: asl.And(rule.Condition, tr.Condition),
					Next:      tr.Next,
				})
			}
			out.Choices = append(out.Choices, asl.ChoiceRule{Condition: rule.Condition, Next: target.Default})
		}
		target, err := j.foldable(c.Default)
		if err != nil {
			return nil, err
		}
		if target != nil {
			out.Choices = append(out.Choices, target.Choices...)
			out.Default = target.Default
		}
	}

	j.marks[name] = merged
	j.done[name] = &out
	return &out, nil
}

// foldable returns the folded Choice at name when it can be inlined: it
// must exist, be a Choice, not reshape its input, and not be in progress.
func (j *choiceJoiner) foldable(name string) (*asl.Choice, error) {
	if name == "" {
		return nil, nil
	}
	c, ok := j.states[name].(*asl.Choice)
	if !ok || c.InputPath != "" || c.OutputPath != "" {
		return nil, nil
	}
	return j.merge(name)
}
