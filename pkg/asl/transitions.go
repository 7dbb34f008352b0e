package asl

import "fmt"

// TransitionKind tells where in a state a transition lives.
type TransitionKind int

const (
	TransitionNext TransitionKind = iota
	TransitionChoice
	TransitionDefault
	TransitionCatch
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionNext:
		return "next"
	case TransitionChoice:
		return "choice"
	case TransitionDefault:
		return "default"
	case TransitionCatch:
		return "catch"
	default:
		return "unknown"
	}
}

// Transition is one outgoing edge of a state.
type Transition struct {
	Kind   TransitionKind
	Target string
	// Index is the position within Choices or Catch.
	Index int
}

// Transitions lists the outgoing edges of s in document order: choice
// branches, default, primary next, then catch handlers.
func Transitions(s State) []Transition {
	var out []Transition
	add := func(kind TransitionKind, target string, i int) {
		if target != "" {
			out = append(out, Transition{Kind: kind, Target: target, Index: i})
		}
	}
	addCatch := func(catch []CatchClause) {
		for i, c := range catch {
			add(TransitionCatch, c.Next, i)
		}
	}

	switch st := s.(type) {
	case *Choice:
		for i, c := range st.Choices {
			add(TransitionChoice, c.Next, i)
		}
		add(TransitionDefault, st.Default, 0)
	case *Pass:
		add(TransitionNext, st.Next, 0)
	case *Wait:
		add(TransitionNext, st.Next, 0)
	case *Task:
		add(TransitionNext, st.Next, 0)
		addCatch(st.Catch)
	case *Map:
		add(TransitionNext, st.Next, 0)
		addCatch(st.Catch)
	case *Parallel:
		add(TransitionNext, st.Next, 0)
		addCatch(st.Catch)
	}
	return out
}

// IsEnd reports whether s declares End: true.
func IsEnd(s State) bool {
	switch st := s.(type) {
	case *Pass:
		return st.End
	case *Wait:
		return st.End
	case *Task:
		return st.End
	case *Map:
		return st.End
	case *Parallel:
		return st.End
	}
	return false
}

// MapTransitions returns a copy of s whose non-empty transition targets
// were passed through fn. The input state is never modified.
func MapTransitions(s State, fn func(string) string) (State, error) {
	apply := func(target string) string {
		if target == "" {
			return ""
		}
		return fn(target)
	}
	mapCatch := func(catch []CatchClause) []CatchClause {
		if catch == nil {
			return nil
		}
		out := make([]CatchClause, len(catch))
		for i, c := range catch {
			c.Next = apply(c.Next)
			out[i] = c
		}
		return out
	}

	switch st := s.(type) {
	case *Choice:
		cp := *st
		cp.Choices = make([]ChoiceRule, len(st.Choices))
		for i, c := range st.Choices {
			cp.Choices[i] = ChoiceRule{Condition: c.Condition, Next: apply(c.Next)}
		}
		cp.Default = apply(st.Default)
		return &cp, nil
	case *Pass:
		cp := *st
		cp.Next = apply(st.Next)
		return &cp, nil
	case *Wait:
		cp := *st
		cp.Next = apply(st.Next)
		return &cp, nil
	case *Task:
		cp := *st
		cp.Next = apply(st.Next)
		cp.Catch = mapCatch(st.Catch)
		return &cp, nil
	case *Map:
		cp := *st
		cp.Next = apply(st.Next)
		cp.Catch = mapCatch(st.Catch)
		return &cp, nil
	case *Parallel:
		cp := *st
		cp.Next = apply(st.Next)
		cp.Catch = mapCatch(st.Catch)
		return &cp, nil
	case *Succeed:
		cp := *st
		return &cp, nil
	case *Fail:
		cp := *st
		return &cp, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownStateType, s)
}
