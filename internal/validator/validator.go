package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/aslgraph/pkg/asl"
)

// Finding is one problem found in a machine.
type Finding struct {
	// State is the offending state, prefixed with the enclosing states of
	// inner machines ("Ship/ItemProcessor/Pack"). Empty for machine-level
	// problems.
	State  string
	Reason string
}

func (f Finding) String() string {
	if f.State == "" {
		return f.Reason
	}
	return fmt.Sprintf("state %q: %s", f.State, f.Reason)
}

// ValidationError aggregates every finding of one validation run.
type ValidationError struct {
	Findings []Finding
}

func (e *ValidationError) Error() string {
	if len(e.Findings) == 1 {
		return e.Findings[0].String()
	}
	lines := make([]string, len(e.Findings))
	for i, f := range e.Findings {
		lines[i] = f.String()
	}
	return fmt.Sprintf("found %d errors:\n- %s", len(e.Findings), strings.Join(lines, "\n- "))
}

// Findings returns the findings carried by err, or nil.
func Findings(err error) []Finding {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Findings
	}
	return nil
}

// ValidateMachine checks that sm is a complete document: it has an entry,
// every state continues or ends, every transition lands on a state, no
// deferred transition is left, and every state is reachable from StartAt.
// Inner Map and Parallel machines are checked the same way.
func ValidateMachine(sm *asl.StateMachine) error {
	if sm == nil {
		return &ValidationError{Findings: []Finding{{Reason: "machine is nil"}}}
	}
	var findings []Finding
	validateMachine("", sm, &findings)
	if len(findings) > 0 {
		return &ValidationError{Findings: findings}
	}
	return nil
}

func validateMachine(prefix string, sm *asl.StateMachine, findings *[]Finding) {
	report := func(state, format string, args ...any) {
		*findings = append(*findings, Finding{State: prefix + state, Reason: fmt.Sprintf(format, args...)})
	}

	if len(sm.States) == 0 {
		report("", "machine has no states")
		return
	}
	if sm.StartAt == "" {
		report("", "StartAt is empty")
	} else if _, ok := sm.States[sm.StartAt]; !ok {
		report("", "StartAt %q is not a state", sm.StartAt)
	}

	for _, name := range sm.States.Names() {
		st := sm.States[name]
		if st == nil {
			report(name, "state is nil")
			continue
		}
		checkState(name, st, report)
		for _, t := range asl.Transitions(st) {
			switch {
			case t.Target == asl.DeferNext:
				report(name, "%s transition was never resolved", t.Kind)
			case sm.States[t.Target] == nil:
				report(name, "%s transition to missing state %q", t.Kind, t.Target)
			}
		}
		switch inner := st.(type) {
		case *asl.Map:
			if inner.ItemProcessor == nil {
				report(name, "Map state has no ItemProcessor")
			} else {
				validateMachine(prefix+name+"/ItemProcessor/", inner.ItemProcessor, findings)
			}
		case *asl.Parallel:
			if len(inner.Branches) == 0 {
				report(name, "Parallel state has no Branches")
			}
			for i, branch := range inner.Branches {
				if branch == nil {
					report(name, "branch %d is nil", i)
					continue
				}
				validateMachine(fmt.Sprintf("%s%s/Branches[%d]/", prefix, name, i), branch, findings)
			}
		}
	}

	if sm.States[sm.StartAt] == nil {
		return
	}
	visited := make(map[string]bool)
	queue := []string{sm.StartAt}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		st := sm.States[current]
		if st == nil {
			continue
		}
		for _, t := range asl.Transitions(st) {
			if !visited[t.Target] {
				queue = append(queue, t.Target)
			}
		}
	}
	for _, name := range sm.States.Names() {
		if !visited[name] {
			report(name, "unreachable from %q", sm.StartAt)
		}
	}
}

func checkState(name string, st asl.State, report func(state, format string, args ...any)) {
	next, end, continues := primaryOf(st)
	if continues {
		switch {
		case next == "" && !end:
			report(name, "needs Next or End")
		case next != "" && end:
			report(name, "has both Next and End")
		}
	}

	switch s := st.(type) {
	case *asl.Task:
		if s.Resource == "" {
			report(name, "Task state has no Resource")
		}
	case *asl.Choice:
		if len(s.Choices) == 0 {
			report(name, "Choice state has no Choices")
		}
		for i, rule := range s.Choices {
			if err := rule.Condition.Validate(); err != nil {
				report(name, "Choices[%d]: %v", i, err)
			}
		}
	case *asl.Wait:
		set := 0
		for _, field := range []bool{s.Seconds != 0, s.SecondsPath != "", s.Timestamp != "", s.TimestampPath != ""} {
			if field {
				set++
			}
		}
		if set != 1 {
			report(name, "Wait state needs exactly one of Seconds, SecondsPath, Timestamp or TimestampPath")
		}
	}
}

func primaryOf(st asl.State) (next string, end, continues bool) {
	switch s := st.(type) {
	case *asl.Pass:
		return s.Next, s.End, true
	case *asl.Task:
		return s.Next, s.End, true
	case *asl.Wait:
		return s.Next, s.End, true
	case *asl.Map:
		return s.Next, s.End, true
	case *asl.Parallel:
		return s.Next, s.End, true
	}
	return "", false, false
}
