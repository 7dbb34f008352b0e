package dsl

import (
	"fmt"

	"github.com/aretw0/aslgraph/pkg/asl"
	"github.com/aretw0/aslgraph/pkg/graph"
)

// NodeBuilder provides a fluent API for configuring one member state.
// Pass, Task and Wait members start with a deferred successor; use Go or
// End to fix it.
type NodeBuilder struct {
	name    string
	state   asl.State
	origin  string
	output  graph.Output
	err     error
	builder *Builder
}

func (n *NodeBuilder) fail(format string, args ...any) *NodeBuilder {
	if n.err == nil {
		n.err = fmt.Errorf("member %q: %s", n.name, fmt.Sprintf(format, args...))
	}
	return n
}

// Pass makes the member a Pass state storing result.
func (n *NodeBuilder) Pass(result any) *NodeBuilder {
	n.state = &asl.Pass{Result: result, Next: asl.DeferNext}
	return n
}

// Task makes the member a Task state invoking resource.
func (n *NodeBuilder) Task(resource string) *NodeBuilder {
	n.state = &asl.Task{Resource: resource, Next: asl.DeferNext}
	return n
}

// Wait makes the member a Wait state sleeping for seconds.
func (n *NodeBuilder) Wait(seconds int) *NodeBuilder {
	n.state = &asl.Wait{Seconds: seconds, Next: asl.DeferNext}
	return n
}

// Choice makes the member a Choice state. Add branches with When and the
// fallback with Otherwise.
func (n *NodeBuilder) Choice() *NodeBuilder {
	n.state = &asl.Choice{}
	return n
}

// Succeed makes the member a terminal Succeed state.
func (n *NodeBuilder) Succeed() *NodeBuilder {
	n.state = &asl.Succeed{}
	return n
}

// Fail makes the member a terminal Fail state.
func (n *NodeBuilder) Fail(errName, cause string) *NodeBuilder {
	n.state = &asl.Fail{Error: errName, Cause: cause}
	return n
}

// ResultPath sets where a Pass or Task writes its result.
func (n *NodeBuilder) ResultPath(path string) *NodeBuilder {
	switch st := n.state.(type) {
	case *asl.Pass:
		st.ResultPath = path
	case *asl.Task:
		st.ResultPath = path
	default:
		return n.fail("ResultPath is not supported on %T", n.state)
	}
	return n
}

// Go sets the primary successor.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	return n.setNext(target, false)
}

// End marks the member as terminal.
func (n *NodeBuilder) End() *NodeBuilder {
	return n.setNext("", true)
}

// Defer leaves the primary successor to be decided by the enclosing flow.
func (n *NodeBuilder) Defer() *NodeBuilder {
	return n.setNext(asl.DeferNext, false)
}

func (n *NodeBuilder) setNext(next string, end bool) *NodeBuilder {
	switch st := n.state.(type) {
	case *asl.Pass:
		st.Next, st.End = next, end
	case *asl.Task:
		st.Next, st.End = next, end
	case *asl.Wait:
		st.Next, st.End = next, end
	case nil:
		return n.fail("set a state kind before its transition")
	default:
		return n.fail("%s states have no Next", n.state.Kind())
	}
	return n
}

// When adds a choice branch.
func (n *NodeBuilder) When(cond *asl.Condition, target string) *NodeBuilder {
	c, ok := n.state.(*asl.Choice)
	if !ok {
		return n.fail("When requires a Choice state")
	}
	c.Choices = append(c.Choices, asl.ChoiceRule{Condition: cond, Next: target})
	return n
}

// Otherwise sets the default branch of a Choice state.
func (n *NodeBuilder) Otherwise(target string) *NodeBuilder {
	c, ok := n.state.(*asl.Choice)
	if !ok {
		return n.fail("Otherwise requires a Choice state")
	}
	c.Default = target
	return n
}

// Catch routes the listed errors (States.ALL when none) of a Task to
// target.
func (n *NodeBuilder) Catch(target string, errs ...string) *NodeBuilder {
	t, ok := n.state.(*asl.Task)
	if !ok {
		return n.fail("Catch requires a Task state")
	}
	if len(errs) == 0 {
		errs = []string{"States.ALL"}
	}
	t.Catch = append(t.Catch, asl.CatchClause{ErrorEquals: errs, Next: target})
	return n
}

// Origin labels the member for naming.
func (n *NodeBuilder) Origin(label string) *NodeBuilder {
	n.origin = label
	return n
}

// Output records the value the member leaves behind.
func (n *NodeBuilder) Output(out graph.Output) *NodeBuilder {
	n.output = out
	return n
}

// Build returns the member as a leaf fragment.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() (*graph.StateNode, error) {
	if n.err != nil {
		return nil, n.err
	}
	if n.state == nil {
		return nil, fmt.Errorf("member %q has no state kind", n.name)
	}
	if c, ok := n.state.(*asl.Choice); ok && len(c.Choices) == 0 {
		return nil, fmt.Errorf("member %q: a Choice needs at least one branch", n.name)
	}
	return &graph.StateNode{State: n.state, Output: n.output, Origin: n.origin}, nil
}
