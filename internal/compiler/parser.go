package compiler

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/aslgraph/pkg/asl"
	"github.com/aretw0/aslgraph/pkg/graph"
)

// DefaultEntry names the entry state when a document does not choose one.
const DefaultEntry = "Main"

// Document is a parsed fragment document: the root of a fragment tree and
// the settings of the machine it compiles to.
type Document struct {
	Entry          string
	Comment        string
	TimeoutSeconds int
	Root           graph.Fragment
}

type rawDocument struct {
	Entry          string         `mapstructure:"entry"`
	Comment        string         `mapstructure:"comment"`
	TimeoutSeconds int            `mapstructure:"timeoutSeconds"`
	Fragment       map[string]any `mapstructure:"fragment"`
}

type rawFragment struct {
	Origin   string                    `mapstructure:"origin"`
	State    map[string]any            `mapstructure:"state"`
	StartAt  string                    `mapstructure:"startAt"`
	States   map[string]map[string]any `mapstructure:"states"`
	Sequence []map[string]any          `mapstructure:"sequence"`
	Output   map[string]any            `mapstructure:"output"`
}

type rawOutput struct {
	Literal any    `mapstructure:"literal"`
	Path    string `mapstructure:"path"`
}

// Parser is responsible for converting raw bytes into a fragment tree.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes a YAML or JSON fragment document. Every fragment is
// exactly one of:
//
//	state:    a single States Language state
//	startAt:  with states, a sub-state of named fragments
//	sequence: fragments run one after another
//
// A Pass, Task, Wait, Map or Parallel state without Next or End keeps its
// successor deferred to the enclosing flow.
func (p *Parser) Parse(data []byte) (*Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("document is empty")
	}

	var doc rawDocument
	if err := decode(raw, &doc); err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}
	if doc.Fragment == nil {
		return nil, fmt.Errorf("document missing fragment")
	}
	root, err := parseFragment("fragment", doc.Fragment)
	if err != nil {
		return nil, err
	}

	entry := doc.Entry
	if entry == "" {
		entry = DefaultEntry
	}
	return &Document{
		Entry:          entry,
		Comment:        doc.Comment,
		TimeoutSeconds: doc.TimeoutSeconds,
		Root:           root,
	}, nil
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func parseFragment(where string, raw map[string]any) (graph.Fragment, error) {
	var f rawFragment
	if err := decode(raw, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", where, err)
	}

	var out graph.Output
	if f.Output != nil {
		o, err := parseOutput(f.Output)
		if err != nil {
			return nil, fmt.Errorf("%s.output: %w", where, err)
		}
		out = o
	}

	shapes := 0
	for _, set := range []bool{f.State != nil, f.StartAt != "" || f.States != nil, f.Sequence != nil} {
		if set {
			shapes++
		}
	}
	if shapes != 1 {
		return nil, fmt.Errorf("%s: expected exactly one of state, startAt/states or sequence", where)
	}

	switch {
	case f.State != nil:
		st, err := ParseState(f.State)
		if err != nil {
			return nil, fmt.Errorf("%s.state: %w", where, err)
		}
		return &graph.StateNode{State: st, Output: out, Origin: f.Origin}, nil

	case f.Sequence != nil:
		parts := make([]graph.Fragment, 0, len(f.Sequence))
		for i, item := range f.Sequence {
			part, err := parseFragment(fmt.Sprintf("%s.sequence[%d]", where, i), item)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}
		joined, err := graph.JoinSubStates(f.Origin, parts...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", where, err)
		}
		if joined == nil {
			return nil, fmt.Errorf("%s: sequence has no states", where)
		}
		return joined, nil
	}

	if _, ok := f.States[f.StartAt]; !ok {
		return nil, fmt.Errorf("%s: startAt %q is not one of its states", where, f.StartAt)
	}
	members := make(map[string]graph.Fragment, len(f.States))
	for _, name := range sortedKeys(f.States) {
		member, err := parseFragment(where+".states."+name, f.States[name])
		if err != nil {
			return nil, err
		}
		members[name] = member
	}
	return &graph.SubState{StartAt: f.StartAt, States: members, Output: out, Origin: f.Origin}, nil
}

func parseOutput(raw map[string]any) (graph.Output, error) {
	_, hasLiteral := raw["literal"]
	var o rawOutput
	if err := decode(raw, &o); err != nil {
		return nil, err
	}
	switch {
	case hasLiteral && o.Path != "":
		return nil, fmt.Errorf("expected one of literal or path")
	case hasLiteral:
		return graph.Literal(o.Literal), nil
	case o.Path != "":
		return graph.Path(o.Path), nil
	}
	return nil, fmt.Errorf("expected one of literal or path")
}

// ParseState decodes one States Language state from a generic map.
// Unknown fields are rejected.
func ParseState(raw map[string]any) (asl.State, error) {
	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		fields[k] = v
	}
	kind, _ := fields["Type"].(string)
	delete(fields, "Type")

	st, err := asl.NewState(asl.StateType(kind))
	if err != nil {
		return nil, err
	}

	switch s := st.(type) {
	case *asl.Choice:
		rules, err := takeChoices(fields)
		if err != nil {
			return nil, err
		}
		if err := decode(fields, s); err != nil {
			return nil, err
		}
		s.Choices = rules
	case *asl.Map:
		inner, err := takeMachine(fields, "ItemProcessor")
		if err != nil {
			return nil, err
		}
		if err := decode(fields, s); err != nil {
			return nil, err
		}
		s.ItemProcessor = inner
	case *asl.Parallel:
		branches, err := takeBranches(fields)
		if err != nil {
			return nil, err
		}
		if err := decode(fields, s); err != nil {
			return nil, err
		}
		s.Branches = branches
	default:
		if err := decode(fields, s); err != nil {
			return nil, err
		}
	}

	deferOpenTransition(st)
	return st, nil
}

// deferOpenTransition gives states that neither continue nor end a
// deferred successor.
func deferOpenTransition(st asl.State) {
	switch s := st.(type) {
	case *asl.Pass:
		if s.Next == "" && !s.End {
			s.Next = asl.DeferNext
		}
	case *asl.Task:
		if s.Next == "" && !s.End {
			s.Next = asl.DeferNext
		}
	case *asl.Wait:
		if s.Next == "" && !s.End {
			s.Next = asl.DeferNext
		}
	case *asl.Map:
		if s.Next == "" && !s.End {
			s.Next = asl.DeferNext
		}
	case *asl.Parallel:
		if s.Next == "" && !s.End {
			s.Next = asl.DeferNext
		}
	}
}

func takeChoices(fields map[string]any) ([]asl.ChoiceRule, error) {
	raw, ok := fields["Choices"]
	delete(fields, "Choices")
	if !ok {
		return nil, fmt.Errorf("Choice state missing Choices")
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("Choices: expected a list, got %T", raw)
	}
	rules := make([]asl.ChoiceRule, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("Choices[%d]: expected an object, got %T", i, item)
		}
		rule, err := asl.ParseChoiceRule(m)
		if err != nil {
			return nil, fmt.Errorf("Choices[%d]: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// takeMachine removes an inner machine from fields and decodes it. Inner
// machines are complete documents, so they go through the JSON decoder of
// package asl.
func takeMachine(fields map[string]any, key string) (*asl.StateMachine, error) {
	raw, ok := fields[key]
	delete(fields, key)
	if !ok {
		return nil, fmt.Errorf("missing %s", key)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	var m asl.StateMachine
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &m, nil
}

func takeBranches(fields map[string]any) ([]*asl.StateMachine, error) {
	raw, ok := fields["Branches"].([]any)
	if !ok {
		return nil, fmt.Errorf("Parallel state needs a Branches list")
	}
	delete(fields, "Branches")
	out := make([]*asl.StateMachine, 0, len(raw))
	for i, item := range raw {
		m, err := takeMachine(map[string]any{"branch": item}, "branch")
		if err != nil {
			return nil, fmt.Errorf("Branches[%d]: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
