package asl

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrUnknownStateType is returned for a "Type" outside the eight kinds.
var ErrUnknownStateType = errors.New("unknown state type")

// States is a flat map of globally named states.
type States map[string]State

// Names returns the state names in sorted order.
func (s States) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnmarshalJSON dispatches each entry on its "Type" field.
func (s *States) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(States, len(raw))
	for name, body := range raw {
		var head struct {
			Type StateType `json:"Type"`
		}
		if err := json.Unmarshal(body, &head); err != nil {
			return fmt.Errorf("state %q: %w", name, err)
		}
		st, err := NewState(head.Type)
		if err != nil {
			return fmt.Errorf("state %q: %w", name, err)
		}
		if err := json.Unmarshal(body, st); err != nil {
			return fmt.Errorf("state %q: %w", name, err)
		}
		out[name] = st
	}
	*s = out
	return nil
}

// StateMachine is a complete States Language document, or the inner
// machine of a Map or Parallel state.
type StateMachine struct {
	Comment        string `json:"Comment,omitempty"`
	StartAt        string `json:"StartAt"`
	States         States `json:"States"`
	TimeoutSeconds int    `json:"TimeoutSeconds,omitempty"`
}

// MarshalYAML renders the machine with the same field layout as its JSON
// form. JSON is a subset of YAML, so the encoded document is re-read as a
// node tree to keep key order.
func (m *StateMachine) MarshalYAML() (any, error) {
	type plain StateMachine
	data, err := json.Marshal((*plain)(m))
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	plainStyle(&node)
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		return node.Content[0], nil
	}
	return &node, nil
}

// plainStyle drops the JSON quoting so the output reads as ordinary YAML.
func plainStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		plainStyle(c)
	}
}
