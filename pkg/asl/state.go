package asl

import (
	"encoding/json"
	"fmt"
)

// DeferNext marks a transition whose successor is not known yet. It is
// replaced before a document is emitted.
const DeferNext = "__DeferNext"

// StateType is the value of a state's "Type" field.
type StateType string

const (
	TypePass     StateType = "Pass"
	TypeTask     StateType = "Task"
	TypeChoice   StateType = "Choice"
	TypeWait     StateType = "Wait"
	TypeSucceed  StateType = "Succeed"
	TypeFail     StateType = "Fail"
	TypeMap      StateType = "Map"
	TypeParallel StateType = "Parallel"
)

// State is implemented by the eight state kinds of this package only.
type State interface {
	Kind() StateType
	state()
}

// CatchClause routes matching errors of a Task, Map or Parallel state.
type CatchClause struct {
	ErrorEquals []string `json:"ErrorEquals"`
	Next        string   `json:"Next"`
	ResultPath  string   `json:"ResultPath,omitempty"`
}

// RetryPolicy is carried through verbatim.
type RetryPolicy struct {
	ErrorEquals     []string `json:"ErrorEquals"`
	IntervalSeconds int      `json:"IntervalSeconds,omitempty"`
	MaxAttempts     *int     `json:"MaxAttempts,omitempty"`
	BackoffRate     float64  `json:"BackoffRate,omitempty"`
}

type Pass struct {
	Comment    string         `json:"Comment,omitempty"`
	InputPath  string         `json:"InputPath,omitempty"`
	OutputPath string         `json:"OutputPath,omitempty"`
	Parameters map[string]any `json:"Parameters,omitempty"`
	Result     any            `json:"Result,omitempty"`
	ResultPath string         `json:"ResultPath,omitempty"`
	Next       string         `json:"Next,omitempty"`
	End        bool           `json:"End,omitempty"`
}

type Task struct {
	Comment          string         `json:"Comment,omitempty"`
	Resource         string         `json:"Resource"`
	InputPath        string         `json:"InputPath,omitempty"`
	OutputPath       string         `json:"OutputPath,omitempty"`
	Parameters       map[string]any `json:"Parameters,omitempty"`
	ResultSelector   map[string]any `json:"ResultSelector,omitempty"`
	ResultPath       string         `json:"ResultPath,omitempty"`
	TimeoutSeconds   int            `json:"TimeoutSeconds,omitempty"`
	HeartbeatSeconds int            `json:"HeartbeatSeconds,omitempty"`
	Retry            []RetryPolicy  `json:"Retry,omitempty"`
	Catch            []CatchClause  `json:"Catch,omitempty"`
	Next             string         `json:"Next,omitempty"`
	End              bool           `json:"End,omitempty"`
}

type Choice struct {
	Comment    string       `json:"Comment,omitempty"`
	InputPath  string       `json:"InputPath,omitempty"`
	OutputPath string       `json:"OutputPath,omitempty"`
	Choices    []ChoiceRule `json:"Choices"`
	Default    string       `json:"Default,omitempty"`
}

type Wait struct {
	Comment       string `json:"Comment,omitempty"`
	InputPath     string `json:"InputPath,omitempty"`
	OutputPath    string `json:"OutputPath,omitempty"`
	Seconds       int    `json:"Seconds,omitempty"`
	SecondsPath   string `json:"SecondsPath,omitempty"`
	Timestamp     string `json:"Timestamp,omitempty"`
	TimestampPath string `json:"TimestampPath,omitempty"`
	Next          string `json:"Next,omitempty"`
	End           bool   `json:"End,omitempty"`
}

type Succeed struct {
	Comment    string `json:"Comment,omitempty"`
	InputPath  string `json:"InputPath,omitempty"`
	OutputPath string `json:"OutputPath,omitempty"`
}

type Fail struct {
	Comment string `json:"Comment,omitempty"`
	Error   string `json:"Error,omitempty"`
	Cause   string `json:"Cause,omitempty"`
}

type Map struct {
	Comment        string         `json:"Comment,omitempty"`
	InputPath      string         `json:"InputPath,omitempty"`
	OutputPath     string         `json:"OutputPath,omitempty"`
	ItemsPath      string         `json:"ItemsPath,omitempty"`
	ItemProcessor  *StateMachine  `json:"ItemProcessor"`
	MaxConcurrency int            `json:"MaxConcurrency,omitempty"`
	Parameters     map[string]any `json:"Parameters,omitempty"`
	ResultSelector map[string]any `json:"ResultSelector,omitempty"`
	ResultPath     string         `json:"ResultPath,omitempty"`
	Retry          []RetryPolicy  `json:"Retry,omitempty"`
	Catch          []CatchClause  `json:"Catch,omitempty"`
	Next           string         `json:"Next,omitempty"`
	End            bool           `json:"End,omitempty"`
}

type Parallel struct {
	Comment        string          `json:"Comment,omitempty"`
	InputPath      string          `json:"InputPath,omitempty"`
	OutputPath     string          `json:"OutputPath,omitempty"`
	Branches       []*StateMachine `json:"Branches"`
	Parameters     map[string]any  `json:"Parameters,omitempty"`
	ResultSelector map[string]any  `json:"ResultSelector,omitempty"`
	ResultPath     string          `json:"ResultPath,omitempty"`
	Retry          []RetryPolicy   `json:"Retry,omitempty"`
	Catch          []CatchClause   `json:"Catch,omitempty"`
	Next           string          `json:"Next,omitempty"`
	End            bool            `json:"End,omitempty"`
}

func (*Pass) Kind() StateType     { return TypePass }
func (*Task) Kind() StateType     { return TypeTask }
func (*Choice) Kind() StateType   { return TypeChoice }
func (*Wait) Kind() StateType     { return TypeWait }
func (*Succeed) Kind() StateType  { return TypeSucceed }
func (*Fail) Kind() StateType     { return TypeFail }
func (*Map) Kind() StateType      { return TypeMap }
func (*Parallel) Kind() StateType { return TypeParallel }

func (*Pass) state()     {}
func (*Task) state()     {}
func (*Choice) state()   {}
func (*Wait) state()     {}
func (*Succeed) state()  {}
func (*Fail) state()     {}
func (*Map) state()      {}
func (*Parallel) state() {}

// typed prefixes the encoded state with its "Type" field.
func typed(kind StateType, body any) ([]byte, error) {
	fields, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	head := fmt.Sprintf(`{"Type":%q`, kind)
	if string(fields) == "{}" {
		return []byte(head + "}"), nil
	}
	return append([]byte(head+","), fields[1:]...), nil
}

func (s *Pass) MarshalJSON() ([]byte, error) {
	type plain Pass
	return typed(TypePass, (*plain)(s))
}

func (s *Task) MarshalJSON() ([]byte, error) {
	type plain Task
	return typed(TypeTask, (*plain)(s))
}

func (s *Choice) MarshalJSON() ([]byte, error) {
	type plain Choice
	return typed(TypeChoice, (*plain)(s))
}

func (s *Wait) MarshalJSON() ([]byte, error) {
	type plain Wait
	return typed(TypeWait, (*plain)(s))
}

func (s *Succeed) MarshalJSON() ([]byte, error) {
	type plain Succeed
	return typed(TypeSucceed, (*plain)(s))
}

func (s *Fail) MarshalJSON() ([]byte, error) {
	type plain Fail
	return typed(TypeFail, (*plain)(s))
}

func (s *Map) MarshalJSON() ([]byte, error) {
	type plain Map
	return typed(TypeMap, (*plain)(s))
}

func (s *Parallel) MarshalJSON() ([]byte, error) {
	type plain Parallel
	return typed(TypeParallel, (*plain)(s))
}

// NewState returns an empty state of the given kind.
func NewState(kind StateType) (State, error) {
	switch kind {
	case TypePass:
		return &Pass{}, nil
	case TypeTask:
		return &Task{}, nil
	case TypeChoice:
		return &Choice{}, nil
	case TypeWait:
		return &Wait{}, nil
	case TypeSucceed:
		return &Succeed{}, nil
	case TypeFail:
		return &Fail{}, nil
	case TypeMap:
		return &Map{}, nil
	case TypeParallel:
		return &Parallel{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStateType, kind)
}

// ChoiceRule is one ordered branch of a Choice state.
type ChoiceRule struct {
	Condition *Condition
	Next      string
}

func (r ChoiceRule) MarshalJSON() ([]byte, error) {
	if r.Condition == nil {
		return nil, fmt.Errorf("choice rule to %q has no condition", r.Next)
	}
	m := r.Condition.toMap()
	m["Next"] = r.Next
	return json.Marshal(m)
}

func (r *ChoiceRule) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rule, err := ParseChoiceRule(raw)
	if err != nil {
		return err
	}
	*r = rule
	return nil
}

// ParseChoiceRule splits the Next field from the condition fields of a
// decoded branch object.
func ParseChoiceRule(raw map[string]any) (ChoiceRule, error) {
	next, _ := raw["Next"].(string)
	if next == "" {
		return ChoiceRule{}, fmt.Errorf("choice rule missing Next")
	}
	rest := make(map[string]any, len(raw))
	for k, v := range raw {
		if k != "Next" {
			rest[k] = v
		}
	}
	cond, err := ParseCondition(rest)
	if err != nil {
		return ChoiceRule{}, fmt.Errorf("choice rule to %q: %w", next, err)
	}
	return ChoiceRule{Condition: cond, Next: next}, nil
}
