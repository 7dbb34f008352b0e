package graph_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/aslgraph/pkg/asl"
	"github.com/aretw0/aslgraph/pkg/graph"
)

type compareCase struct {
	left, right any
	op          graph.Operator
	want        bool
}

var compareCases = []compareCase{
	{1, 1, graph.OpStrictEq, true},
	{"a", 1, graph.OpEq, false},
	{graph.Undefined, nil, graph.OpEq, false},
	{nil, nil, graph.OpEq, true},
	{true, true, graph.OpStrictEq, true},
	{graph.Undefined, graph.Undefined, graph.OpEq, true},
	{graph.Undefined, graph.Undefined, graph.OpLte, false},
	{graph.Undefined, 1, graph.OpLt, false},
	{nil, nil, graph.OpLte, true},
	{nil, nil, graph.OpGte, true},
	{nil, nil, graph.OpLt, false},
	{nil, 0, graph.OpEq, false},
	{nil, 0, graph.OpLte, false},
	{1, 2, graph.OpLt, true},
	{2, 1, graph.OpLt, false},
	{2, 2, graph.OpLte, true},
	{3, 2, graph.OpGte, true},
	{3, 2, graph.OpGt, true},
	{1.5, 1.5, graph.OpEq, true},
	{"a", "b", graph.OpLt, true},
	{"b", "a", graph.OpGt, true},
	{"a", "a", graph.OpGte, true},
	{false, true, graph.OpLt, true},
	{true, false, graph.OpGt, true},
	{true, true, graph.OpGte, true},
	{false, true, graph.OpGte, false},
	{true, false, graph.OpEq, false},
	{1, "1", graph.OpEq, false},
	{1, "1", graph.OpNotEq, true},
	{1, 1, graph.OpStrictNotEq, false},
	{"a", graph.Undefined, graph.OpNotEq, true},
	{graph.Undefined, graph.Undefined, graph.OpNotEq, false},
	{"1", 1, graph.OpLt, false},
}

func inputFor(left, right any) map[string]any {
	doc := map[string]any{}
	if !graph.IsUndefined(left) {
		doc["l"] = left
	}
	if !graph.IsUndefined(right) {
		doc["r"] = right
	}
	return doc
}

func evaluate(t *testing.T, c *asl.Condition, input any) bool {
	t.Helper()
	require.NoError(t, c.Validate())
	got, err := asl.Evaluate(c, input)
	require.NoError(t, err)
	return got
}

func TestCompareOutputs_Semantics(t *testing.T) {
	for _, tc := range compareCases {
		name := fmt.Sprintf("%v %s %v", tc.left, tc.op, tc.right)
		t.Run(name, func(t *testing.T) {
			input := inputFor(tc.left, tc.right)

			constant, err := graph.CompareOutputs(graph.Literal(tc.left), graph.Literal(tc.right), tc.op)
			require.NoError(t, err)
			v, ok := asl.IsConstant(constant)
			require.True(t, ok, "two literals must fold to a constant")
			assert.Equal(t, tc.want, v, "literal/literal")

			pathPath, err := graph.CompareOutputs(graph.Path("$.l"), graph.Path("$.r"), tc.op)
			require.NoError(t, err)
			assert.Equal(t, tc.want, evaluate(t, pathPath, input), "path/path")

			pathLit, err := graph.CompareOutputs(graph.Path("$.l"), graph.Literal(tc.right), tc.op)
			require.NoError(t, err)
			assert.Equal(t, tc.want, evaluate(t, pathLit, input), "path/literal")

			litPath, err := graph.CompareOutputs(graph.Literal(tc.left), graph.Path("$.r"), tc.op)
			require.NoError(t, err)
			assert.Equal(t, tc.want, evaluate(t, litPath, input), "literal/path")
		})
	}
}

func TestCompareOutputs_LiteralsFoldToConstants(t *testing.T) {
	c, err := graph.CompareOutputs(graph.Literal(1), graph.Literal(1), graph.OpStrictEq)
	require.NoError(t, err)
	assert.Equal(t, asl.True(), c)

	c, err = graph.CompareOutputs(graph.Literal("a"), graph.Literal(1), graph.OpEq)
	require.NoError(t, err)
	assert.Equal(t, asl.False(), c)
}

func TestCompareOutputs_LiteralMovesRight(t *testing.T) {
	c, err := graph.CompareOutputs(graph.Literal("x"), graph.Path("$.v"), graph.OpEq)
	require.NoError(t, err)

	var leaves []*asl.Condition
	var walk func(*asl.Condition)
	walk = func(c *asl.Condition) {
		for _, sub := range append(append([]*asl.Condition{}, c.And...), c.Or...) {
			walk(sub)
		}
		if c.Not != nil {
			walk(c.Not)
		}
		if c.Operator != "" {
			leaves = append(leaves, c)
		}
	}
	walk(c)
	require.NotEmpty(t, leaves)
	for _, leaf := range leaves {
		assert.Equal(t, "$.v", leaf.Variable)
	}
}

func TestCompare_Errors(t *testing.T) {
	_, err := graph.CompareOutputs(graph.Path("$.a"), graph.Literal(1), graph.Operator("~="))
	assert.ErrorIs(t, err, graph.ErrInvalidOperator)

	_, err = graph.Compare(graph.Literal(1), graph.Path("$.a"), graph.OpEq)
	assert.ErrorIs(t, err, graph.ErrStructural)
	assert.True(t, graph.IsSynthError(err))
}

func TestBooleanCompare(t *testing.T) {
	flag := graph.Cond(asl.BooleanEquals("$.flag", true))
	on := map[string]any{"flag": true, "other": true}
	off := map[string]any{"flag": false, "other": true}

	tests := []struct {
		name  string
		right graph.Output
		op    graph.Operator
		on    bool
		off   bool
	}{
		{"equals true", graph.Literal(true), graph.OpEq, true, false},
		{"equals false", graph.Literal(false), graph.OpStrictEq, false, true},
		{"not equals true", graph.Literal(true), graph.OpNotEq, false, true},
		{"never equals a number", graph.Literal(1), graph.OpEq, false, false},
		{"equals path", graph.Path("$.other"), graph.OpEq, true, false},
		{"less than true", graph.Literal(true), graph.OpLt, false, true},
		{"equals condition", graph.Cond(asl.IsPresent("$.other", true)), graph.OpEq, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := graph.Compare(flag, tt.right, tt.op)
			require.NoError(t, err)
			assert.Equal(t, tt.on, evaluate(t, c, on))
			assert.Equal(t, tt.off, evaluate(t, c, off))
		})
	}
}

func TestBooleanCompare_PathOnLeft(t *testing.T) {
	c, err := graph.CompareOutputs(graph.Path("$.v"), graph.Cond(asl.True()), graph.OpEq)
	require.NoError(t, err)
	assert.True(t, evaluate(t, c, map[string]any{"v": true}))
	assert.False(t, evaluate(t, c, map[string]any{"v": "true"}))
	assert.False(t, evaluate(t, c, map[string]any{}))
}

func TestOperator_Swap(t *testing.T) {
	assert.Equal(t, graph.OpGt, graph.OpLt.Swap())
	assert.Equal(t, graph.OpLte, graph.OpGte.Swap())
	assert.Equal(t, graph.OpEq, graph.OpEq.Swap())
	assert.False(t, graph.Operator("=>").Valid())
}
