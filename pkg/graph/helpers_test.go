package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/aslgraph/pkg/asl"
	"github.com/aretw0/aslgraph/pkg/graph"
)

func TestIsTruthyOutput(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"zero", 0, false},
		{"one", 1, true},
		{"empty string", "", false},
		{"string", "a", true},
		{"false", false, false},
		{"true", true, true},
		{"null", nil, false},
		{"undefined", graph.Undefined, false},
		{"empty object", map[string]any{}, true},
		{"empty array", []any{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lit, err := graph.IsTruthyOutput(graph.Literal(tt.value))
			require.NoError(t, err)
			v, ok := asl.IsConstant(lit)
			require.True(t, ok)
			assert.Equal(t, tt.want, v, "literal")

			path, err := graph.IsTruthyOutput(graph.Path("$.v"))
			require.NoError(t, err)
			input := map[string]any{}
			if !graph.IsUndefined(tt.value) {
				input["v"] = tt.value
			}
			assert.Equal(t, tt.want, evaluate(t, path, input), "path")
		})
	}

	c := asl.IsPresent("$.x", true)
	got, err := graph.IsTruthyOutput(graph.Cond(c))
	require.NoError(t, err)
	assert.Same(t, c, got)
}

func TestElementIn(t *testing.T) {
	c, err := graph.ElementIn("key", graph.Path("$.obj"))
	require.NoError(t, err)
	assert.Equal(t, asl.IsPresent("$.obj['key']", true), c)

	c, err = graph.ElementIn(1, graph.Literal([]any{"a", "b"}))
	require.NoError(t, err)
	assert.Equal(t, asl.True(), c)

	c, err = graph.ElementIn(4, graph.Literal([]any{"a", "b"}))
	require.NoError(t, err)
	assert.Equal(t, asl.False(), c)

	c, err = graph.ElementIn("k", graph.Literal(map[string]any{"k": nil}))
	require.NoError(t, err)
	assert.Equal(t, asl.True(), c)

	_, err = graph.ElementIn("k", graph.Literal("text"))
	assert.ErrorIs(t, err, graph.ErrInvalidCollectionAccess)
}

func TestJSONAssignment(t *testing.T) {
	key, value, err := graph.JSONAssignment("id", graph.Path("$.input.id"))
	require.NoError(t, err)
	assert.Equal(t, "id.$", key)
	assert.Equal(t, "$.input.id", value)

	key, value, err = graph.JSONAssignment("n", graph.Literal(3))
	require.NoError(t, err)
	assert.Equal(t, "n", key)
	assert.Equal(t, 3, value)

	_, _, err = graph.JSONAssignment("ok", graph.Cond(asl.True()))
	assert.ErrorIs(t, err, graph.ErrUnmaterialized)
}

func TestMaterialize(t *testing.T) {
	t.Run("path needs no state", func(t *testing.T) {
		frag, ref, err := graph.Materialize(graph.Path("$.a"), "$.tmp")
		require.NoError(t, err)
		assert.Nil(t, frag)
		assert.Equal(t, "$.a", ref.Path)
	})

	t.Run("literal", func(t *testing.T) {
		frag, ref, err := graph.Materialize(graph.Literal(5), "$.tmp")
		require.NoError(t, err)
		assert.Equal(t, "$.tmp", ref.Path)
		pass := frag.(*graph.StateNode).State.(*asl.Pass)
		assert.Equal(t, 5, pass.Result)
		assert.Equal(t, "$.tmp", pass.ResultPath)
		assert.Equal(t, asl.DeferNext, pass.Next)
	})

	t.Run("literal with nested path", func(t *testing.T) {
		value := map[string]any{"id.$": "$.input.id"}
		frag, _, err := graph.Materialize(graph.Literal(value), "$.tmp")
		require.NoError(t, err)
		pass := frag.(*graph.StateNode).State.(*asl.Pass)
		assert.Equal(t, value, pass.Parameters)
		assert.Nil(t, pass.Result)
	})

	t.Run("null", func(t *testing.T) {
		frag, ref, err := graph.Materialize(graph.Literal(nil), "$.tmp")
		require.NoError(t, err)
		assert.Equal(t, "$.tmp.value", ref.Path)
		pass := frag.(*graph.StateNode).State.(*asl.Pass)
		assert.Contains(t, pass.Parameters, "value.$")
	})

	t.Run("undefined", func(t *testing.T) {
		_, _, err := graph.Materialize(graph.Literal(graph.Undefined), "$.tmp")
		assert.ErrorIs(t, err, graph.ErrUnmaterialized)
	})

	t.Run("condition", func(t *testing.T) {
		frag, ref, err := graph.Materialize(graph.Cond(asl.True()), "$.flag")
		require.NoError(t, err)
		sub := frag.(*graph.SubState)
		assert.Equal(t, "check", sub.StartAt)
		assert.Equal(t, ref, sub.Output)
		assert.Len(t, sub.States, 3)
	})
}
