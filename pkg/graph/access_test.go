package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/aslgraph/pkg/asl"
	"github.com/aretw0/aslgraph/pkg/graph"
)

func TestAccessConstant(t *testing.T) {
	tests := []struct {
		name         string
		value        graph.Output
		field        any
		elementStyle bool
		want         graph.Output
	}{
		{"path field", graph.Path("$.a"), "b", false, graph.Path("$.a.b")},
		{"path element", graph.Path("$.a"), "b", true, graph.Path("$.a['b']")},
		{"path quoted field", graph.Path("$"), "two words", false, graph.Path("$['two words']")},
		{"path index", graph.Path("$.items"), 0, false, graph.Path("$.items[0]")},
		{"path float index", graph.Path("$.items"), 2.0, true, graph.Path("$.items[2]")},
		{"array index", graph.Literal([]any{"x", "y"}), 1, false, graph.Literal("y")},
		{"array out of range", graph.Literal([]any{"x"}), 3, false, graph.Literal(graph.Undefined)},
		{"object field", graph.Literal(map[string]any{"k": 1.0}), "k", false, graph.Literal(1.0)},
		{"object missing field", graph.Literal(map[string]any{}), "k", false, graph.Literal(graph.Undefined)},
		{"object numeric key", graph.Literal(map[string]any{"1": true}), 1.0, false, graph.Literal(true)},
		{"stored path", graph.Literal(map[string]any{"ref": "$.input.id"}), "ref", false, graph.Path("$.input.id")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := graph.AccessConstant(tt.value, tt.field, tt.elementStyle)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccessConstant_Errors(t *testing.T) {
	tests := []struct {
		name  string
		value graph.Output
		field any
	}{
		{"string field on array", graph.Literal([]any{1}), "length"},
		{"field of a string", graph.Literal("abc"), 0},
		{"field of null", graph.Literal(nil), "x"},
		{"field of undefined", graph.Literal(graph.Undefined), "x"},
		{"field of a condition", graph.Cond(asl.True()), "x"},
		{"non-scalar field on path", graph.Path("$.a"), []any{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := graph.AccessConstant(tt.value, tt.field, false)
			assert.ErrorIs(t, err, graph.ErrInvalidCollectionAccess)
		})
	}
}

func TestAccessConstant_PathsResolve(t *testing.T) {
	names := []string{"it's", "a]b", "a.b", "two words", `back\slash`, `"quoted"`, "['nested']", "plain"}
	doc := map[string]any{}
	for i, name := range names {
		doc[name] = float64(i)
	}

	for _, elementStyle := range []bool{false, true} {
		for i, name := range names {
			out, err := graph.AccessConstant(graph.Path("$"), name, elementStyle)
			require.NoError(t, err)
			path := out.(*graph.PathReference).Path

			got, present, err := asl.Lookup(doc, path)
			require.NoError(t, err, path)
			assert.True(t, present, path)
			assert.Equal(t, float64(i), got, path)
		}
	}
}
