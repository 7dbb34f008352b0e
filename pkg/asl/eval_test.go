package asl_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/aslgraph/pkg/asl"
)

func TestLookup(t *testing.T) {
	var doc any
	require.NoError(t, json.Unmarshal([]byte(`{
		"a": {"b c": [10, {"d": null}]},
		"list": []
	}`), &doc))

	tests := []struct {
		path    string
		want    any
		present bool
	}{
		{"$", doc, true},
		{"$.a['b c'][0]", 10.0, true},
		{"$.a['b c'][1].d", nil, true},
		{"$.a['b c'][2]", nil, false},
		{"$.list[0]", nil, false},
		{"$.missing.deeper", nil, false},
		{"$.a.b", nil, false},
		{`$["a"]["b c"][0]`, 10.0, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, present, err := asl.Lookup(doc, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.present, present)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"a.b", "$.", "$[x]", "$[0", "$x", "$['open", "$['a'", `$['a\`, "$['a'x]"} {
		_, _, err := asl.Lookup(doc, bad)
		assert.Error(t, err, bad)
	}
}

func TestEvaluate(t *testing.T) {
	input := map[string]any{
		"s":    "abc",
		"n":    4,
		"b":    true,
		"null": nil,
		"m":    "abd",
	}

	tests := []struct {
		name string
		cond *asl.Condition
		want bool
	}{
		{"string equals", asl.StringEquals("$.s", "abc"), true},
		{"string less than path", asl.Compare("$.s", asl.OpStringLessThanPath, "$.m"), true},
		{"numeric greater", asl.Compare("$.n", asl.OpNumericGreaterThan, 3.5), true},
		{"numeric equals path", asl.Compare("$.n", asl.OpNumericEqualsPath, "$.n"), true},
		{"type mismatch is false", asl.NumericEquals("$.s", 1), false},
		{"boolean equals", asl.BooleanEquals("$.b", true), true},
		{"is null", asl.IsNull("$.null", true), true},
		{"is present on absent", asl.IsPresent("$.nope", false), true},
		{"type test on absent", asl.IsString("$.nope"), false},
		{"short circuit and", asl.And(asl.IsPresent("$.nope", true), asl.StringEquals("$.nope", "x")), false},
		{"short circuit or", asl.Or(asl.IsPresent("$.s", true), asl.StringEquals("$.nope", "x")), true},
		{"not", asl.Not(asl.IsBoolean("$.s")), true},
		{"true", asl.True(), true},
		{"false", asl.False(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := asl.Evaluate(tt.cond, input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_MissingPath(t *testing.T) {
	_, err := asl.Evaluate(asl.StringEquals("$.nope", "x"), map[string]any{})
	assert.ErrorIs(t, err, asl.ErrPathNotFound)

	_, err = asl.Evaluate(asl.Compare("$.a", asl.OpNumericEqualsPath, "$.b"), map[string]any{"a": 1})
	assert.ErrorIs(t, err, asl.ErrPathNotFound)
}

func TestParsePath_QuotedNames(t *testing.T) {
	tests := []struct {
		path string
		want []asl.Segment
	}{
		{`$['it\'s']`, []asl.Segment{{Field: "it's"}}},
		{`$['a]b'][1]`, []asl.Segment{{Field: "a]b"}, {Index: 1, IsIndex: true}}},
		{`$['back\\slash'].x`, []asl.Segment{{Field: `back\slash`}, {Field: "x"}}},
		{`$["say \"hi\""]`, []asl.Segment{{Field: `say "hi"`}}},
		{`$['a.b c']`, []asl.Segment{{Field: "a.b c"}}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := asl.ParsePath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
