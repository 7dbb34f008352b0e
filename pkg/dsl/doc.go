/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically constructing
workflow fragments that the graph package lowers into States Language documents.

It allows front ends and tests to describe nested flows with a fluent builder instead of
assembling graph.SubState values by hand. Member names are local to their builder; nested
builders reach the enclosing members through "../" references.

Example usage:

	package main

	import (
		"github.com/aretw0/aslgraph/pkg/asl"
		"github.com/aretw0/aslgraph/pkg/dsl"
		"github.com/aretw0/aslgraph/pkg/graph"
	)

	func main() {
		b := dsl.New("fetch")

		b.Add("fetch").
			Task("arn:aws:lambda:us-east-1:123456789012:function:fetch").
			Catch("failed").
			Go("check")

		b.Add("check").
			Choice().
			When(asl.IsPresent("$.items", true), "done").
			Otherwise("failed")

		b.Add("done").Succeed()
		b.Add("failed").Fail("FetchFailed", "nothing to process")

		root, _ := b.Build()
		states, _ := graph.Synthesize(root, "Main", graph.NewNamer().Strategy())
		_ = states
	}
*/
package dsl
