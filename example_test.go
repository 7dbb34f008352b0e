package aslgraph_test

import (
	"fmt"
	"log"

	"github.com/aretw0/aslgraph"
	"github.com/aretw0/aslgraph/pkg/asl"
	"github.com/aretw0/aslgraph/pkg/dsl"
)

// ExampleCompiler_Compile builds a fragment with the DSL and compiles it
// into a flat machine. Members are renamed after the entry state.
func ExampleCompiler_Compile() {
	b := dsl.New("fetch")
	b.Add("fetch").Task("arn:aws:lambda:us-east-1:123456789012:function:fetch").Catch("failed").Go("check")
	b.Add("check").Choice().
		When(asl.IsPresent("$.items", true), "done").
		Otherwise("failed")
	b.Add("done").Succeed()
	b.Add("failed").Fail("FetchFailed", "nothing to process")

	root, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	sm, err := aslgraph.New().Compile(root, "Main")
	if err != nil {
		log.Fatal(err)
	}
	for _, name := range sm.States.Names() {
		fmt.Println(name, sm.States[name].Kind())
	}
	// Output:
	// Main Task
	// Main_check Choice
	// Main_done Succeed
	// Main_failed Fail
}

// ExampleCompiler_CompileDocument compiles a YAML fragment document. The
// no-op Pass between the two tasks is optimized away.
func ExampleCompiler_CompileDocument() {
	doc := []byte(`
entry: Orders
fragment:
  sequence:
    - state: {Type: Task, Resource: "arn:aws:lambda:load"}
    - state: {Type: Pass}
    - state: {Type: Task, Resource: "arn:aws:lambda:store"}
`)
	sm, err := aslgraph.New().CompileDocument(doc)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("start:", sm.StartAt)
	fmt.Println("next:", sm.States["Orders"].(*asl.Task).Next)
	fmt.Println("states:", len(sm.States))
	// Output:
	// start: Orders
	// next: Orders_2
	// states: 2
}
