/*
Package aslgraph compiles nested workflow fragments into flat Amazon States Language
(ASL) state machines.

A front end describes a workflow as a tree: leaves are single ASL states, inner nodes
are sub-states whose members reference each other by local name. Transitions that are
not known yet are left as deferred ("__DeferNext") and filled in by whatever encloses
the fragment. The compiler resolves those transitions, gives every state a global name,
removes redundant states and checks that the result is a complete document.

# Pipeline

  - Deferred transitions still open at the top level end the machine.
  - The tree is flattened; "../name" references climb to enclosing scopes.
  - No-op Pass states are bypassed, chained Choice states are merged and
    unreachable states are pruned.
  - The machine is validated unless WithoutValidation is given.

# Usage

Fragments can be built with the dsl package or read from a YAML/JSON document:

	c := aslgraph.New(aslgraph.WithLogger(logger))

	sm, err := c.CompileDocument(data)
	if err != nil {
		for _, f := range aslgraph.Findings(err) {
			log.Println(f)
		}
	}
	out, _ := json.MarshalIndent(sm, "", "  ")

The aslgraph command wraps the same compiler in a CLI and an HTTP service that keeps
compiled machines in memory or Redis.
*/
package aslgraph
