/*
Package graph synthesizes flat Amazon States Language state maps out of
nested workflow fragments.

A front end walking source syntax builds Fragments bottom-up: single
states (StateNode), named collections of fragments (SubState) and the
values they compute (Output). Successors that are not known yet are left
as asl.DeferNext and filled in by JoinSubStates or UpdateDeferredNextStates
once the surrounding context is known.

# Pipeline

  - Flatten names every member through a NamingStrategy and resolves
    local and "../" relative transitions through a NameMap scope chain.
  - RemoveEmptyStates drops no-op Pass states.
  - JoinChainedChoices folds Choice states that lead into Choice states.
  - PruneUnreachable keeps what FindReachableStates reaches from the entry.

Synthesize runs the whole pipeline. Every step is a pure function of its
input; nothing is cached between calls.

# Values

CompareOutputs, IsTruthyOutput, ElementIn and AccessConstant turn Outputs
into choice rules using only the type predicates and combinators the
States Language offers, so comparisons behave like strict dynamic-language
comparisons at run time.
*/
package graph
