/*
Package ports defines the driven ports (interfaces) of the aslgraph service.

These interfaces decouple compilation from where its results live, so the HTTP
service can run against an in-process map or a shared Redis.

# Key Interfaces

  - ArtifactStore: persists compiled state machines under a name.
  - Locker: serializes publishes of the same name across replicas.
*/
package ports
