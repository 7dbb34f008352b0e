package ports

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/aslgraph/pkg/asl"
)

var (
	// ErrArtifactNotFound is returned by Load when no artifact has the name.
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrInvalidName is returned by stores that cannot hold the given name.
	ErrInvalidName = errors.New("invalid artifact name")
)

// Artifact is a compiled state machine together with what it was compiled
// from.
type Artifact struct {
	Name       string            `json:"name"`
	Machine    *asl.StateMachine `json:"machine"`
	Source     string            `json:"source,omitempty"`
	CompiledAt time.Time         `json:"compiledAt"`
}

// ArtifactStore persists compiled machines so they can be fetched later
// without recompiling.
type ArtifactStore interface {
	// Save stores the artifact under name, replacing any earlier one.
	Save(ctx context.Context, name string, artifact *Artifact) error

	// Load retrieves the artifact stored under name.
	// Returns ErrArtifactNotFound if there is none.
	Load(ctx context.Context, name string) (*Artifact, error)

	// Delete removes the artifact. Deleting a missing name is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of the stored artifacts in sorted order.
	List(ctx context.Context) ([]string, error)
}
