package ports

import (
	"context"

	"github.com/aretw0/proofweave/pkg/domain"
)

// WorkspaceStore defines the interface for persisting workspace snapshots.
// Persistence is the host's choice; the engine itself never saves anything.
type WorkspaceStore interface {
	// Save persists the snapshot for a given workspace ID.
	Save(ctx context.Context, id string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for a given workspace ID.
	// Returns domain.ErrWorkspaceNotFound if the workspace does not exist.
	Load(ctx context.Context, id string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a given workspace ID.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of every stored workspace.
	List(ctx context.Context) ([]string, error)
}
