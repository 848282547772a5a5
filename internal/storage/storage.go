package storage

import (
	"context"

	"vaultQuote/internal/model"
)

// Storage defines a sink for refresh snapshots.
type Storage interface {
	PutSnapshot(ctx context.Context, snap model.Snapshot) error
}
