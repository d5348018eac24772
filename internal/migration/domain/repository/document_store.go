package repository

import (
	"context"

	"tenant-migrate/internal/migration/domain/model"
)

// DocumentStore abstracts the document database on either side of a migration.
type DocumentStore interface {
	// CollectionExists reports whether the named collection exists. An empty
	// collection exists; export relies on the distinction.
	CollectionExists(ctx context.Context, collection string) (bool, error)

	// ListDocuments returns every document in the collection.
	ListDocuments(ctx context.Context, collection string) ([]model.Document, error)

	// CommitWrites applies one commit unit of overwrite-by-id writes
	// atomically with respect to the destination's batch API. Callers must
	// pre-size units to the destination's per-transaction operation cap.
	CommitWrites(ctx context.Context, collection string, writes []model.WriteOperation) error
}
