package export

import (
	"context"
	"time"

	"tenant-migrate/internal/migration/codec"
	"tenant-migrate/internal/migration/domain/model"
	"tenant-migrate/internal/migration/domain/repository"
	"tenant-migrate/internal/migration/snapshot"
	"tenant-migrate/internal/shared/errors"
	"tenant-migrate/internal/shared/logger"
)

// CollectionExporter serializes document collections to snapshot files.
type CollectionExporter struct {
	store  repository.DocumentStore
	writer *snapshot.Writer
	log    logger.Logger
}

// NewCollectionExporter creates a collection exporter writing into the given
// snapshot.
func NewCollectionExporter(store repository.DocumentStore, writer *snapshot.Writer, log logger.Logger) *CollectionExporter {
	return &CollectionExporter{
		store:  store,
		writer: writer,
		log:    log.WithComponent("collection-exporter"),
	}
}

// Export reads every document of one collection, encodes each field tree and
// writes the collection file. An empty collection still produces a file with
// zero documents: the file's absence must mean "collection does not exist",
// never "collection was empty". Returns the exported document count.
func (e *CollectionExporter) Export(ctx context.Context, collection string) (int, error) {
	exists, err := e.store.CollectionExists(ctx, collection)
	if err != nil {
		return 0, errors.NewSerializationError("cannot check collection "+collection).
			WithCause(err).WithComponent("collection-exporter")
	}
	if !exists {
		return 0, errors.NewSerializationError("collection does not exist: "+collection).
			WithCause(errors.ErrCollectionNotFound).WithComponent("collection-exporter").
			WithDetail("collection", collection)
	}

	docs, err := e.store.ListDocuments(ctx, collection)
	if err != nil {
		return 0, errors.NewSerializationError("cannot list documents of "+collection).
			WithCause(err).WithComponent("collection-exporter")
	}

	file := model.CollectionFile{
		Metadata: model.CollectionMetadata{
			Collection:    collection,
			ExportedAt:    time.Now().UTC(),
			DocumentCount: len(docs),
		},
		Documents: make(map[string]map[string]interface{}, len(docs)),
	}
	for _, doc := range docs {
		encoded, err := codec.EncodeFields(doc.Data)
		if err != nil {
			return 0, errors.WrapError(err, "cannot encode document "+doc.ID).
				WithDetail("collection", collection).WithDetail("documentId", doc.ID)
		}
		file.Documents[doc.ID] = encoded
	}

	if err := e.writer.WriteCollectionFile(file); err != nil {
		return 0, err
	}

	e.log.WithFields(map[string]interface{}{
		"collection": collection,
		"documents":  len(docs),
	}).Info("Exported collection")
	return len(docs), nil
}
