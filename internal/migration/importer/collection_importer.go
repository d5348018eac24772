package importer

import (
	"context"
	"sort"

	"tenant-migrate/internal/migration/codec"
	"tenant-migrate/internal/migration/domain/model"
	"tenant-migrate/internal/migration/domain/repository"
	"tenant-migrate/internal/migration/snapshot"
	"tenant-migrate/internal/migration/transform"
	"tenant-migrate/internal/shared/errors"
	"tenant-migrate/internal/shared/logger"
)

// CollectionImporter replays collection files into the destination store,
// rewriting blob references with the blob importer's completed mapping.
type CollectionImporter struct {
	store        repository.DocumentStore
	reader       *snapshot.Reader
	transformer  *transform.URLTransformer
	batchSize    int
	requireBlobs bool
	log          logger.Logger
}

// NewCollectionImporter creates a collection importer. batchSize caps one
// commit unit and must not exceed the destination's per-transaction limit;
// requireBlobs withholds documents whose blob references could not be
// resolved exactly.
func NewCollectionImporter(store repository.DocumentStore, reader *snapshot.Reader, transformer *transform.URLTransformer, batchSize int, requireBlobs bool, log logger.Logger) *CollectionImporter {
	if batchSize <= 0 || batchSize > 500 {
		batchSize = 500
	}
	return &CollectionImporter{
		store:        store,
		reader:       reader,
		transformer:  transformer,
		batchSize:    batchSize,
		requireBlobs: requireBlobs,
		log:          log.WithComponent("collection-importer"),
	}
}

// Result reports one collection's import.
type Result struct {
	DocumentCount    int
	SkippedDocuments int
	Rewrites         transform.Stats
}

// Import reads one collection file, rewrites and decodes each document, then
// applies the writes in pre-sized commit units, each flushed synchronously
// before the next begins. Documents keep their original ids; writes overwrite
// by id, so re-importing the same file is idempotent at document granularity.
func (i *CollectionImporter) Import(ctx context.Context, collection string) (*Result, error) {
	file, err := i.reader.ReadCollectionFile(collection)
	if err != nil {
		return nil, err
	}

	// Deterministic staging order; the store's final state is order-free
	// (last-write-wins per id) but stable batches make runs reproducible.
	ids := make([]string, 0, len(file.Documents))
	for id := range file.Documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := &Result{}
	writes := make([]model.WriteOperation, 0, len(ids))
	for _, id := range ids {
		transformed, stats := i.transformer.TransformDocument(file.Documents[id])
		result.Rewrites.Add(stats)

		if i.requireBlobs && stats.FallbackRewrites > 0 {
			result.SkippedDocuments++
			i.log.WithFields(map[string]interface{}{
				"collection": collection,
				"documentId": id,
				"unresolved": stats.FallbackRewrites,
			}).Warn("Skipping document: blob references could not be resolved and RequireBlobs is set")
			continue
		}

		decoded, err := codec.DecodeFields(transformed)
		if err != nil {
			return nil, errors.WrapError(err, "cannot decode document "+id).
				WithDetail("collection", collection).WithDetail("documentId", id)
		}
		writes = append(writes, model.WriteOperation{DocumentID: id, Data: decoded})
	}

	for start := 0; start < len(writes); start += i.batchSize {
		end := start + i.batchSize
		if end > len(writes) {
			end = len(writes)
		}
		if err := i.store.CommitWrites(ctx, collection, writes[start:end]); err != nil {
			return nil, errors.NewTransferError("commit unit failed for "+collection).
				WithCause(err).WithComponent("collection-importer").
				WithDetail("collection", collection).
				WithDetail("unitStart", start).WithDetail("unitSize", end-start)
		}
	}
	result.DocumentCount = len(writes)

	i.log.WithFields(map[string]interface{}{
		"collection": collection,
		"documents":  result.DocumentCount,
		"skipped":    result.SkippedDocuments,
		"fallbacks":  result.Rewrites.FallbackRewrites,
	}).Info("Imported collection")
	return result, nil
}
