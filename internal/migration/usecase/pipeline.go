// Package usecase coordinates the export and import halves of a tenant
// migration. A single control flow drives bounded-concurrency transfer pools;
// consumers never read a producer's structure until its pool has drained.
package usecase

import (
	"context"
	"time"

	"tenant-migrate/internal/migration/config"
	"tenant-migrate/internal/migration/domain/model"
	"tenant-migrate/internal/migration/domain/repository"
	"tenant-migrate/internal/migration/export"
	"tenant-migrate/internal/migration/importer"
	"tenant-migrate/internal/migration/snapshot"
	"tenant-migrate/internal/migration/transform"
	"tenant-migrate/internal/shared/logger"
)

// Pipeline wires the migration components over the configured stores.
type Pipeline struct {
	cfg         *config.Config
	sourceDocs  repository.DocumentStore
	destDocs    repository.DocumentStore
	sourceBlobs repository.ObjectStore
	destBlobs   repository.ObjectStore
	log         logger.Logger
}

// NewPipeline creates a migration pipeline. Stores not needed for a given
// direction (e.g. destination stores during export) may be nil.
func NewPipeline(cfg *config.Config, sourceDocs, destDocs repository.DocumentStore, sourceBlobs, destBlobs repository.ObjectStore, log logger.Logger) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		sourceDocs:  sourceDocs,
		destDocs:    destDocs,
		sourceBlobs: sourceBlobs,
		destBlobs:   destBlobs,
		log:         log.WithComponent("pipeline"),
	}
}

// ExportTenant writes a point-in-time snapshot of the configured collections
// and storage prefixes. A failed collection is recorded and the export
// proceeds to the next one; the blob manifest is written last, finalizing the
// write-once snapshot.
func (p *Pipeline) ExportTenant(ctx context.Context) (*model.ExportSummary, error) {
	summary := &model.ExportSummary{
		StartedAt:   time.Now().UTC(),
		SnapshotDir: p.cfg.SnapshotDir,
		Collections: make(map[string]model.CollectionResult, len(p.cfg.Collections)),
	}

	writer, err := snapshot.NewWriter(p.cfg.SnapshotDir)
	if err != nil {
		return nil, err
	}

	collectionExporter := export.NewCollectionExporter(p.sourceDocs, writer, p.log)
	for _, collection := range p.cfg.Collections {
		count, err := collectionExporter.Export(ctx, collection)
		if err != nil {
			summary.Collections[collection] = model.CollectionResult{Error: err.Error()}
			p.log.WithFields(map[string]interface{}{
				"collection": collection,
				"error":      err.Error(),
			}).Error("Collection export failed; continuing with remaining collections")
			continue
		}
		summary.Collections[collection] = model.CollectionResult{DocumentCount: count}
	}

	blobExporter := export.NewBlobExporter(
		p.sourceBlobs, writer,
		p.cfg.SourceProject, p.cfg.SourceBucket, p.cfg.SourceStorageBaseURL,
		p.cfg.TransferConcurrency, p.log,
	)
	_, blobStats, err := blobExporter.Export(ctx, p.cfg.StoragePrefixes)
	if err != nil {
		return nil, err
	}
	summary.Blobs = blobStats

	summary.FinishedAt = time.Now().UTC()
	p.logExportSummary(summary)
	return summary, nil
}

// ImportTenant replays a snapshot into the destination deployment. The blob
// import runs to completion first: the collection importers consume the final
// URL mapping, never a partially built one. A failed collection is reported
// with its cause and the import proceeds to the next; collections are
// independent units of tenant data, retryable in isolation.
func (p *Pipeline) ImportTenant(ctx context.Context) (*model.ImportSummary, error) {
	summary := &model.ImportSummary{
		StartedAt:   time.Now().UTC(),
		Collections: make(map[string]model.CollectionResult, len(p.cfg.Collections)),
	}

	reader, err := snapshot.NewReader(p.cfg.SnapshotDir)
	if err != nil {
		return nil, err
	}
	manifest, err := reader.Manifest()
	if err != nil {
		return nil, err
	}

	blobImporter := importer.NewBlobImporter(
		p.destBlobs, reader,
		p.cfg.DestBucket, p.cfg.SourceStorageBaseURL, p.cfg.DestStorageBaseURL,
		p.cfg.TransferConcurrency, p.log,
	)
	mapping, blobStats := blobImporter.Import(ctx, manifest)
	summary.Blobs = blobStats

	transformer := transform.NewURLTransformer(mapping, manifest.SourceBucket, p.cfg.DestBucket)
	collectionImporter := importer.NewCollectionImporter(
		p.destDocs, reader, transformer,
		p.cfg.WriteBatchSize, p.cfg.RequireBlobs, p.log,
	)
	for _, collection := range p.cfg.Collections {
		result, err := collectionImporter.Import(ctx, collection)
		if err != nil {
			summary.Collections[collection] = model.CollectionResult{Error: err.Error()}
			p.log.WithFields(map[string]interface{}{
				"collection": collection,
				"error":      err.Error(),
			}).Error("Collection import failed; continuing with remaining collections")
			continue
		}
		summary.Collections[collection] = model.CollectionResult{DocumentCount: result.DocumentCount}
		summary.SkippedDocuments += result.SkippedDocuments
		summary.FallbackRewrites += result.Rewrites.FallbackRewrites
	}

	summary.FinishedAt = time.Now().UTC()
	p.logImportSummary(summary)
	return summary, nil
}

func (p *Pipeline) logExportSummary(summary *model.ExportSummary) {
	for collection, result := range summary.Collections {
		fields := map[string]interface{}{"collection": collection}
		if result.Failed() {
			fields["error"] = result.Error
			p.log.WithFields(fields).Warn("Export summary: collection failed")
			continue
		}
		fields["documents"] = result.DocumentCount
		p.log.WithFields(fields).Info("Export summary: collection exported")
	}
	p.log.WithFields(map[string]interface{}{
		"blobsTransferred": summary.Blobs.Transferred,
		"blobsFailed":      summary.Blobs.Failed,
		"snapshotDir":      summary.SnapshotDir,
		"duration":         summary.FinishedAt.Sub(summary.StartedAt).String(),
	}).Info("Export finished")
}

func (p *Pipeline) logImportSummary(summary *model.ImportSummary) {
	for collection, result := range summary.Collections {
		fields := map[string]interface{}{"collection": collection}
		if result.Failed() {
			fields["error"] = result.Error
			p.log.WithFields(fields).Warn("Import summary: collection failed")
			continue
		}
		fields["documents"] = result.DocumentCount
		p.log.WithFields(fields).Info("Import summary: collection imported")
	}
	if summary.FallbackRewrites > 0 {
		p.log.WithFields(map[string]interface{}{
			"fallbackRewrites": summary.FallbackRewrites,
		}).Warn("Some blob references were rewritten by bucket substitution only and carry stale tokens")
	}
	p.log.WithFields(map[string]interface{}{
		"blobsTransferred": summary.Blobs.Transferred,
		"blobsFailed":      summary.Blobs.Failed,
		"skippedDocuments": summary.SkippedDocuments,
		"duration":         summary.FinishedAt.Sub(summary.StartedAt).String(),
	}).Info("Import finished")
}
