// Package importer re-uploads manifested blobs and replays collection files
// into the destination deployment.
package importer

import (
	"context"

	"github.com/google/uuid"

	"tenant-migrate/internal/migration/domain/model"
	"tenant-migrate/internal/migration/domain/repository"
	"tenant-migrate/internal/migration/snapshot"
	"tenant-migrate/internal/migration/transform"
	"tenant-migrate/internal/shared/logger"
	"tenant-migrate/internal/shared/workpool"
)

// BlobImporter re-uploads manifested blobs to the destination bucket, mints a
// fresh access token per object and builds the URL rewrite map.
type BlobImporter struct {
	store                repository.ObjectStore
	reader               *snapshot.Reader
	destBucket           string
	sourceStorageBaseURL string
	destStorageBaseURL   string
	concurrency          int
	log                  logger.Logger

	// mintToken generates one download token per uploaded object. Tokens are
	// independent per object; uniqueness comes from the generator itself, no
	// coordination is involved.
	mintToken func() string
}

// NewBlobImporter creates a blob importer targeting the destination bucket.
func NewBlobImporter(store repository.ObjectStore, reader *snapshot.Reader, destBucket, sourceStorageBaseURL, destStorageBaseURL string, concurrency int, log logger.Logger) *BlobImporter {
	return &BlobImporter{
		store:                store,
		reader:               reader,
		destBucket:           destBucket,
		sourceStorageBaseURL: sourceStorageBaseURL,
		destStorageBaseURL:   destStorageBaseURL,
		concurrency:          concurrency,
		log:                  log.WithComponent("blob-importer"),
		mintToken:            uuid.NewString,
	}
}

type uploadOutcome struct {
	destinationURL string
	sizeBytes      int64
}

// Import uploads every manifested blob at its identical object key with the
// manifest's content type and a freshly minted token in custom metadata, and
// returns the completed URL mapping. Every uploaded blob contributes all of
// its equivalent source spellings; a failed upload is logged and excluded, so
// referencing documents fall through to the transformer's bucket-substitution
// fallback instead of failing the run.
//
// Import is not idempotent at blob granularity: re-running mints fresh
// tokens, invalidating any previously distributed URLs for this bucket.
func (i *BlobImporter) Import(ctx context.Context, manifest *model.BlobManifest) (model.URLMapping, model.BlobTransferStats) {
	i.log.WithFields(map[string]interface{}{
		"bucket": i.destBucket,
		"files":  len(manifest.Files),
	}).Warn("Uploading blobs with freshly minted tokens; URLs distributed from any earlier import of this bucket become invalid")

	results := workpool.Map(ctx, i.concurrency, manifest.Files, i.upload)

	// The pool has drained; the mapping is assembled by this single writer.
	mapping := make(model.URLMapping, len(manifest.Files)*3)
	var stats model.BlobTransferStats
	for idx, res := range results {
		record := manifest.Files[idx]
		if res.Err != nil {
			stats.Failed++
			i.log.WithFields(map[string]interface{}{
				"key":   record.Path,
				"error": res.Err.Error(),
			}).Warn("Skipping blob: upload failed, documents referencing it will keep a stale token")
			continue
		}
		stats.Transferred++
		stats.TotalSizeBytes += res.Value.sizeBytes

		destURL := res.Value.destinationURL
		mapping.Add(transform.SchemeURL(manifest.SourceBucket, record.Path), destURL)
		mapping.Add(transform.ObjectBaseURL(i.sourceStorageBaseURL, manifest.SourceBucket, record.Path), destURL)
		if record.OriginalURL != "" {
			mapping.Add(transform.StripQuery(record.OriginalURL), destURL)
		}
	}

	i.log.WithFields(map[string]interface{}{
		"uploaded": stats.Transferred,
		"failed":   stats.Failed,
		"mappings": len(mapping),
	}).Info("Imported blobs")
	return mapping, stats
}

func (i *BlobImporter) upload(ctx context.Context, record model.BlobRecord) (uploadOutcome, error) {
	data, err := i.reader.ReadBlob(record.LocalPath)
	if err != nil {
		return uploadOutcome{}, err
	}

	token := i.mintToken()
	err = i.store.UploadObject(ctx, i.destBucket, record.Path, repository.ObjectUpload{
		Data:        data,
		ContentType: record.ContentType,
		Metadata: map[string]string{
			repository.MetadataKeyDownloadTokens: token,
		},
	})
	if err != nil {
		return uploadOutcome{}, err
	}

	return uploadOutcome{
		destinationURL: transform.MediaURL(i.destStorageBaseURL, i.destBucket, record.Path, token),
		sizeBytes:      int64(len(data)),
	}, nil
}
