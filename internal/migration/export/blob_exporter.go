package export

import (
	"context"
	"strings"
	"time"

	"tenant-migrate/internal/migration/domain/model"
	"tenant-migrate/internal/migration/domain/repository"
	"tenant-migrate/internal/migration/snapshot"
	"tenant-migrate/internal/migration/transform"
	"tenant-migrate/internal/shared/errors"
	"tenant-migrate/internal/shared/logger"
	"tenant-migrate/internal/shared/workpool"
)

// BlobExporter enumerates and downloads the blobs under configured path
// prefixes into the snapshot's local blob tree and builds the manifest.
type BlobExporter struct {
	store          repository.ObjectStore
	writer         *snapshot.Writer
	sourceProject  string
	sourceBucket   string
	storageBaseURL string
	concurrency    int
	log            logger.Logger
}

// NewBlobExporter creates a blob exporter for the source bucket.
func NewBlobExporter(store repository.ObjectStore, writer *snapshot.Writer, sourceProject, sourceBucket, storageBaseURL string, concurrency int, log logger.Logger) *BlobExporter {
	return &BlobExporter{
		store:          store,
		writer:         writer,
		sourceProject:  sourceProject,
		sourceBucket:   sourceBucket,
		storageBaseURL: storageBaseURL,
		concurrency:    concurrency,
		log:            log.WithComponent("blob-exporter"),
	}
}

type downloadItem struct {
	key    string
	prefix string
}

type downloadOutcome struct {
	record model.BlobRecord
	prefix string
}

// Export downloads every object under the given prefixes and writes the
// finalized manifest. A single object's failure is logged and dropped from
// the manifest, never escalated to abort the run; a failed listing is a
// run-level error, since the whole prefix would silently go missing.
func (e *BlobExporter) Export(ctx context.Context, prefixes []string) (*model.BlobManifest, model.BlobTransferStats, error) {
	manifest := &model.BlobManifest{
		ExportedAt:    time.Now().UTC(),
		SourceProject: e.sourceProject,
		SourceBucket:  e.sourceBucket,
		Paths:         make(map[string]model.PathStats, len(prefixes)),
		Files:         []model.BlobRecord{},
	}
	var stats model.BlobTransferStats

	var items []downloadItem
	for _, prefix := range prefixes {
		objects, err := e.store.ListObjects(ctx, e.sourceBucket, prefix)
		if err != nil {
			return nil, stats, errors.NewTransferError("cannot list objects under prefix "+prefix).
				WithCause(err).WithComponent("blob-exporter").WithDetail("bucket", e.sourceBucket)
		}
		manifest.Paths[prefix] = model.PathStats{}
		for _, obj := range objects {
			// Folder placeholders carry no payload.
			if strings.HasSuffix(obj.Key, "/") {
				continue
			}
			items = append(items, downloadItem{key: obj.Key, prefix: prefix})
		}
	}

	results := workpool.Map(ctx, e.concurrency, items, e.download)

	// The pool has drained; the manifest is assembled by this single writer.
	for i, res := range results {
		if res.Err != nil {
			stats.Failed++
			e.log.WithFields(map[string]interface{}{
				"key":   items[i].key,
				"error": res.Err.Error(),
			}).Warn("Skipping blob: download failed")
			continue
		}
		outcome := res.Value
		manifest.Files = append(manifest.Files, outcome.record)
		manifest.TotalFiles++
		manifest.TotalSizeBytes += outcome.record.SizeBytes
		pathStats := manifest.Paths[outcome.prefix]
		pathStats.FileCount++
		pathStats.TotalSizeBytes += outcome.record.SizeBytes
		manifest.Paths[outcome.prefix] = pathStats
		stats.Transferred++
		stats.TotalSizeBytes += outcome.record.SizeBytes
	}

	if err := e.writer.WriteManifest(*manifest); err != nil {
		return nil, stats, err
	}

	e.log.WithFields(map[string]interface{}{
		"files":     manifest.TotalFiles,
		"failed":    stats.Failed,
		"sizeBytes": manifest.TotalSizeBytes,
	}).Info("Exported blobs")
	return manifest, stats, nil
}

func (e *BlobExporter) download(ctx context.Context, item downloadItem) (downloadOutcome, error) {
	payload, err := e.store.DownloadObject(ctx, e.sourceBucket, item.key)
	if err != nil {
		return downloadOutcome{}, err
	}

	localPath, err := e.writer.WriteBlob(item.key, payload.Data)
	if err != nil {
		return downloadOutcome{}, err
	}

	record := model.BlobRecord{
		Path:        item.key,
		LocalPath:   localPath,
		ContentType: payload.ContentType,
		SizeBytes:   int64(len(payload.Data)),
	}
	if token := firstToken(payload.Metadata[repository.MetadataKeyDownloadTokens]); token != "" {
		record.OriginalURL = transform.MediaURL(e.storageBaseURL, e.sourceBucket, item.key, token)
	}
	return downloadOutcome{record: record, prefix: item.prefix}, nil
}

// firstToken picks the first entry of a comma-separated token list.
func firstToken(tokens string) string {
	if i := strings.IndexByte(tokens, ','); i >= 0 {
		return tokens[:i]
	}
	return tokens
}
