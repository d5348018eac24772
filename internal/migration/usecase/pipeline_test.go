package usecase

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenant-migrate/internal/migration/adapter/memory"
	"tenant-migrate/internal/migration/config"
	"tenant-migrate/internal/migration/domain/model"
	"tenant-migrate/internal/migration/domain/repository"
	"tenant-migrate/internal/shared/logger"
)

func migrationConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		SourceProject:        "proj",
		SourceBucket:         "old-bucket",
		DestBucket:           "new-bucket",
		SourceStorageBaseURL: "https://storage.example",
		DestStorageBaseURL:   "https://storage.example",
		Collections:          []string{"Products", "Reviews"},
		StoragePrefixes:      []string{"gallery/"},
		SnapshotDir:          filepath.Join(t.TempDir(), "snapshot"),
		TransferConcurrency:  2,
		WriteBatchSize:       500,
	}
}

func TestPipeline_ExportThenImport(t *testing.T) {
	cfg := migrationConfig(t)
	createdAt := time.Date(2024, 3, 15, 9, 30, 0, 250*int(time.Millisecond), time.UTC)
	sourcePhotoURL := "https://storage.example/v0/b/old-bucket/o/gallery%2Fa.png?alt=media&token=tok-a"

	sourceDocs := memory.NewDocumentStore()
	sourceDocs.Seed("Products", model.Document{ID: "p1", Data: map[string]interface{}{
		"name":      "Widget",
		"createdAt": createdAt,
		"location":  model.GeoPoint{Latitude: 40.4168, Longitude: -3.7038},
		"owner":     model.Reference("users/u1"),
		"photo":     sourcePhotoURL,
	}})
	sourceDocs.Seed("Reviews", model.Document{ID: "r1", Data: map[string]interface{}{
		"rating": 5.0,
	}})

	sourceBlobs := memory.NewObjectStore()
	sourceBlobs.Seed("old-bucket", "gallery/a.png", []byte("png-bytes"), "image/png",
		map[string]string{repository.MetadataKeyDownloadTokens: "tok-a"})

	exporter := NewPipeline(cfg, sourceDocs, nil, sourceBlobs, nil, logger.NewLogger())
	exportSummary, err := exporter.ExportTenant(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, exportSummary.Collections["Products"].DocumentCount)
	assert.Equal(t, 1, exportSummary.Collections["Reviews"].DocumentCount)
	assert.Equal(t, 1, exportSummary.Blobs.Transferred)
	assert.Zero(t, exportSummary.Blobs.Failed)

	destDocs := memory.NewDocumentStore()
	destBlobs := memory.NewObjectStore()

	importer := NewPipeline(cfg, nil, destDocs, nil, destBlobs, logger.NewLogger())
	importSummary, err := importer.ImportTenant(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, importSummary.Collections["Products"].DocumentCount)
	assert.Equal(t, 1, importSummary.Collections["Reviews"].DocumentCount)
	assert.Equal(t, 1, importSummary.Blobs.Transferred)
	assert.Zero(t, importSummary.FallbackRewrites)
	assert.Zero(t, importSummary.SkippedDocuments)

	// The blob landed at its identical key with a freshly minted token.
	uploaded := destBlobs.Object("new-bucket", "gallery/a.png")
	require.NotNil(t, uploaded)
	assert.Equal(t, []byte("png-bytes"), uploaded.Data)
	assert.Equal(t, "image/png", uploaded.ContentType)
	newToken := uploaded.Metadata[repository.MetadataKeyDownloadTokens]
	require.NotEmpty(t, newToken)
	assert.NotEqual(t, "tok-a", newToken)

	// The document arrived with its id, native types and a rewritten photo URL
	// pointing at the destination bucket with the new token.
	doc := destDocs.Document("Products", "p1")
	require.NotNil(t, doc)
	assert.Equal(t, "Widget", doc["name"])

	gotCreatedAt, ok := doc["createdAt"].(time.Time)
	require.True(t, ok, "createdAt must round-trip as a timestamp")
	assert.True(t, createdAt.Equal(gotCreatedAt))

	assert.Equal(t, model.GeoPoint{Latitude: 40.4168, Longitude: -3.7038}, doc["location"])
	assert.Equal(t, model.Reference("users/u1"), doc["owner"])

	wantPhoto := "https://storage.example/v0/b/new-bucket/o/gallery%2Fa.png?alt=media&token=" + newToken
	assert.Equal(t, wantPhoto, doc["photo"])

	review := destDocs.Document("Reviews", "r1")
	require.NotNil(t, review)
	assert.Equal(t, 5.0, review["rating"])
}

func TestPipeline_ExportRecordsMissingCollectionAndContinues(t *testing.T) {
	cfg := migrationConfig(t)
	cfg.Collections = []string{"Missing", "Products"}

	sourceDocs := memory.NewDocumentStore()
	sourceDocs.Seed("Products", model.Document{ID: "p1", Data: map[string]interface{}{"name": "Widget"}})

	pipeline := NewPipeline(cfg, sourceDocs, nil, memory.NewObjectStore(), nil, logger.NewLogger())
	summary, err := pipeline.ExportTenant(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.Collections["Missing"].Failed())
	assert.Equal(t, 1, summary.Collections["Products"].DocumentCount)
}

func TestPipeline_ExportRefusesExistingSnapshot(t *testing.T) {
	cfg := migrationConfig(t)
	sourceDocs := memory.NewDocumentStore()
	sourceDocs.Seed("Products", model.Document{ID: "p1", Data: map[string]interface{}{"name": "Widget"}})
	sourceDocs.Seed("Reviews", model.Document{ID: "r1", Data: map[string]interface{}{"rating": 5.0}})
	sourceBlobs := memory.NewObjectStore()

	pipeline := NewPipeline(cfg, sourceDocs, nil, sourceBlobs, nil, logger.NewLogger())
	_, err := pipeline.ExportTenant(context.Background())
	require.NoError(t, err)

	_, err = pipeline.ExportTenant(context.Background())
	assert.Error(t, err)
}

func TestPipeline_ImportWithoutSnapshotFails(t *testing.T) {
	cfg := migrationConfig(t)

	pipeline := NewPipeline(cfg, nil, memory.NewDocumentStore(), nil, memory.NewObjectStore(), logger.NewLogger())
	_, err := pipeline.ImportTenant(context.Background())
	assert.Error(t, err)
}

func TestPipeline_MissingBlobLeavesStaleTokenAndReportsFallback(t *testing.T) {
	cfg := migrationConfig(t)
	cfg.Collections = []string{"Products"}

	sourceDocs := memory.NewDocumentStore()
	staleURL := "https://storage.example/v0/b/old-bucket/o/gallery%2Fgone.png?alt=media&token=tok-old"
	sourceDocs.Seed("Products", model.Document{ID: "p1", Data: map[string]interface{}{
		"photo": staleURL,
	}})

	// The referenced object does not exist in the source bucket, so it is
	// never exported and never mapped.
	pipeline := NewPipeline(cfg, sourceDocs, nil, memory.NewObjectStore(), nil, logger.NewLogger())
	_, err := pipeline.ExportTenant(context.Background())
	require.NoError(t, err)

	destDocs := memory.NewDocumentStore()
	importPipeline := NewPipeline(cfg, nil, destDocs, nil, memory.NewObjectStore(), logger.NewLogger())
	summary, err := importPipeline.ImportTenant(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FallbackRewrites)
	doc := destDocs.Document("Products", "p1")
	require.NotNil(t, doc)
	assert.Equal(t, "https://storage.example/v0/b/new-bucket/o/gallery%2Fgone.png?alt=media&token=tok-old", doc["photo"])
}
