package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenant-migrate/internal/migration/adapter/memory"
	"tenant-migrate/internal/migration/domain/model"
	"tenant-migrate/internal/migration/domain/repository"
	"tenant-migrate/internal/migration/snapshot"
	"tenant-migrate/internal/shared/logger"
)

// buildSnapshot writes blobs and a manifest into a fresh snapshot directory
// and returns a reader over it.
func buildSnapshot(t *testing.T, blobs map[string][]byte, files []model.BlobRecord) *snapshot.Reader {
	t.Helper()
	dir := t.TempDir()
	writer, err := snapshot.NewWriter(dir)
	require.NoError(t, err)

	for key, data := range blobs {
		_, err := writer.WriteBlob(key, data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.WriteManifest(model.BlobManifest{
		ExportedAt:   time.Now().UTC(),
		SourceBucket: "old-bucket",
		TotalFiles:   len(files),
		Files:        files,
	}))

	reader, err := snapshot.NewReader(dir)
	require.NoError(t, err)
	return reader
}

func record(key, contentType, originalURL string) model.BlobRecord {
	return model.BlobRecord{
		Path:        key,
		LocalPath:   "storage/" + key,
		ContentType: contentType,
		OriginalURL: originalURL,
	}
}

func sequentialTokens() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("tok-%d", n)
	}
}

func TestBlobImporter_MappingHasAllKeyVariants(t *testing.T) {
	reader := buildSnapshot(t,
		map[string][]byte{
			"gallery/a.png": []byte("aaa"),
			"docs/b.txt":    []byte("bb"),
		},
		[]model.BlobRecord{
			record("gallery/a.png", "image/png", "https://cdn.example/v0/b/old-bucket/o/gallery%2Fa.png?alt=media&token=ancient"),
			record("docs/b.txt", "text/plain", ""),
		})

	dest := memory.NewObjectStore()
	imp := NewBlobImporter(dest, reader, "new-bucket", "https://storage.example", "https://storage.example", 2, logger.NewLogger())
	imp.mintToken = sequentialTokens()

	manifest, err := reader.Manifest()
	require.NoError(t, err)

	mapping, stats := imp.Import(context.Background(), manifest)

	assert.Equal(t, 2, stats.Transferred)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, int64(5), stats.TotalSizeBytes)

	// 3 variants for the blob with a captured original URL, 2 for the other.
	assert.Len(t, mapping, 5)

	destA, ok := mapping.Lookup("gs://old-bucket/gallery/a.png")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(destA, "https://storage.example/v0/b/new-bucket/o/gallery%2Fa.png?alt=media&token=tok-"))

	apiA, ok := mapping.Lookup("https://storage.example/v0/b/old-bucket/o/gallery%2Fa.png")
	require.True(t, ok)
	assert.Equal(t, destA, apiA)

	capturedA, ok := mapping.Lookup("https://cdn.example/v0/b/old-bucket/o/gallery%2Fa.png")
	require.True(t, ok)
	assert.Equal(t, destA, capturedA)

	destB, ok := mapping.Lookup("gs://old-bucket/docs/b.txt")
	require.True(t, ok)
	assert.NotEqual(t, destA, destB)
}

func TestBlobImporter_UploadsIdenticalKeyWithTokenMetadata(t *testing.T) {
	reader := buildSnapshot(t,
		map[string][]byte{"gallery/a.png": []byte("payload")},
		[]model.BlobRecord{record("gallery/a.png", "image/png", "")})

	dest := memory.NewObjectStore()
	imp := NewBlobImporter(dest, reader, "new-bucket", "https://storage.example", "https://storage.example", 1, logger.NewLogger())
	imp.mintToken = func() string { return "NEWTOKEN" }

	manifest, err := reader.Manifest()
	require.NoError(t, err)
	mapping, _ := imp.Import(context.Background(), manifest)

	obj := dest.Object("new-bucket", "gallery/a.png")
	require.NotNil(t, obj)
	assert.Equal(t, []byte("payload"), obj.Data)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, "NEWTOKEN", obj.Metadata[repository.MetadataKeyDownloadTokens])

	destURL, ok := mapping.Lookup("gs://old-bucket/gallery/a.png")
	require.True(t, ok)
	assert.Equal(t, "https://storage.example/v0/b/new-bucket/o/gallery%2Fa.png?alt=media&token=NEWTOKEN", destURL)
}

func TestBlobImporter_MintsDistinctTokensPerObject(t *testing.T) {
	reader := buildSnapshot(t,
		map[string][]byte{
			"a.png": []byte("a"),
			"b.png": []byte("b"),
		},
		[]model.BlobRecord{
			record("a.png", "image/png", ""),
			record("b.png", "image/png", ""),
		})

	dest := memory.NewObjectStore()
	imp := NewBlobImporter(dest, reader, "new-bucket", "https://storage.example", "https://storage.example", 2, logger.NewLogger())

	manifest, err := reader.Manifest()
	require.NoError(t, err)
	imp.Import(context.Background(), manifest)

	tokenA := dest.Object("new-bucket", "a.png").Metadata[repository.MetadataKeyDownloadTokens]
	tokenB := dest.Object("new-bucket", "b.png").Metadata[repository.MetadataKeyDownloadTokens]
	assert.NotEmpty(t, tokenA)
	assert.NotEmpty(t, tokenB)
	assert.NotEqual(t, tokenA, tokenB)
}

func TestBlobImporter_FailedUploadExcludedFromMapping(t *testing.T) {
	reader := buildSnapshot(t,
		map[string][]byte{
			"good.png": []byte("ok"),
			"bad.png":  []byte("nope"),
		},
		[]model.BlobRecord{
			record("good.png", "image/png", ""),
			record("bad.png", "image/png", ""),
		})

	dest := memory.NewObjectStore()
	dest.UploadErrs["bad.png"] = errors.New("quota exceeded")

	imp := NewBlobImporter(dest, reader, "new-bucket", "https://storage.example", "https://storage.example", 2, logger.NewLogger())
	imp.mintToken = sequentialTokens()

	manifest, err := reader.Manifest()
	require.NoError(t, err)
	mapping, stats := imp.Import(context.Background(), manifest)

	assert.Equal(t, 1, stats.Transferred)
	assert.Equal(t, 1, stats.Failed)
	assert.Len(t, mapping, 2)

	_, ok := mapping.Lookup("gs://old-bucket/bad.png")
	assert.False(t, ok)
	_, ok = mapping.Lookup("gs://old-bucket/good.png")
	assert.True(t, ok)
}

func TestBlobImporter_MissingLocalBlobCountsAsFailure(t *testing.T) {
	reader := buildSnapshot(t,
		map[string][]byte{},
		[]model.BlobRecord{record("gone.png", "image/png", "")})

	dest := memory.NewObjectStore()
	imp := NewBlobImporter(dest, reader, "new-bucket", "https://storage.example", "https://storage.example", 1, logger.NewLogger())

	manifest, err := reader.Manifest()
	require.NoError(t, err)
	mapping, stats := imp.Import(context.Background(), manifest)

	assert.Equal(t, 0, stats.Transferred)
	assert.Equal(t, 1, stats.Failed)
	assert.Empty(t, mapping)
}
