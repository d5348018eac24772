package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionFile_WireShape(t *testing.T) {
	file := CollectionFile{
		Metadata: CollectionMetadata{
			Collection:    "Products",
			ExportedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			DocumentCount: 1,
		},
		Documents: map[string]map[string]interface{}{
			"p1": {"name": "Widget"},
		},
	}

	raw, err := json.Marshal(file)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &parsed))

	meta, ok := parsed["_metadata"].(map[string]interface{})
	require.True(t, ok, "metadata must serialize under _metadata")
	assert.Equal(t, "Products", meta["collection"])
	assert.Equal(t, float64(1), meta["documentCount"])

	docs, ok := parsed["documents"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, docs, "p1")
}

func TestBlobManifest_WireShape(t *testing.T) {
	manifest := BlobManifest{
		ExportedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		SourceProject:  "proj",
		SourceBucket:   "bucket",
		TotalFiles:     1,
		TotalSizeBytes: 4,
		Paths:          map[string]PathStats{"gallery/": {FileCount: 1, TotalSizeBytes: 4}},
		Files: []BlobRecord{{
			Path:        "gallery/a.png",
			LocalPath:   "storage/gallery/a.png",
			ContentType: "image/png",
			SizeBytes:   4,
		}},
	}

	raw, err := json.Marshal(manifest)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.Equal(t, "bucket", parsed["sourceBucket"])
	assert.Contains(t, parsed["paths"].(map[string]interface{}), "gallery/")

	files := parsed["files"].([]interface{})
	entry := files[0].(map[string]interface{})
	assert.Equal(t, "gallery/a.png", entry["path"])
	// originalUrl is omitted when the source URL was never captured.
	assert.NotContains(t, entry, "originalUrl")
}

func TestURLMapping_AddIgnoresEmptyKeys(t *testing.T) {
	mapping := URLMapping{}
	mapping.Add("", "https://dest")
	mapping.Add("gs://b/k", "https://dest")

	assert.Len(t, mapping, 1)
	dst, ok := mapping.Lookup("gs://b/k")
	assert.True(t, ok)
	assert.Equal(t, "https://dest", dst)
}

func TestCollectionResult_Failed(t *testing.T) {
	assert.False(t, CollectionResult{DocumentCount: 3}.Failed())
	assert.True(t, CollectionResult{Error: "boom"}.Failed())
}
