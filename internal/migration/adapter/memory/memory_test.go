package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenant-migrate/internal/migration/domain/model"
	"tenant-migrate/internal/migration/domain/repository"
	"tenant-migrate/internal/shared/errors"
)

func TestDocumentStore_ExistenceVsEmptiness(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	exists, err := store.CollectionExists(ctx, "Ghost")
	require.NoError(t, err)
	assert.False(t, exists)

	store.SeedEmpty("Empty")
	exists, err = store.CollectionExists(ctx, "Empty")
	require.NoError(t, err)
	assert.True(t, exists)

	docs, err := store.ListDocuments(ctx, "Empty")
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = store.ListDocuments(ctx, "Ghost")
	assert.ErrorIs(t, err, errors.ErrCollectionNotFound)
}

func TestDocumentStore_CommitWritesOverwritesById(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.CommitWrites(ctx, "C", []model.WriteOperation{
		{DocumentID: "a", Data: map[string]interface{}{"v": 1}},
	}))
	require.NoError(t, store.CommitWrites(ctx, "C", []model.WriteOperation{
		{DocumentID: "a", Data: map[string]interface{}{"v": 2}},
		{DocumentID: "b", Data: map[string]interface{}{"v": 3}},
	}))

	assert.Equal(t, 2, store.Count("C"))
	assert.Equal(t, map[string]interface{}{"v": 2}, store.Document("C", "a"))
	assert.Equal(t, []int{1, 2}, store.Commits)
}

func TestObjectStore_ListFiltersByPrefix(t *testing.T) {
	store := NewObjectStore()
	store.Seed("b", "gallery/a.png", []byte("a"), "image/png", nil)
	store.Seed("b", "gallery/b.png", []byte("b"), "image/png", nil)
	store.Seed("b", "docs/c.txt", []byte("c"), "text/plain", nil)

	infos, err := store.ListObjects(context.Background(), "b", "gallery/")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "gallery/a.png", infos[0].Key)
	assert.Equal(t, "gallery/b.png", infos[1].Key)
}

func TestObjectStore_DownloadUploadRoundTrip(t *testing.T) {
	store := NewObjectStore()
	ctx := context.Background()

	require.NoError(t, store.UploadObject(ctx, "b", "k", repository.ObjectUpload{
		Data:        []byte("payload"),
		ContentType: "text/plain",
		Metadata:    map[string]string{"downloadTokens": "t"},
	}))

	payload, err := store.DownloadObject(ctx, "b", "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), payload.Data)
	assert.Equal(t, "text/plain", payload.ContentType)
	assert.Equal(t, "t", payload.Metadata["downloadTokens"])

	_, err = store.DownloadObject(ctx, "b", "missing")
	assert.ErrorIs(t, err, errors.ErrObjectNotFound)
}
