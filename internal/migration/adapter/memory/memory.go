// Package memory provides map-backed document and object stores used as test
// doubles across the pipeline packages.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"tenant-migrate/internal/migration/domain/model"
	"tenant-migrate/internal/migration/domain/repository"
	"tenant-migrate/internal/shared/errors"
)

// DocumentStore implements repository.DocumentStore in memory.
type DocumentStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]interface{}

	// CommitErr, when set, fails every CommitWrites call.
	CommitErr error
	// Commits records the size of every commit unit applied, in order.
	Commits []int
}

// NewDocumentStore creates an empty in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		collections: make(map[string]map[string]map[string]interface{}),
	}
}

// Seed creates the collection if needed and stores the document.
func (s *DocumentStore) Seed(collection string, doc model.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]map[string]interface{})
	}
	s.collections[collection][doc.ID] = doc.Data
}

// SeedEmpty creates an empty collection.
func (s *DocumentStore) SeedEmpty(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]map[string]interface{})
	}
}

// CollectionExists implements repository.DocumentStore.
func (s *DocumentStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[collection]
	return ok, nil
}

// ListDocuments implements repository.DocumentStore.
func (s *DocumentStore) ListDocuments(ctx context.Context, collection string) ([]model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, ok := s.collections[collection]
	if !ok {
		return nil, errors.ErrCollectionNotFound
	}
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]model.Document, 0, len(docs))
	for _, id := range ids {
		out = append(out, model.Document{ID: id, Data: docs[id]})
	}
	return out, nil
}

// CommitWrites implements repository.DocumentStore with overwrite-by-id
// semantics.
func (s *DocumentStore) CommitWrites(ctx context.Context, collection string, writes []model.WriteOperation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CommitErr != nil {
		return s.CommitErr
	}
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]map[string]interface{})
	}
	for _, write := range writes {
		s.collections[collection][write.DocumentID] = write.Data
	}
	s.Commits = append(s.Commits, len(writes))
	return nil
}

// Document returns a stored document's data, or nil.
func (s *DocumentStore) Document(collection, id string) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collections[collection][id]
}

// Count returns the number of documents in a collection.
func (s *DocumentStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

type storedObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
}

// ObjectStore implements repository.ObjectStore in memory. Buckets and
// objects are created on first write.
type ObjectStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string]storedObject

	// DownloadErrs fails downloads for specific keys.
	DownloadErrs map[string]error
	// UploadErrs fails uploads for specific keys.
	UploadErrs map[string]error
	// ListErr, when set, fails every ListObjects call.
	ListErr error
}

// NewObjectStore creates an empty in-memory object store.
func NewObjectStore() *ObjectStore {
	return &ObjectStore{
		buckets:      make(map[string]map[string]storedObject),
		DownloadErrs: make(map[string]error),
		UploadErrs:   make(map[string]error),
	}
}

// Seed stores an object.
func (s *ObjectStore) Seed(bucket, key string, data []byte, contentType string, metadata map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buckets[bucket] == nil {
		s.buckets[bucket] = make(map[string]storedObject)
	}
	s.buckets[bucket][key] = storedObject{data: data, contentType: contentType, metadata: metadata}
}

// ListObjects implements repository.ObjectStore.
func (s *ObjectStore) ListObjects(ctx context.Context, bucket, prefix string) ([]repository.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var infos []repository.ObjectInfo
	for key, obj := range s.buckets[bucket] {
		if strings.HasPrefix(key, prefix) {
			infos = append(infos, repository.ObjectInfo{Key: key, SizeBytes: int64(len(obj.data))})
		}
	}
	sort.Slice(infos, func(a, b int) bool { return infos[a].Key < infos[b].Key })
	return infos, nil
}

// DownloadObject implements repository.ObjectStore.
func (s *ObjectStore) DownloadObject(ctx context.Context, bucket, key string) (*repository.ObjectPayload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.DownloadErrs[key]; err != nil {
		return nil, err
	}
	obj, ok := s.buckets[bucket][key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", errors.ErrObjectNotFound, bucket, key)
	}
	return &repository.ObjectPayload{
		Data:        append([]byte(nil), obj.data...),
		ContentType: obj.contentType,
		Metadata:    obj.metadata,
	}, nil
}

// UploadObject implements repository.ObjectStore.
func (s *ObjectStore) UploadObject(ctx context.Context, bucket, key string, upload repository.ObjectUpload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.UploadErrs[key]; err != nil {
		return err
	}
	if s.buckets[bucket] == nil {
		s.buckets[bucket] = make(map[string]storedObject)
	}
	s.buckets[bucket][key] = storedObject{
		data:        append([]byte(nil), upload.Data...),
		contentType: upload.ContentType,
		metadata:    upload.Metadata,
	}
	return nil
}

// Object returns a stored object, or nil.
func (s *ObjectStore) Object(bucket, key string) *repository.ObjectPayload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.buckets[bucket][key]
	if !ok {
		return nil
	}
	return &repository.ObjectPayload{Data: obj.data, ContentType: obj.contentType, Metadata: obj.metadata}
}
