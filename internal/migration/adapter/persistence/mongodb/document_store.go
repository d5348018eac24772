// Package mongodb implements the document store over a MongoDB database, one
// Mongo collection per document collection inside the tenant database.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"tenant-migrate/internal/migration/codec"
	"tenant-migrate/internal/migration/domain/model"
)

// DocumentStore implements repository.DocumentStore over a tenant database.
// Field trees are persisted in the tagged portable encoding, so native types
// (timestamps, geopoints, references) survive the BSON round trip exactly.
type DocumentStore struct {
	db  *mongo.Database
	log *zap.Logger
}

// NewDocumentStore creates a MongoDB-backed document store.
func NewDocumentStore(db *mongo.Database, log *zap.Logger) *DocumentStore {
	return &DocumentStore{db: db, log: log}
}

// CollectionExists reports whether the named collection exists in the tenant
// database. An empty collection that was explicitly created exists.
func (s *DocumentStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.M{"name": collection})
	if err != nil {
		return false, fmt.Errorf("list collections: %w", err)
	}
	return len(names) > 0, nil
}

// ListDocuments returns every document of a collection with decoded native
// field values.
func (s *DocumentStore) ListDocuments(ctx context.Context, collection string) ([]model.Document, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find documents in %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []model.Document
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode document in %s: %w", collection, err)
		}
		id := documentID(raw["_id"])
		delete(raw, "_id")

		fields, err := codec.DecodeFields(normalizeMap(raw))
		if err != nil {
			return nil, fmt.Errorf("decode fields of %s/%s: %w", collection, id, err)
		}
		docs = append(docs, model.Document{ID: id, Data: fields})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents in %s: %w", collection, err)
	}

	s.log.Debug("Listed documents",
		zap.String("collection", collection),
		zap.Int("count", len(docs)))
	return docs, nil
}

// CommitWrites applies one commit unit as a single ordered bulk write of
// upserting replacements keyed by _id, so re-applying a unit is last-write-
// wins per document id.
func (s *DocumentStore) CommitWrites(ctx context.Context, collection string, writes []model.WriteOperation) error {
	if len(writes) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(writes))
	for _, write := range writes {
		encoded, err := codec.EncodeFields(write.Data)
		if err != nil {
			return fmt.Errorf("encode fields of %s/%s: %w", collection, write.DocumentID, err)
		}
		replacement := bson.M(encoded)
		replacement["_id"] = write.DocumentID
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": write.DocumentID}).
			SetReplacement(replacement).
			SetUpsert(true))
	}

	result, err := s.db.Collection(collection).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return fmt.Errorf("bulk write to %s: %w", collection, err)
	}

	s.log.Debug("Committed write unit",
		zap.String("collection", collection),
		zap.Int("operations", len(models)),
		zap.Int64("upserted", result.UpsertedCount),
		zap.Int64("modified", result.ModifiedCount))
	return nil
}

// documentID renders the stored _id verbatim when it is a string, falling
// back to hex/string forms for legacy id types.
func documentID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case primitive.ObjectID:
		return v.Hex()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// normalizeMap converts BSON decoder types into the plain map/list/primitive
// forms the codec operates on.
func normalizeMap(m bson.M) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for key, value := range m {
		out[key] = normalizeValue(value)
	}
	return out
}

func normalizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case bson.M:
		return normalizeMap(v)
	case bson.D:
		out := make(map[string]interface{}, len(v))
		for _, elem := range v {
			out[elem.Key] = normalizeValue(elem.Value)
		}
		return out
	case bson.A:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item)
		}
		return out
	case primitive.DateTime:
		return v.Time().UTC()
	case primitive.ObjectID:
		return v.Hex()
	default:
		return v
	}
}
