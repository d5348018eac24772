package model

// Document represents one document read from, or staged for, a document store.
// Field trees are maps whose leaves are JSON primitives, nested maps/lists, or
// the native types below (time.Time, GeoPoint, Reference).
type Document struct {
	ID   string                 `json:"id"`
	Data map[string]interface{} `json:"data"`
}

// GeoPoint represents a geographical point.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Reference represents a slash-delimited reference to another document,
// e.g. "Categories/cat1".
type Reference string

// WriteOperation represents a single document write staged for a commit unit.
// Writes are keyed by the original document id and overwrite by id.
type WriteOperation struct {
	DocumentID string                 `json:"documentId"`
	Data       map[string]interface{} `json:"data"`
}
