package model

import "time"

// CollectionMetadata describes one exported collection file.
type CollectionMetadata struct {
	Collection    string    `json:"collection"`
	ExportedAt    time.Time `json:"exportedAt"`
	DocumentCount int       `json:"documentCount"`
}

// CollectionFile is the on-disk form of one exported collection. Documents are
// keyed by their original id; field values are in the tagged portable encoding.
// A file with zero documents means the collection existed and was empty; the
// file's absence means the collection did not exist.
type CollectionFile struct {
	Metadata  CollectionMetadata                `json:"_metadata"`
	Documents map[string]map[string]interface{} `json:"documents"`
}

// BlobRecord describes one blob captured in a snapshot.
type BlobRecord struct {
	Path        string `json:"path"`
	LocalPath   string `json:"localPath"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
	OriginalURL string `json:"originalUrl,omitempty"`
}

// PathStats aggregates the blobs captured under one configured prefix.
type PathStats struct {
	FileCount      int   `json:"fileCount"`
	TotalSizeBytes int64 `json:"totalSizeBytes"`
}

// BlobManifest indexes every blob captured in a snapshot with metadata
// sufficient to re-upload and re-link it.
type BlobManifest struct {
	ExportedAt     time.Time            `json:"exportedAt"`
	SourceProject  string               `json:"sourceProject"`
	SourceBucket   string               `json:"sourceBucket"`
	TotalFiles     int                  `json:"totalFiles"`
	TotalSizeBytes int64                `json:"totalSizeBytes"`
	Paths          map[string]PathStats `json:"paths"`
	Files          []BlobRecord         `json:"files"`
}

// URLMapping maps every known spelling of a blob's pre-migration URL (bare
// object key form, scheme-qualified form, captured original URL) to its single
// post-migration URL carrying the freshly minted token.
type URLMapping map[string]string

// Add records one source spelling for a destination URL. Empty keys are
// ignored so callers can pass optional variants unconditionally.
func (m URLMapping) Add(sourceURL, destinationURL string) {
	if sourceURL == "" {
		return
	}
	m[sourceURL] = destinationURL
}

// Lookup returns the destination URL for an exact source spelling.
func (m URLMapping) Lookup(sourceURL string) (string, bool) {
	dst, ok := m[sourceURL]
	return dst, ok
}
