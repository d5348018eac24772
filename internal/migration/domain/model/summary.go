package model

import "time"

// CollectionResult reports the outcome of migrating one collection: either a
// document count or an error string, never both.
type CollectionResult struct {
	DocumentCount int    `json:"documentCount"`
	Error         string `json:"error,omitempty"`
}

// Failed reports whether the collection ended in an error.
func (r CollectionResult) Failed() bool {
	return r.Error != ""
}

// BlobTransferStats aggregates blob transfer outcomes for one run. Failures
// are warnings, not fatal: a failed object is simply absent from the manifest
// or URL mapping.
type BlobTransferStats struct {
	Transferred    int   `json:"transferred"`
	Failed         int   `json:"failed"`
	TotalSizeBytes int64 `json:"totalSizeBytes"`
}

// ExportSummary is the structured end-of-run report for an export.
type ExportSummary struct {
	StartedAt   time.Time                   `json:"startedAt"`
	FinishedAt  time.Time                   `json:"finishedAt"`
	SnapshotDir string                      `json:"snapshotDir"`
	Collections map[string]CollectionResult `json:"collections"`
	Blobs       BlobTransferStats           `json:"blobs"`
}

// ImportSummary is the structured end-of-run report for an import. Partial
// success is a normal, explicitly reported outcome.
type ImportSummary struct {
	StartedAt   time.Time                   `json:"startedAt"`
	FinishedAt  time.Time                   `json:"finishedAt"`
	Collections map[string]CollectionResult `json:"collections"`
	Blobs       BlobTransferStats           `json:"blobs"`
	// FallbackRewrites counts field rewrites that fell through to bucket
	// substitution because the referenced object was absent from the mapping.
	// Non-zero means some imported references carry stale tokens.
	FallbackRewrites int `json:"fallbackRewrites"`
	// SkippedDocuments counts documents withheld because RequireBlobs is set
	// and one of their blob references could not be resolved.
	SkippedDocuments int `json:"skippedDocuments"`
}
