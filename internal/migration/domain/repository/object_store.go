package repository

import "context"

// MetadataKeyDownloadTokens is the custom-metadata key carrying a blob's
// download token. It is the storage service's mechanism for public read
// access without a signed-URL service.
const MetadataKeyDownloadTokens = "downloadTokens"

// ObjectInfo describes one listed object.
type ObjectInfo struct {
	Key       string
	SizeBytes int64
}

// ObjectPayload is a downloaded object with its stored attributes.
type ObjectPayload struct {
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

// ObjectUpload is the content and attributes for one upload.
type ObjectUpload struct {
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

// ObjectStore abstracts the blob store on either side of a migration.
type ObjectStore interface {
	// ListObjects returns every object whose key starts with prefix,
	// including folder-placeholder keys; callers filter those.
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)

	// DownloadObject fetches one object with its content type and custom
	// metadata.
	DownloadObject(ctx context.Context, bucket, key string) (*ObjectPayload, error)

	// UploadObject stores one object under key, overwriting any existing
	// object.
	UploadObject(ctx context.Context, bucket, key string, upload ObjectUpload) error
}
