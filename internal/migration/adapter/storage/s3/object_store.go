// Package s3 implements the object store over any S3-compatible service.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"tenant-migrate/internal/migration/domain/repository"
)

// ObjectStore implements repository.ObjectStore over an S3 client. Download
// tokens travel in object custom metadata, the service's mechanism for public
// read access without a signed-URL service.
type ObjectStore struct {
	client *awss3.Client
	log    *zap.Logger
}

// NewObjectStore wraps an S3 client.
func NewObjectStore(client *awss3.Client, log *zap.Logger) *ObjectStore {
	return &ObjectStore{client: client, log: log}
}

// NewClient builds an S3 client from the default credential chain. A
// non-empty endpoint selects a custom S3-compatible service with path-style
// addressing.
func NewClient(ctx context.Context, endpoint, region string) (*awss3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load storage credentials: %w", err)
	}
	client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return client, nil
}

// ListObjects returns every object under prefix, following pagination.
func (s *ObjectStore) ListObjects(ctx context.Context, bucket, prefix string) ([]repository.ObjectInfo, error) {
	paginator := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	var infos []repository.ObjectInfo
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects in %s under %q: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			infos = append(infos, repository.ObjectInfo{
				Key:       aws.ToString(obj.Key),
				SizeBytes: aws.ToInt64(obj.Size),
			})
		}
	}

	s.log.Debug("Listed objects",
		zap.String("bucket", bucket),
		zap.String("prefix", prefix),
		zap.Int("count", len(infos)))
	return infos, nil
}

// DownloadObject fetches one object with its content type and metadata.
func (s *ObjectStore) DownloadObject(ctx context.Context, bucket, key string) (*repository.ObjectPayload, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, key, err)
	}

	return &repository.ObjectPayload{
		Data:        data,
		ContentType: aws.ToString(out.ContentType),
		Metadata:    out.Metadata,
	}, nil
}

// UploadObject stores one object with its content type and metadata.
func (s *ObjectStore) UploadObject(ctx context.Context, bucket, key string, upload repository.ObjectUpload) error {
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(upload.Data),
		ContentType: aws.String(upload.ContentType),
		Metadata:    upload.Metadata,
	})
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", bucket, key, err)
	}

	s.log.Debug("Uploaded object",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int("sizeBytes", len(upload.Data)))
	return nil
}
