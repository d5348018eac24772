package config

import (
	"github.com/caarlos0/env/v6"

	"tenant-migrate/internal/shared/errors"
)

// MaxWriteBatchSize is the hard per-transaction operation cap imposed by the
// destination document store. Commit units are pre-sized to this, never
// reactive to a thrown limit error.
const MaxWriteBatchSize = 500

// DefaultTransferConcurrency bounds the download/upload worker pools. Width 5
// bounds file-descriptor and bandwidth usage while overlapping network
// latency.
const DefaultTransferConcurrency = 5

// Config holds all configuration consumed from the enclosing tool.
type Config struct {
	// Document stores
	SourceMongoURI string `env:"SOURCE_MONGODB_URI"`
	SourceDatabase string `env:"SOURCE_DATABASE"`
	DestMongoURI   string `env:"DEST_MONGODB_URI"`
	DestDatabase   string `env:"DEST_DATABASE"`

	// Blob stores
	SourceProject        string `env:"SOURCE_PROJECT"`
	SourceBucket         string `env:"SOURCE_BUCKET"`
	DestBucket           string `env:"DEST_BUCKET"`
	SourceStorageBaseURL string `env:"SOURCE_STORAGE_BASE_URL" envDefault:"https://firebasestorage.googleapis.com"`
	DestStorageBaseURL   string `env:"DEST_STORAGE_BASE_URL" envDefault:"https://firebasestorage.googleapis.com"`
	StorageEndpoint      string `env:"STORAGE_ENDPOINT"`
	StorageRegion        string `env:"STORAGE_REGION" envDefault:"us-east-1"`

	// Migration scope
	Collections     []string `env:"MIGRATE_COLLECTIONS" envSeparator:","`
	StoragePrefixes []string `env:"MIGRATE_STORAGE_PREFIXES" envSeparator:","`
	SnapshotDir     string   `env:"SNAPSHOT_DIR" envDefault:"./snapshot"`

	// Transfer tuning
	TransferConcurrency int `env:"TRANSFER_CONCURRENCY" envDefault:"5"`
	WriteBatchSize      int `env:"WRITE_BATCH_SIZE" envDefault:"500"`

	// RequireBlobs controls whether a failed blob upload blocks the writes of
	// documents referencing it. The default keeps the document and leaves a
	// stale-token reference, reported in the run summary.
	RequireBlobs bool `env:"REQUIRE_BLOBS" envDefault:"false"`
}

// LoadConfig loads configuration from environment variables and applies
// defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.NewConfigurationError("failed to load migration configuration from environment").
			WithCause(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes and checks the configuration.
func (c *Config) Validate() error {
	if c.TransferConcurrency <= 0 {
		c.TransferConcurrency = DefaultTransferConcurrency
	}
	if c.WriteBatchSize <= 0 {
		c.WriteBatchSize = MaxWriteBatchSize
	}
	if c.WriteBatchSize > MaxWriteBatchSize {
		return errors.NewConfigurationError("write batch size exceeds the destination limit").
			WithCause(errors.ErrBatchSizeExceeded).
			WithDetail("writeBatchSize", c.WriteBatchSize).
			WithDetail("limit", MaxWriteBatchSize)
	}
	if c.SnapshotDir == "" {
		return errors.NewConfigurationError("snapshot directory is required").
			WithCause(errors.ErrInvalidConfig)
	}
	return nil
}
