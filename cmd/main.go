package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"tenant-migrate/internal/migration/adapter/persistence/mongodb"
	s3adapter "tenant-migrate/internal/migration/adapter/storage/s3"
	"tenant-migrate/internal/migration/config"
	"tenant-migrate/internal/migration/domain/repository"
	"tenant-migrate/internal/migration/usecase"
	"tenant-migrate/internal/shared/logger"
)

func main() {
	fmt.Println("Tenant Migrate - starting")

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	mode := "export"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}
	if mode != "export" && mode != "import" {
		log.Fatalf("Unknown mode %q: expected export or import", mode)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.NewLogger()
	appLogger.Info("Migration configuration loaded")

	adapterLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize adapter logger: %v", err)
	}
	defer adapterLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sourceDocs, destDocs *mongodb.DocumentStore
	var sourceBlobs, destBlobs repository.ObjectStore

	switch mode {
	case "export":
		db, disconnect := connectMongo(ctx, cfg.SourceMongoURI, cfg.SourceDatabase, appLogger)
		defer disconnect()
		sourceDocs = mongodb.NewDocumentStore(db, adapterLogger)

		client, err := s3adapter.NewClient(ctx, cfg.StorageEndpoint, cfg.StorageRegion)
		if err != nil {
			log.Fatalf("Failed to create storage client: %v", err)
		}
		sourceBlobs = s3adapter.NewObjectStore(client, adapterLogger)
	case "import":
		db, disconnect := connectMongo(ctx, cfg.DestMongoURI, cfg.DestDatabase, appLogger)
		defer disconnect()
		destDocs = mongodb.NewDocumentStore(db, adapterLogger)

		client, err := s3adapter.NewClient(ctx, cfg.StorageEndpoint, cfg.StorageRegion)
		if err != nil {
			log.Fatalf("Failed to create storage client: %v", err)
		}
		destBlobs = s3adapter.NewObjectStore(client, adapterLogger)
	}

	pipeline := usecase.NewPipeline(cfg, storeOrNil(sourceDocs), storeOrNil(destDocs), sourceBlobs, destBlobs, appLogger)

	switch mode {
	case "export":
		summary, err := pipeline.ExportTenant(ctx)
		if err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		appLogger.Infof("Export complete: %d collections, %d blobs, snapshot at %s",
			len(summary.Collections), summary.Blobs.Transferred, summary.SnapshotDir)
	case "import":
		summary, err := pipeline.ImportTenant(ctx)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		appLogger.Infof("Import complete: %d collections, %d blobs, %d stale references",
			len(summary.Collections), summary.Blobs.Transferred, summary.FallbackRewrites)
	}
}

func connectMongo(ctx context.Context, uri, database string, appLogger logger.Logger) (*mongo.Database, func()) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	appLogger.Infof("MongoDB connection established: %s", database)

	return client.Database(database), func() {
		if err := client.Disconnect(context.Background()); err != nil {
			appLogger.Errorf("Failed to disconnect MongoDB: %v", err)
		}
	}
}

// storeOrNil keeps the pipeline's DocumentStore parameters nil when a side is
// not connected, instead of a non-nil interface wrapping a nil pointer.
func storeOrNil(store *mongodb.DocumentStore) repository.DocumentStore {
	if store == nil {
		return nil
	}
	return store
}
