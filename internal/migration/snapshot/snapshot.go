// Package snapshot reads and writes the portable snapshot directory shared by
// export and import, which may run on different machines at different times.
//
// Layout:
//
//	snapshot/
//	  storage-manifest.json            blob manifest
//	  storage/<objectKey...>           one file per blob, path mirrors the key
//	  firestore/<collectionName>.json  one file per collection
package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"tenant-migrate/internal/migration/domain/model"
	"tenant-migrate/internal/shared/errors"
)

const (
	// ManifestFileName is the blob manifest at the snapshot root.
	ManifestFileName = "storage-manifest.json"
	// StorageDirName holds one file per blob, mirroring object keys.
	StorageDirName = "storage"
	// FirestoreDirName holds one JSON file per exported collection.
	FirestoreDirName = "firestore"
)

// Writer creates a snapshot directory. Snapshots are write-once: the manifest
// is written last, and a directory that already holds one is refused.
type Writer struct {
	dir string
}

// NewWriter prepares the snapshot tree under dir.
func NewWriter(dir string) (*Writer, error) {
	if _, err := os.Stat(filepath.Join(dir, ManifestFileName)); err == nil {
		return nil, errors.NewConfigurationError("snapshot already written to "+dir).
			WithCause(errors.ErrSnapshotExists).WithComponent("snapshot")
	}
	for _, sub := range []string{StorageDirName, FirestoreDirName} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, errors.NewConfigurationError("cannot create snapshot directory").
				WithCause(err).WithComponent("snapshot").WithDetail("dir", dir)
		}
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the snapshot root.
func (w *Writer) Dir() string {
	return w.dir
}

// WriteCollectionFile persists one exported collection.
func (w *Writer) WriteCollectionFile(file model.CollectionFile) error {
	rel, err := collectionRelPath(file.Metadata.Collection)
	if err != nil {
		return err
	}
	return writeJSON(filepath.Join(w.dir, filepath.FromSlash(rel)), file)
}

// WriteBlob stores one downloaded blob under its object key and returns the
// manifest-relative local path.
func (w *Writer) WriteBlob(key string, data []byte) (string, error) {
	rel, err := blobRelPath(key)
	if err != nil {
		return "", err
	}
	path := filepath.Join(w.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.NewTransferError("cannot create blob directory").
			WithCause(err).WithComponent("snapshot").WithDetail("key", key)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.NewTransferError("cannot write blob file").
			WithCause(err).WithComponent("snapshot").WithDetail("key", key)
	}
	return rel, nil
}

// WriteManifest finalizes the snapshot. Export calls this exactly once, after
// every blob has been observed.
func (w *Writer) WriteManifest(manifest model.BlobManifest) error {
	return writeJSON(filepath.Join(w.dir, ManifestFileName), manifest)
}

// Reader opens an existing snapshot directory.
type Reader struct {
	dir string
}

// NewReader opens dir. A missing snapshot directory is a configuration error,
// fatal before any partial work begins.
func NewReader(dir string) (*Reader, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, errors.NewConfigurationError("snapshot directory does not exist: "+dir).
			WithCause(errors.ErrSnapshotNotFound).WithComponent("snapshot")
	}
	return &Reader{dir: dir}, nil
}

// Dir returns the snapshot root.
func (r *Reader) Dir() string {
	return r.dir
}

// Manifest loads the blob manifest. A missing manifest is a configuration
// error.
func (r *Reader) Manifest() (*model.BlobManifest, error) {
	raw, err := os.ReadFile(filepath.Join(r.dir, ManifestFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewConfigurationError("snapshot has no blob manifest").
				WithCause(errors.ErrManifestNotFound).WithComponent("snapshot").WithDetail("dir", r.dir)
		}
		return nil, errors.NewConfigurationError("cannot read blob manifest").
			WithCause(err).WithComponent("snapshot")
	}
	var manifest model.BlobManifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, errors.NewSerializationError("malformed blob manifest").
			WithCause(err).WithComponent("snapshot")
	}
	return &manifest, nil
}

// ReadCollectionFile loads one collection file. Absence means the collection
// does not exist in the snapshot, reported via ErrCollectionNotFound.
func (r *Reader) ReadCollectionFile(collection string) (*model.CollectionFile, error) {
	rel, err := collectionRelPath(collection)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(filepath.Join(r.dir, filepath.FromSlash(rel)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewSerializationError("no snapshot file for collection "+collection).
				WithCause(errors.ErrCollectionNotFound).WithComponent("snapshot").
				WithDetail("collection", collection)
		}
		return nil, errors.NewSerializationError("cannot read collection file").
			WithCause(err).WithComponent("snapshot").WithDetail("collection", collection)
	}
	var file model.CollectionFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, errors.NewSerializationError("malformed collection file for "+collection).
			WithCause(err).WithComponent("snapshot").WithDetail("collection", collection)
	}
	return &file, nil
}

// ReadBlob loads one blob by its manifest-relative local path.
func (r *Reader) ReadBlob(localPath string) ([]byte, error) {
	if err := validateRelPath(localPath); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(r.dir, filepath.FromSlash(localPath)))
	if err != nil {
		return nil, errors.NewTransferError("cannot read blob file").
			WithCause(err).WithComponent("snapshot").WithDetail("localPath", localPath)
	}
	return data, nil
}

func blobRelPath(key string) (string, error) {
	rel := StorageDirName + "/" + key
	if err := validateRelPath(rel); err != nil {
		return "", err
	}
	return rel, nil
}

// collectionRelPath maps a collection name to its snapshot file. Names are
// single path segments; a separator would scatter files outside the flat
// firestore/ directory.
func collectionRelPath(collection string) (string, error) {
	if collection == "" || strings.ContainsAny(collection, `/\`) {
		return "", errors.NewSerializationError("invalid collection name: " + collection).WithComponent("snapshot")
	}
	rel := FirestoreDirName + "/" + collection + ".json"
	if err := validateRelPath(rel); err != nil {
		return "", err
	}
	return rel, nil
}

// validateRelPath rejects paths that would escape the snapshot root.
func validateRelPath(rel string) error {
	if rel == "" || strings.HasPrefix(rel, "/") {
		return errors.NewSerializationError("invalid snapshot path: " + rel).WithComponent("snapshot")
	}
	for _, segment := range strings.Split(rel, "/") {
		if segment == ".." {
			return errors.NewSerializationError("invalid snapshot path: " + rel).WithComponent("snapshot")
		}
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.NewSerializationError("cannot marshal snapshot file").
			WithCause(err).WithComponent("snapshot").WithDetail("path", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewSerializationError("cannot write snapshot file").
			WithCause(err).WithComponent("snapshot").WithDetail("path", path)
	}
	return nil
}
