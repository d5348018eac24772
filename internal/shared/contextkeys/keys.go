package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "tenant-migrate context key " + string(c)
}

// TenantIDKey is the key for TenantID in context.Context
const TenantIDKey = contextKey("tenantID")

// CollectionKey is the key for the collection currently being migrated
const CollectionKey = contextKey("collection")

// SnapshotDirKey is the key for the snapshot directory of the active run
const SnapshotDirKey = contextKey("snapshotDir")

// ComponentKey is the key for the pipeline component emitting a log entry
const ComponentKey = contextKey("component")

// OperationKey is the key for the pipeline operation (export, import)
const OperationKey = contextKey("operation")
