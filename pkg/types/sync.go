package types

// SyncStatus marks whether a row's last local mutation has reached the
// remote source of truth.
type SyncStatus string

// Sync status values. Every local create, update and delete leaves a row
// pending; only a synchronizer may ever mark it synced.
const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
)

// Valid reports whether s is a recognized status.
func (s SyncStatus) Valid() bool {
	return s == SyncPending || s == SyncSynced
}
