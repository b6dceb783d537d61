// Package interfaces defines the persistence contracts for scanwatch.
package interfaces

// KeyValueStore is the durable persistence substrate shared by the
// notification store, the idle session guard and the scan cache. Each owner
// exclusively owns its own keys and never touches another owner's, which is
// what makes a lock-free shared store safe.
type KeyValueStore interface {
	// Get returns the value for key and whether it was present.
	Get(key string) ([]byte, bool, error)
	// Set writes the value for key, overwriting any previous value.
	Set(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Close releases any underlying resources.
	Close() error
}

// Keys owned by each component. Listed here so ownership is auditable in one
// place; no component may read or write outside its namespace.
const (
	KeyNotifications = "jobs_notifications"
	KeyScanCache     = "jobs_cache"
	KeyLastActivity  = "session_last_activity"
	KeySessionFlag   = "session_flag"
)
