package types

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// SnapshotStore persists the latest snapshot of each named store. Callers
// open a store, load and save snapshots by name, and close it when done.
type SnapshotStore interface {
	// Load returns the latest snapshot saved under storeName.
	// Returns ErrStoreNotFound if nothing was saved under that name.
	Load(storeName string) (*Snapshot, error)

	// Save replaces the snapshot saved under storeName.
	Save(storeName string, snap *Snapshot) error

	// List returns the names of the saved stores in sorted order.
	List() ([]string, error)

	// Close releases backend resources. Idempotent.
	Close() error
}

// RunRecorder is implemented by snapshot stores that keep a history of
// migration runs.
type RunRecorder interface {
	// RecordRun appends run to the history, assigning run.RunID when it
	// is empty.
	RecordRun(run *MigrationRun) error

	// Runs returns the recorded runs of storeName ordered by start time.
	Runs(storeName string) ([]MigrationRun, error)
}

// MigrationRun is one recorded migration of a store.
type MigrationRun struct {
	RunID       string    `json:"run_id"`
	StoreName   string    `json:"store_name"`
	FromVersion int64     `json:"from_version"`
	ToVersion   int64     `json:"to_version"`
	Detected    bool      `json:"detected"`
	Applied     []int64   `json:"applied"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Store errors.
var (
	ErrStoreNotFound    = errors.New("store not found")
	ErrInvalidStoreName = errors.New("invalid store name")
	ErrStoreClosed      = errors.New("store is closed")
)

var storeNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateStoreName checks that name can be used as a store name: letters,
// digits, dots, dashes and underscores, starting with a letter or digit.
func ValidateStoreName(name string) error {
	if !storeNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidStoreName, name)
	}
	return nil
}
