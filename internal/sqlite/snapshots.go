package sqlite

import (
	"bytes"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/mesh-intelligence/snapmig/internal/codec"
	"github.com/mesh-intelligence/snapmig/pkg/types"
)

// Load decodes the snapshot document of storeName.
func (s *Store) Load(storeName string) (*types.Snapshot, error) {
	if err := types.ValidateStoreName(storeName); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}

	var doc string
	err := s.db.QueryRow(`SELECT document FROM snapshots WHERE store_name = ?`, storeName).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(types.ErrStoreNotFound, storeName)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", storeName)
	}
	snap, err := codec.Unmarshal([]byte(doc))
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", storeName)
	}
	return snap, nil
}

// Save inserts or replaces the snapshot document of storeName.
func (s *Store) Save(storeName string, snap *types.Snapshot) error {
	if err := types.ValidateStoreName(storeName); err != nil {
		return err
	}
	if snap == nil {
		return errors.Errorf("saving %s: nil snapshot", storeName)
	}
	var buf bytes.Buffer
	if err := codec.Encode(&buf, snap); err != nil {
		return errors.Wrapf(err, "saving %s", storeName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}

	_, err := s.db.Exec(`INSERT INTO snapshots
    (store_name, snapshot_model_version, transaction_id, application_model_version, document, updated_at)
    VALUES (?, ?, ?, ?, ?, ?)
    ON CONFLICT(store_name) DO UPDATE SET
        snapshot_model_version = excluded.snapshot_model_version,
        transaction_id = excluded.transaction_id,
        application_model_version = excluded.application_model_version,
        document = excluded.document,
        updated_at = excluded.updated_at`,
		storeName, snap.SnapshotModelVersion, snap.TransactionID, snap.ApplicationModelVersion,
		buf.String(), formatTime(time.Now()))
	if err != nil {
		return errors.Wrapf(err, "saving %s", storeName)
	}
	return nil
}

// List returns the saved store names in sorted order.
func (s *Store) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}

	rows, err := s.db.Query(`SELECT store_name FROM snapshots ORDER BY store_name`)
	if err != nil {
		return nil, errors.Wrap(err, "listing stores")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "scanning store name")
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
