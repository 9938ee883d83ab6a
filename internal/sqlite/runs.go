package sqlite

import (
	"github.com/pkg/errors"

	"github.com/mesh-intelligence/snapmig/pkg/types"
)

// RecordRun appends run to the migration history of its store.
func (s *Store) RecordRun(run *types.MigrationRun) error {
	if run == nil {
		return errors.New("recording run: nil run")
	}
	if err := types.ValidateStoreName(run.StoreName); err != nil {
		return err
	}
	applied, err := appliedJSON(run.Applied)
	if err != nil {
		return errors.Wrap(err, "recording run")
	}
	if run.RunID == "" {
		run.RunID = generateUUID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}

	_, err = s.db.Exec(`INSERT INTO migration_runs
    (run_id, store_name, from_version, to_version, detected, applied, started_at, finished_at)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.StoreName, run.FromVersion, run.ToVersion, run.Detected, applied,
		formatTime(run.StartedAt), formatTime(run.FinishedAt))
	if err != nil {
		return errors.Wrapf(err, "recording run %s", run.RunID)
	}
	return nil
}

// Runs returns the migration history of storeName, oldest first.
func (s *Store) Runs(storeName string) ([]types.MigrationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}

	rows, err := s.db.Query(`SELECT run_id, store_name, from_version, to_version, detected, applied, started_at, finished_at
    FROM migration_runs WHERE store_name = ? ORDER BY started_at, run_id`, storeName)
	if err != nil {
		return nil, errors.Wrapf(err, "querying runs of %s", storeName)
	}
	defer rows.Close()

	var runs []types.MigrationRun
	for rows.Next() {
		var (
			run               types.MigrationRun
			applied           string
			started, finished string
		)
		if err := rows.Scan(&run.RunID, &run.StoreName, &run.FromVersion, &run.ToVersion,
			&run.Detected, &applied, &started, &finished); err != nil {
			return nil, errors.Wrap(err, "scanning run")
		}
		if run.Applied, err = parseApplied(applied); err != nil {
			return nil, err
		}
		if run.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if run.FinishedAt, err = parseTime(finished); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
