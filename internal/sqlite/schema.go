package sqlite

// DatabaseFile is the file name of the database inside the data directory.
const DatabaseFile = "snapmig.db"

// Schema DDL. Statements are idempotent so an existing database keeps its
// snapshots and history across opens.
const (
	createSnapshots = `CREATE TABLE IF NOT EXISTS snapshots (
    store_name TEXT PRIMARY KEY,
    snapshot_model_version INTEGER NOT NULL,
    transaction_id TEXT NOT NULL DEFAULT '',
    application_model_version INTEGER NOT NULL,
    document TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createMigrationRuns = `CREATE TABLE IF NOT EXISTS migration_runs (
    run_id TEXT PRIMARY KEY,
    store_name TEXT NOT NULL,
    from_version INTEGER NOT NULL,
    to_version INTEGER NOT NULL,
    detected INTEGER NOT NULL,
    applied TEXT NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL
);`

	createRunsIndex = `CREATE INDEX IF NOT EXISTS idx_migration_runs_store ON migration_runs (store_name, started_at);`
)

var schemaStatements = []string{
	createSnapshots,
	createMigrationRuns,
	createRunsIndex,
}
