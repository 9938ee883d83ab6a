/*
Package migration upgrades a store snapshot from the application model version
it was written in to a target version by replaying an ordered chain of
migration steps.

Each Step declares the version it produces: a store is at version v-1 before
step v runs and at version v after. Steps mutate the snapshot they are given
in place and must not perform I/O.

A Migrator resolves the snapshot's current version, runs every step from
current+1 through the target in ascending order and finally stamps the
snapshot with the target version:

	m := migration.New(4, []migration.Step{
		migration.NoModification(1),
		migration.NewStep(2, renameSalary),
		migration.NoModification(3),
		migration.NewStep(4, dropLegacyFlags),
	}, migration.WithDetector(migration.LegacyDetector()))

	report, err := m.Migrate("accounts", snapshot)
	if err != nil {
		// The snapshot may be partially migrated. Discard it.
	}

Snapshots that predate explicit versioning carry version zero. For those, and
only those, the configured Detector recovers the effective version from the
data, usually from a legacy version marker entity. Without a detector such a
snapshot is treated as version zero and every step is replayed.

Every version of the requested range must have a registered step. A gap is
reported as a *MissingStepError before any step of the range runs. Use
NoModification to register versions that need no data change.

Lowering the recorded version is refused with ErrDowngrade unless the
migrator is built with AllowDowngrade, in which case no step runs and the
lower target is stamped.

Migration is synchronous and not safe for concurrent use on the same
snapshot. The caller owns the snapshot; a Migrator keeps no reference to it
after returning.
*/
package migration
