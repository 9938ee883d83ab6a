// Package types defines the in-memory snapshot model of an entity store:
// snapshots, entities, instances, attribute and relation definitions, the
// tagged Value variant held by instances, and the builders used to assemble
// them outside of a schema description layer.
//
// A Snapshot is owned by its caller. Nothing in this package retains a
// reference to a snapshot after a call returns and nothing here is safe for
// concurrent mutation.
package types
