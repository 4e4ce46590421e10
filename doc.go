// Package rowdex keeps a full-text search index continuously synchronized
// with rows written to a local SQLite database.
//
// Applications write rows with ordinary SQL; rowdex attaches pre-update,
// update, commit, and rollback hooks to each writer connection, stages the
// resulting mutations in a per-transaction buffer, hands committed
// change-sets to a background worker over an unbounded channel, and applies
// the coalesced result to a set of named, bbolt-backed inverted indices.
// Reads go straight against an index's own transactional snapshot and never
// wait on the write path.
package rowdex
