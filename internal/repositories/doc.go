// Package repositories implements SQLite persistence for the client's local state.
//
// Key Implementations:
//   - [MetadataRepository] : Key/value rows backing the session store and the anonymous scope id
//   - [AnalysisRepository] : Results classified while no user was logged in, grouped by scope
//
// Sequence numbers provide stable ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
//
// Repositories accept a [DBTX] so callers can run several operations inside one transaction.
package repositories
