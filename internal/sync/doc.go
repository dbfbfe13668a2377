// Package sync implements the offline-first synchronization engine: a
// last-write-wins, per-record, per-table delta sync between the local
// store and a remote backend.
//
// One sync run executes three strictly ordered phases for an authenticated
// identity:
//
//  1. Propagate deletes: pending tombstones become remote delete-by-id
//     calls; successfully propagated keys are cleared from the local log.
//  2. Push local changes: rows updated after the per-table cursor are
//     translated to remote shape and upserted by id. The remote overwrite
//     is the conflict-policy enforcement point: whichever side upserts
//     last with a newer updatedAt wins, with no field-level merge.
//  3. Pull remote changes: rows updated strictly after the cursor are
//     translated back and bulk-written locally without re-stamping, then
//     the cursor advances to the last received timestamp.
//
// A network failure abandons the affected table's phase without advancing
// its cursor; other tables continue, and the run resolves with a partial
// Result rather than an error. At most one run per identity is in flight
// at a time; overlapping triggers are dropped, not queued.
package sync
