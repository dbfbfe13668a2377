// Package model defines the record types stored by the local invoicing
// database and exchanged with the remote store.
//
// Six record kinds exist: Settings (a singleton with a fixed id) plus the
// five syncable tables (customers, items, invoices, purchases, payments).
// Every syncable record embeds Meta, which carries the id and the
// createdAt/updatedAt lifecycle timestamps used by last-write-wins sync.
//
// A seventh, system-level type, Tombstone, records local deletions until
// they have been propagated to the remote store.
package model
