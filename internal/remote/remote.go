// Package remote defines the minimum contract the sync engine requires
// from any multi-device backend: table-per-record-kind, row identity by id,
// identity-scoped ownership enforced server-side, upsert-by-id,
// delete-by-id, and range queries by update timestamp ordered ascending.
//
// Two implementations are provided: Postgres (the production backend) and
// Memory (tests and offline demos).
package remote

import (
	"context"
	"errors"
	"time"

	"github.com/invoicepro/invoicepro/internal/model"
)

// ErrNotOwned reports that the backend rejected a row because it belongs
// to a different identity. The sync engine treats it like a network-class
// failure for the affected table.
var ErrNotOwned = errors.New("remote row not owned by identity")

// Store is the remote collaborator the sync engine talks to.
//
// All rows are scoped to the owning identity; implementations must never
// return or mutate rows owned by someone else.
type Store interface {
	// Upsert writes rows keyed by id, overwriting any existing row with
	// the same id. This is the conflict-policy enforcement point: the last
	// caller to upsert a given id wins.
	Upsert(ctx context.Context, table model.Table, rows []Row) error

	// Delete removes a row by id for the identity. Deleting an id the
	// backend never had is not an error.
	Delete(ctx context.Context, identity string, table model.Table, id string) error

	// ListSince returns the identity's rows whose update timestamp is
	// strictly greater than since, ordered ascending by that timestamp.
	// A zero since returns all rows.
	ListSince(ctx context.Context, identity string, table model.Table, since time.Time) ([]Row, error)

	// Ping reports whether the backend is reachable. The trigger layer
	// uses it as its connectivity probe.
	Ping(ctx context.Context) error
}
