package sync

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/invoicepro/invoicepro/internal/bus"
	"github.com/invoicepro/invoicepro/internal/model"
	"github.com/invoicepro/invoicepro/internal/remote"
	"github.com/invoicepro/invoicepro/internal/store"
)

// Phase names one of the three sync phases, for error reporting.
type Phase string

const (
	PhaseDelete Phase = "delete"
	PhasePush   Phase = "push"
	PhasePull   Phase = "pull"
)

// TableError records a per-table phase failure. The table's cursor was not
// advanced and the run continued with the remaining tables.
type TableError struct {
	Table model.Table
	Phase Phase
	Err   error
}

func (e TableError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Phase, e.Table, e.Err)
}

func (e TableError) Unwrap() error { return e.Err }

// Result summarizes one SyncNow run.
type Result struct {
	Identity string
	Started  time.Time
	Duration time.Duration

	// Dropped is true when another sync for the same identity was already
	// in flight and this run did nothing.
	Dropped bool

	Deleted int // tombstones propagated and cleared
	Pushed  int // local rows upserted to the remote
	Pulled  int // remote rows written locally

	// Errors holds per-table failures. A non-empty list means partial
	// success: the run still resolves, but affected cursors stayed put.
	Errors []TableError
}

// Failed reports whether any table failed during the run.
func (r *Result) Failed() bool { return len(r.Errors) > 0 }

// Engine orchestrates the push/pull cycle between the local store and the
// remote backend.
type Engine struct {
	store  *store.Store
	remote remote.Store
	bus    *bus.Bus
	logger *log.Logger
	now    func() time.Time

	mu       sync.Mutex
	inflight map[string]bool
}

// New creates a sync engine. The bus may be nil when nothing listens for
// completion events; if logger is nil, a default logger writing to stderr
// is used.
func New(st *store.Store, rm remote.Store, notifier *bus.Bus, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Engine{
		store:    st,
		remote:   rm,
		bus:      notifier,
		logger:   logger,
		now:      time.Now,
		inflight: make(map[string]bool),
	}
}

// SyncNow runs one full delete/push/pull cycle for the identity.
//
// At most one run per identity is in flight at a time: a call that arrives
// while another is running returns immediately with Result.Dropped set and
// performs no network traffic. Per-table network failures are collected in
// Result.Errors rather than returned; the error return is reserved for
// local store failures and an empty identity.
func (e *Engine) SyncNow(ctx context.Context, identity string) (*Result, error) {
	if identity == "" {
		return nil, fmt.Errorf("sync requires an identity")
	}

	e.mu.Lock()
	if e.inflight[identity] {
		e.mu.Unlock()
		e.logger.Printf("Sync already running for %s, dropping trigger", identity)
		return &Result{Identity: identity, Dropped: true}, nil
	}
	e.inflight[identity] = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.inflight, identity)
		e.mu.Unlock()
	}()

	res := &Result{Identity: identity, Started: e.now().UTC()}

	if err := e.propagateDeletes(ctx, identity, res); err != nil {
		return nil, err
	}
	if err := e.pushChanges(ctx, identity, res); err != nil {
		return nil, err
	}
	if err := e.pullChanges(ctx, identity, res); err != nil {
		return nil, err
	}

	res.Duration = e.now().UTC().Sub(res.Started)
	e.logger.Printf("Sync complete for %s: deleted=%d pushed=%d pulled=%d failed=%d (%s)",
		identity, res.Deleted, res.Pushed, res.Pulled, len(res.Errors), res.Duration)

	if e.bus != nil {
		e.bus.Publish(bus.TopicSyncComplete, res)
	}
	return res, nil
}

// propagateDeletes is phase 1: pending tombstones become remote deletes.
// Only the keys whose delete succeeded are cleared from the local log, so
// tombstones appended concurrently and failed deletes both survive for the
// next run.
func (e *Engine) propagateDeletes(ctx context.Context, identity string, res *Result) error {
	tombstones, err := e.store.ListTombstones(ctx)
	if err != nil {
		return fmt.Errorf("failed to read tombstone log: %w", err)
	}

	var cleared []string
	failed := make(map[model.Table]bool)
	for _, t := range tombstones {
		if !model.Syncable(t.Table) {
			// Local-only table; the tombstone has nothing to propagate.
			cleared = append(cleared, t.Key)
			continue
		}
		if failed[t.Table] {
			continue
		}
		if err := e.remote.Delete(ctx, identity, t.Table, t.RecordID); err != nil {
			e.logger.Printf("WARNING: failed to propagate delete %s: %v", t.Key, err)
			res.Errors = append(res.Errors, TableError{Table: t.Table, Phase: PhaseDelete, Err: err})
			failed[t.Table] = true
			continue
		}
		cleared = append(cleared, t.Key)
		res.Deleted++
	}

	if len(cleared) > 0 {
		if err := e.store.ClearTombstones(ctx, cleared...); err != nil {
			return fmt.Errorf("failed to clear propagated tombstones: %w", err)
		}
	}
	return nil
}

// pushChanges is phase 2: rows updated after the per-table cursor are
// translated and upserted to the remote by id.
func (e *Engine) pushChanges(ctx context.Context, identity string, res *Result) error {
	for _, table := range model.SyncTables {
		cursor, hasCursor, err := e.cursor(ctx, identity, table)
		if err != nil {
			return err
		}

		recs, err := e.store.ListRecords(ctx, table)
		if err != nil {
			return err
		}

		var rows []remote.Row
		for _, rec := range recs {
			createdAt, updatedAt := rec.Stamps()
			if updatedAt.IsZero() {
				updatedAt = createdAt
			}
			if hasCursor && !updatedAt.After(cursor) {
				continue
			}
			row, err := toRemote(rec, identity)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		if len(rows) == 0 {
			continue
		}

		if err := e.remote.Upsert(ctx, table, rows); err != nil {
			e.logger.Printf("WARNING: push failed for %s: %v", table, err)
			res.Errors = append(res.Errors, TableError{Table: table, Phase: PhasePush, Err: err})
			continue
		}
		res.Pushed += len(rows)
	}
	return nil
}

// pullChanges is phase 3: remote rows strictly after the cursor are
// translated back and bulk-written without re-stamping, then the cursor
// advances to the last received timestamp. An empty first pull initializes
// the cursor to the run's start time so an empty remote table doesn't
// force a full rescan on every run.
func (e *Engine) pullChanges(ctx context.Context, identity string, res *Result) error {
	for _, table := range model.SyncTables {
		cursor, hasCursor, err := e.cursor(ctx, identity, table)
		if err != nil {
			return err
		}

		var since time.Time
		if hasCursor {
			since = cursor
		}
		rows, err := e.remote.ListSince(ctx, identity, table, since)
		if err != nil {
			e.logger.Printf("WARNING: pull failed for %s: %v", table, err)
			res.Errors = append(res.Errors, TableError{Table: table, Phase: PhasePull, Err: err})
			continue
		}

		if len(rows) == 0 {
			if !hasCursor {
				if err := e.setCursor(ctx, identity, table, res.Started); err != nil {
					return err
				}
			}
			continue
		}

		recs := make([]model.Record, 0, len(rows))
		for _, row := range rows {
			rec, err := fromRemote(row)
			if err != nil {
				return err
			}
			recs = append(recs, rec)
		}

		if err := e.store.BulkPut(ctx, table, recs); err != nil {
			return fmt.Errorf("failed to write pulled %s rows: %w", table, err)
		}

		// The cursor only advances after the rows are durably local.
		last := rows[len(rows)-1].RowUpdatedAt()
		if err := e.setCursor(ctx, identity, table, last); err != nil {
			return err
		}
		res.Pulled += len(rows)
	}
	return nil
}

func cursorKey(identity string, table model.Table) string {
	return fmt.Sprintf("sync:last:%s:%s", identity, table)
}

func (e *Engine) cursor(ctx context.Context, identity string, table model.Table) (time.Time, bool, error) {
	value, ok, err := e.store.GetMeta(ctx, cursorKey(identity, table))
	if err != nil {
		return time.Time{}, false, err
	}
	if !ok {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt sync cursor for %s: %w", table, err)
	}
	return t, true, nil
}

func (e *Engine) setCursor(ctx context.Context, identity string, table model.Table, t time.Time) error {
	return e.store.SetMeta(ctx, cursorKey(identity, table), t.UTC().Format(time.RFC3339Nano))
}
