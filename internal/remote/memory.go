package remote

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/invoicepro/invoicepro/internal/model"
)

// ErrOffline is returned by Memory when its online flag is off, standing in
// for a network failure.
var ErrOffline = errors.New("remote unreachable")

type memoryKey struct {
	table model.Table
	id    string
}

// Memory is an in-process Store used by tests and offline demos. It honors
// the full contract including identity scoping, and can simulate outages
// (SetOnline) and per-table failures (FailTable).
type Memory struct {
	mu      sync.Mutex
	rows    map[memoryKey]Row
	owners  map[memoryKey]string
	online  bool
	failing map[model.Table]bool

	// Calls counts remote operations by name, for asserting that dropped
	// sync triggers issue no network traffic.
	calls map[string]int
}

// NewMemory creates an empty, online in-memory remote.
func NewMemory() *Memory {
	return &Memory{
		rows:    make(map[memoryKey]Row),
		owners:  make(map[memoryKey]string),
		online:  true,
		failing: make(map[model.Table]bool),
		calls:   make(map[string]int),
	}
}

// SetOnline toggles simulated connectivity.
func (m *Memory) SetOnline(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online = online
}

// FailTable makes every operation on one table fail, simulating a partial
// outage.
func (m *Memory) FailTable(table model.Table, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[table] = fail
}

// Calls returns how many times the named operation ran.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Seed inserts a row owned by identity without counting as a sync call.
func (m *Memory) Seed(identity string, row Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memoryKey{table: row.RowTable(), id: row.RowID()}
	m.rows[key] = row
	m.owners[key] = identity
}

// Get returns a row by table and id, for test assertions.
func (m *Memory) Get(table model.Table, id string) (Row, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[memoryKey{table: table, id: id}]
	return row, ok
}

func (m *Memory) check(table model.Table) error {
	if !m.online {
		return ErrOffline
	}
	if m.failing[table] {
		return ErrOffline
	}
	return nil
}

// Upsert implements Store.
func (m *Memory) Upsert(ctx context.Context, table model.Table, rows []Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["upsert"]++
	if err := m.check(table); err != nil {
		return err
	}

	for _, row := range rows {
		key := memoryKey{table: table, id: row.RowID()}
		if owner, ok := m.owners[key]; ok {
			if ub, hasUser := userOf(row); hasUser && owner != ub {
				return ErrNotOwned
			}
		}
		m.rows[key] = row
		if ub, hasUser := userOf(row); hasUser {
			m.owners[key] = ub
		}
	}
	return nil
}

// Delete implements Store. Unknown ids are ignored.
func (m *Memory) Delete(ctx context.Context, identity string, table model.Table, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["delete"]++
	if err := m.check(table); err != nil {
		return err
	}

	key := memoryKey{table: table, id: id}
	if owner, ok := m.owners[key]; ok && owner != identity {
		// Ownership scoping: a foreign row is invisible, so the delete
		// no-ops exactly like a missing id.
		return nil
	}
	delete(m.rows, key)
	delete(m.owners, key)
	return nil
}

// ListSince implements Store.
func (m *Memory) ListSince(ctx context.Context, identity string, table model.Table, since time.Time) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["list"]++
	if err := m.check(table); err != nil {
		return nil, err
	}

	var out []Row
	for key, row := range m.rows {
		if key.table != table || m.owners[key] != identity {
			continue
		}
		if !since.IsZero() && !row.RowUpdatedAt().After(since) {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RowUpdatedAt().Before(out[j].RowUpdatedAt())
	})
	return out, nil
}

// Ping implements Store.
func (m *Memory) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.online {
		return ErrOffline
	}
	return nil
}

func userOf(row Row) (string, bool) {
	switch r := row.(type) {
	case CustomerRow:
		return r.UserID, true
	case ItemRow:
		return r.UserID, true
	case InvoiceRow:
		return r.UserID, true
	case PurchaseRow:
		return r.UserID, true
	case PaymentRow:
		return r.UserID, true
	}
	return "", false
}
