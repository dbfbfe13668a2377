package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Meta carries the identity and lifecycle timestamps shared by every
// syncable record. Embedding it flattens id/createdAt/updatedAt into the
// record's JSON representation.
//
// CreatedAt is set once at first insert and never changes; UpdatedAt is
// refreshed on every write. Both are stored as RFC 3339 UTC timestamps so
// their encoded form sorts chronologically, which the sync cursors rely on.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// RecordID returns the record's id.
func (m *Meta) RecordID() string { return m.ID }

// SetRecordID assigns the record's id.
func (m *Meta) SetRecordID(id string) { m.ID = id }

// Stamps returns the lifecycle timestamps.
func (m *Meta) Stamps() (createdAt, updatedAt time.Time) {
	return m.CreatedAt, m.UpdatedAt
}

// SetStamps assigns the lifecycle timestamps.
func (m *Meta) SetStamps(createdAt, updatedAt time.Time) {
	m.CreatedAt = createdAt
	m.UpdatedAt = updatedAt
}

// Record is the store-facing view of any record type: identity plus
// lifecycle timestamps. All six record kinds implement it via Meta
// (Settings implements it directly since its id is fixed).
type Record interface {
	RecordID() string
	SetRecordID(id string)
	Stamps() (createdAt, updatedAt time.Time)
	SetStamps(createdAt, updatedAt time.Time)
}

// New returns an empty record of the kind stored in the given table.
func New(table Table) (Record, error) {
	switch table {
	case TableSettings:
		return &Settings{}, nil
	case TableCustomers:
		return &Customer{}, nil
	case TableItems:
		return &Item{}, nil
	case TableInvoices:
		return &Invoice{}, nil
	case TablePurchases:
		return &Purchase{}, nil
	case TablePayments:
		return &Payment{}, nil
	}
	return nil, fmt.Errorf("unknown table %q", table)
}

// Decode unmarshals a stored JSON row into the record type for its table.
func Decode(table Table, data []byte) (Record, error) {
	rec, err := New(table)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("failed to decode %s row: %w", table, err)
	}
	return rec, nil
}

// ValidationError reports a malformed record. It is surfaced to the caller
// and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record: %s %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
