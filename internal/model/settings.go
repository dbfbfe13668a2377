package model

import "time"

// SettingsID is the fixed id of the settings singleton row.
const SettingsID = "settings"

// Settings is the singleton company profile and application preferences
// row. It is created with defaults the first time the store is opened,
// mutated by the settings UI and by invoice numbering, and never deleted.
type Settings struct {
	ID              string `json:"id"`
	CompanyName     string `json:"companyName"`
	Address         string `json:"address"`
	TaxID           string `json:"taxId,omitempty"`
	Currency        string `json:"currency,omitempty"`
	Theme           string `json:"theme,omitempty"` // light, dark, system
	InvoiceTemplate string `json:"invoiceTemplate,omitempty"`

	// Invoice numbering state: numbers are prefix + zero-padded counter.
	InvoicePrefix      string `json:"invoicePrefix"`
	InvoiceCounter     int    `json:"invoiceCounter"`
	InvoiceNumberWidth int    `json:"invoiceNumberWidth"`

	// Issuer contact data printed on invoices.
	ContactName  string `json:"contactName,omitempty"`
	ContactEmail string `json:"contactEmail,omitempty"`
	ContactPhone string `json:"contactPhone,omitempty"`
	Website      string `json:"website,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// DefaultSettings returns the row seeded on first open.
func DefaultSettings() *Settings {
	return &Settings{
		ID:                 SettingsID,
		Currency:           "USD",
		Theme:              "system",
		InvoiceTemplate:    "simple",
		InvoicePrefix:      "",
		InvoiceCounter:     0,
		InvoiceNumberWidth: 5,
	}
}

// PatchDefaults backfills optional fields introduced by schema evolution
// without touching anything the user already set. It reports whether the
// row changed and needs rewriting.
func (s *Settings) PatchDefaults() bool {
	changed := false
	if s.Currency == "" {
		s.Currency = "USD"
		changed = true
	}
	if s.Theme == "" {
		s.Theme = "system"
		changed = true
	}
	if s.InvoiceTemplate == "" {
		s.InvoiceTemplate = "simple"
		changed = true
	}
	if s.InvoiceNumberWidth == 0 {
		s.InvoiceNumberWidth = 5
		changed = true
	}
	return changed
}

func (s *Settings) RecordID() string      { return s.ID }
func (s *Settings) SetRecordID(id string) { s.ID = id }

func (s *Settings) Stamps() (createdAt, updatedAt time.Time) {
	return s.CreatedAt, s.UpdatedAt
}

func (s *Settings) SetStamps(createdAt, updatedAt time.Time) {
	s.CreatedAt = createdAt
	s.UpdatedAt = updatedAt
}
