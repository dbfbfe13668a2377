package model

import "fmt"

// Table identifies one of the local object stores.
type Table string

const (
	TableSettings  Table = "settings"
	TableCustomers Table = "customers"
	TableItems     Table = "items"
	TableInvoices  Table = "invoices"
	TablePurchases Table = "purchases"
	TablePayments  Table = "payments"
)

// AllTables lists every table, settings included. Used by backup/restore.
var AllTables = []Table{
	TableSettings,
	TableCustomers,
	TableItems,
	TableInvoices,
	TablePurchases,
	TablePayments,
}

// SyncTables lists the tables that participate in remote sync.
// Settings never leaves the device.
var SyncTables = []Table{
	TableCustomers,
	TableItems,
	TableInvoices,
	TablePurchases,
	TablePayments,
}

// Syncable reports whether t participates in remote sync.
func Syncable(t Table) bool {
	for _, st := range SyncTables {
		if t == st {
			return true
		}
	}
	return false
}

// ParseTable validates a table name from external input (CLI flags,
// backup files, tombstone rows).
func ParseTable(name string) (Table, error) {
	for _, t := range AllTables {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown table %q", name)
}
