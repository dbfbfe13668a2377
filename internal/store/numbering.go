package store

import (
	"context"
	"fmt"

	"github.com/invoicepro/invoicepro/internal/model"
)

func formatInvoiceNumber(s *model.Settings, counter int) string {
	width := s.InvoiceNumberWidth
	if width <= 0 {
		width = 5
	}
	return fmt.Sprintf("%s%0*d", s.InvoicePrefix, width, counter)
}

// PeekInvoiceNumber returns the number the next invoice would get without
// consuming it.
func (s *Store) PeekInvoiceNumber(ctx context.Context) (string, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return "", err
	}
	return formatInvoiceNumber(settings, settings.InvoiceCounter+1), nil
}

// NextInvoiceNumber advances the settings counter and returns the consumed
// number, prefix plus zero-padded counter.
func (s *Store) NextInvoiceNumber(ctx context.Context) (string, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return "", err
	}
	settings.InvoiceCounter++
	if _, err := s.Upsert(ctx, model.TableSettings, settings); err != nil {
		return "", fmt.Errorf("failed to advance invoice counter: %w", err)
	}
	return formatInvoiceNumber(settings, settings.InvoiceCounter), nil
}
