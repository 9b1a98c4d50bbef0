package http

import (
	"strings"

	"orcamento/internal/core"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// sanitizeTransaction cleans the free-text fields of a submitted transaction.
func sanitizeTransaction(t core.Transaction) core.Transaction {
	t.Description = sanitizeInput(t.Description)
	t.Category = sanitizeInput(t.Category)
	return t
}

// sanitizeRecurringItem cleans the free-text fields of a submitted item.
func sanitizeRecurringItem(item core.RecurringItem) core.RecurringItem {
	item.Description = sanitizeInput(item.Description)
	item.Category = sanitizeInput(item.Category)
	return item
}

// monthBounds returns the first and last day of d's month.
func monthBounds(d core.Date) (core.Date, core.Date) {
	return d.FirstOfMonth(), core.NewDate(d.Year(), d.Month(), core.DaysIn(d.Year(), d.Month()))
}
