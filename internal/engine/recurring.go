package engine

import (
	"fmt"

	"orcamento/internal/core"
)

// MaterializedID is the deterministic id of a recurring item materialized for
// one month. Repeated materialization of the same month yields the same id.
func MaterializedID(itemID string, year, month int) string {
	return fmt.Sprintf("fixed_%s_%d_%d", itemID, month, year)
}

// Materialize produces one synthetic transaction per recurring item dated in
// (year, month). Days that do not exist in the month are clamped to its last
// day. The results are flagged Fixed and must never be persisted.
func Materialize(items []core.RecurringItem, year, month int) []core.Transaction {
	first := core.NewDate(year, month, 1)
	year, month = first.Year(), first.Month()

	out := make([]core.Transaction, 0, len(items))
	for _, item := range items {
		var split []core.SplitEntry
		if len(item.Split) > 0 {
			split = append([]core.SplitEntry(nil), item.Split...)
		}
		out = append(out, core.Transaction{
			ID:            MaterializedID(item.ID, year, month),
			Description:   item.Description,
			Amount:        item.Amount,
			Date:          core.ClampedDate(year, month, item.DayOfMonth),
			Kind:          item.Kind,
			Category:      item.Category,
			PaymentMethod: core.Debit,
			MemberID:      item.MemberID,
			Split:         split,
			Fixed:         true,
		})
	}
	return out
}
