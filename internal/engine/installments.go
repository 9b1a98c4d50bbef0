package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"orcamento/internal/core"
)

// ExpandInstallments turns a purchase draft into count monthly charges.
//
// Each charge carries total/count rounded to cents on its own; no remainder is
// carried between rows, so the rows may drift from the original total by a
// few cents. The same applies to split entries. Charge i is dated i calendar
// months after the draft (clamped at month end), has " (i/count)" appended to
// its description and gets a fresh id. A count of one or less returns the
// draft unchanged.
func ExpandInstallments(draft core.Transaction, count int) []core.Transaction {
	return expandInstallments(draft, count, uuid.NewString)
}

func expandInstallments(draft core.Transaction, count int, newID func() string) []core.Transaction {
	if count <= 1 {
		return []core.Transaction{draft}
	}

	n := decimal.NewFromInt(int64(count))
	amount := draft.Amount.Div(n).Round(2)

	out := make([]core.Transaction, 0, count)
	for i := 0; i < count; i++ {
		t := draft
		t.ID = newID()
		t.Amount = amount
		t.Date = draft.Date.AddMonths(i)
		t.Description = fmt.Sprintf("%s (%d/%d)", draft.Description, i+1, count)
		t.Installment = &core.Installment{Current: i + 1, Total: count}
		if draft.HasSplit() {
			t.Split = make([]core.SplitEntry, len(draft.Split))
			for j, s := range draft.Split {
				t.Split[j] = core.SplitEntry{MemberID: s.MemberID, Amount: s.Amount.Div(n).Round(2)}
			}
		}
		out = append(out, t)
	}
	return out
}
