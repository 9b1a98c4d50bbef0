package engine

import (
	"github.com/shopspring/decimal"

	"orcamento/internal/core"
)

// EffectiveLimit is the card limit in force on day at: the most recent limit
// change dated on or before at. Cards without history, or whose history
// starts after at, fall back to the current limit.
func EffectiveLimit(card core.Card, at core.Date) decimal.Decimal {
	limit := card.Limit
	var latest core.Date
	for _, h := range card.LimitHistory {
		if h.Date.After(at.Time) {
			continue
		}
		if latest.IsZero() || !h.Date.Before(latest.Time) {
			latest = h.Date
			limit = h.Amount
		}
	}
	return limit
}

// CardInvoices computes the open invoice of every card: the expenses charged
// to it whose resolved payment date falls in now's month.
func CardInvoices(s core.Snapshot, now core.Date) []core.CardInvoice {
	out := make([]core.CardInvoice, 0, len(s.Cards))
	for _, card := range s.Cards {
		invoice := decimal.Zero
		for _, t := range s.Transactions {
			if t.Kind != core.Expense || t.Fixed || t.CardID != card.ID {
				continue
			}
			if ResolvePaymentDate(t, s.Cards).SameMonth(now) {
				invoice = invoice.Add(t.Amount)
			}
		}

		limit := EffectiveLimit(card, now)
		used := decimal.Zero
		if limit.IsPositive() {
			used = invoice.Div(limit).Mul(hundred)
			if used.GreaterThan(hundred) {
				used = hundred
			}
			used = used.Round(1)
		}
		out = append(out, core.CardInvoice{
			CardID:      card.ID,
			Name:        card.Name,
			Limit:       limit,
			Invoice:     invoice,
			Available:   limit.Sub(invoice),
			UsedPercent: used,
		})
	}
	return out
}
