package engine

import "orcamento/internal/core"

// ResolvePaymentDate returns the day a transaction actually hits cash flow.
//
// Non credit-card transactions, and credit-card transactions whose card is
// missing or unknown, are paid on their occurrence date. Otherwise the
// purchase moves to the next cycle when it happens after the closing day, and
// one more month when the due day precedes the closing day (the invoice closes
// in one month and is paid in the next). The due day is clamped to the length
// of the resulting month.
func ResolvePaymentDate(t core.Transaction, cards []core.Card) core.Date {
	if t.PaymentMethod != core.CreditCard || t.CardID == "" {
		return t.Date
	}
	card, ok := core.FindCard(cards, t.CardID)
	if !ok {
		return t.Date
	}

	year, month := t.Date.Year(), t.Date.Month()
	if t.Date.Day() > card.ClosingDay {
		month++
	}
	if card.DueDay < card.ClosingDay {
		month++
	}
	return core.ClampedDate(year, month, card.DueDay)
}
