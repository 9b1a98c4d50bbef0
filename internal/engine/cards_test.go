package engine

import (
	"testing"

	"orcamento/internal/core"
)

func TestEffectiveLimit(t *testing.T) {
	card := core.Card{
		Limit: dec("8000"),
		LimitHistory: []core.LimitChange{
			{Date: core.NewDate(2024, 6, 1), Amount: dec("8000")},
			{Date: core.NewDate(2024, 1, 1), Amount: dec("5000")},
		},
	}

	tests := []struct {
		name string
		at   core.Date
		want string
	}{
		{"before any change", core.NewDate(2023, 12, 31), "8000"},
		{"after first change", core.NewDate(2024, 3, 1), "5000"},
		{"on second change", core.NewDate(2024, 6, 1), "8000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveLimit(card, tt.at); !got.Equal(dec(tt.want)) {
				t.Errorf("EffectiveLimit() = %s, want %s", got, tt.want)
			}
		})
	}

	if got := EffectiveLimit(core.Card{Limit: dec("100")}, core.NewDate(2024, 1, 1)); !got.Equal(dec("100")) {
		t.Errorf("no history = %s, want 100", got)
	}
}

func TestCardInvoices(t *testing.T) {
	onCard := func(id string, date core.Date, amount string) core.Transaction {
		tx := expense(id, date, amount, "Lazer", "a")
		tx.PaymentMethod = core.CreditCard
		tx.CardID = "nubank"
		return tx
	}
	s := core.Snapshot{
		Cards: []core.Card{
			{ID: "nubank", Name: "Nubank", Limit: dec("1000"), ClosingDay: 26, DueDay: 5},
			{ID: "empty", Name: "Reserva", Limit: dec("0"), ClosingDay: 1, DueDay: 10},
		},
		Transactions: []core.Transaction{
			onCard("oct", core.NewDate(2023, 10, 27), "300"),
			onCard("nov", core.NewDate(2023, 11, 20), "200"),
			onCard("next", core.NewDate(2023, 11, 27), "450"),
		},
	}

	got := CardInvoices(s, core.NewDate(2023, 12, 10))
	if len(got) != 2 {
		t.Fatalf("got %d invoices", len(got))
	}

	nubank := got[0]
	if nubank.CardID != "nubank" || nubank.Name != "Nubank" {
		t.Fatalf("first invoice = %+v", nubank)
	}
	if !nubank.Invoice.Equal(dec("500")) || !nubank.Available.Equal(dec("500")) || !nubank.UsedPercent.Equal(dec("50")) {
		t.Errorf("nubank = %+v", nubank)
	}

	empty := got[1]
	if !empty.Invoice.IsZero() || !empty.UsedPercent.IsZero() {
		t.Errorf("empty = %+v", empty)
	}
}
