package storage

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"

	"orcamento/internal/core"
)

var snapshotOpts = cmp.Options{
	cmp.Comparer(func(a, b core.Date) bool { return a.Equal(b.Time) }),
	cmpopts.EquateEmpty(),
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleSnapshot() core.Snapshot {
	return core.Snapshot{
		Members: []core.FamilyMember{
			{ID: "1", Name: "Ana", Role: "Admin", Salary: dec("5000")},
			{ID: "2", Name: "Bruno", Role: "Membro", Salary: dec("3200.50")},
		},
		Categories: core.DefaultCategories(),
		Cards: []core.Card{{
			ID: "nubank", Name: "Nubank", Limit: dec("8000"), ClosingDay: 26, DueDay: 5, Color: "#8b5cf6", MemberID: "1",
			LimitHistory: []core.LimitChange{
				{Date: core.NewDate(2024, 1, 1), Amount: dec("5000")},
				{Date: core.NewDate(2024, 6, 1), Amount: dec("8000")},
			},
		}},
		Transactions: []core.Transaction{
			{
				ID: "t1", Description: "Mercado", Amount: dec("90"), Date: core.NewDate(2024, 3, 2),
				Kind: core.Expense, Category: "Alimentação", PaymentMethod: core.Debit, MemberID: "1",
				Split: []core.SplitEntry{{MemberID: "1", Amount: dec("30")}, {MemberID: "2", Amount: dec("60")}},
			},
			{
				ID: "t2", Description: "TV (1/3)", Amount: dec("333.33"), Date: core.NewDate(2024, 3, 5),
				Kind: core.Expense, Category: "Lazer", PaymentMethod: core.CreditCard, CardID: "nubank", MemberID: "2",
				Installment: &core.Installment{Current: 1, Total: 3},
			},
			{
				ID: "t3", Description: "Salário", Amount: dec("5000"), Date: core.NewDate(2024, 3, 5),
				Kind: core.Income, Category: "Receita", PaymentMethod: core.Cash, MemberID: "1",
			},
		},
		RecurringItems: []core.RecurringItem{
			{ID: "r1", Description: "Aluguel", Amount: dec("1500"), DayOfMonth: 31, Kind: core.Expense, Category: "Moradia", MemberID: "1",
				Split: []core.SplitEntry{{MemberID: "1", Amount: dec("750")}, {MemberID: "2", Amount: dec("750")}}},
		},
		Goals: []core.Goal{
			{ID: "g1", Name: "Viagem", TargetAmount: dec("6000"), CurrentAmount: dec("1200"), Deadline: core.NewDate(2024, 12, 1), Color: "#f59e0b", OwnerID: core.FamilyOwner},
		},
	}
}

// storeContract runs the behavior every Store must share.
func storeContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("new household loads defaults", func(t *testing.T) {
		s := newStore(t)
		snap, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if diff := cmp.Diff(core.DefaultSnapshot(), snap, snapshotOpts); diff != "" {
			t.Errorf("default snapshot mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("save then load round trips", func(t *testing.T) {
		s := newStore(t)
		want := sampleSnapshot()
		if err := s.Save(ctx, want); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		got, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if diff := cmp.Diff(want, got, snapshotOpts); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("materialized records are not persisted", func(t *testing.T) {
		s := newStore(t)
		snap := sampleSnapshot()
		snap.Transactions = append(snap.Transactions, core.Transaction{
			ID: "fixed_r1_3_2024", Description: "Aluguel", Amount: dec("1500"), Date: core.NewDate(2024, 3, 31),
			Kind: core.Expense, MemberID: "1", Fixed: true,
		})
		if err := s.Save(ctx, snap); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		got, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		for _, tx := range got.Transactions {
			if tx.Fixed || tx.ID == "fixed_r1_3_2024" {
				t.Fatalf("materialized record persisted: %+v", tx)
			}
		}
	})

	t.Run("append keeps order and household", func(t *testing.T) {
		s := newStore(t)
		first := core.Transaction{ID: "a1", Description: "Padaria", Amount: dec("12.50"), Date: core.NewDate(2024, 4, 1), Kind: core.Expense, MemberID: "1"}
		second := core.Transaction{ID: "a2", Description: "Farmácia", Amount: dec("40"), Date: core.NewDate(2024, 3, 1), Kind: core.Expense, MemberID: "1"}

		if err := s.AppendTransactions(ctx, first); err != nil {
			t.Fatalf("AppendTransactions() error = %v", err)
		}
		if err := s.AppendTransactions(ctx, second); err != nil {
			t.Fatalf("AppendTransactions() error = %v", err)
		}

		got, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(got.Transactions) != 2 || got.Transactions[0].ID != "a1" || got.Transactions[1].ID != "a2" {
			t.Fatalf("transactions = %+v", got.Transactions)
		}
		if len(got.Members) != 1 || len(got.Categories) != len(core.DefaultCategories()) {
			t.Fatalf("default household lost: %d members, %d categories", len(got.Members), len(got.Categories))
		}
	})
}
