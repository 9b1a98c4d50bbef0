package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"orcamento/internal/core"
)

// Period is an inclusive range of calendar days.
type Period struct {
	Start core.Date
	End   core.Date
}

// MonthPeriod covers every day of (year, month).
func MonthPeriod(year, month int) Period {
	first := core.NewDate(year, month, 1)
	return Period{
		Start: first,
		End:   core.ClampedDate(first.Year(), first.Month(), 31),
	}
}

// Contains reports whether d falls inside the period, bounds included.
func (p Period) Contains(d core.Date) bool {
	return !d.Before(p.Start.Time) && !d.After(p.End.Time)
}

// AttributedExpense is the part of an expense that counts against member m.
// A split always wins over the nominal responsible member: a split that omits
// m attributes nothing to m. Income attributes nothing.
func AttributedExpense(t core.Transaction, m core.MemberID) decimal.Decimal {
	if t.Kind != core.Expense {
		return decimal.Zero
	}
	if t.HasSplit() {
		for _, s := range t.Split {
			if s.MemberID == m {
				return s.Amount
			}
		}
		return decimal.Zero
	}
	if t.MemberID == m {
		return t.Amount
	}
	return decimal.Zero
}

// Aggregate summarizes the transactions dated inside p.
//
// When member is not empty, totals and categories only count transactions
// the member is responsible for or participates in through a split. Member
// positions are always computed over the whole period so the household view
// stays comparable across filters; members not in the list are ignored.
func Aggregate(txns []core.Transaction, members []core.FamilyMember, p Period, member core.MemberID) core.Summary {
	sum := core.Summary{
		Start:      p.Start,
		End:        p.End,
		Member:     member,
		Income:     decimal.Zero,
		Expense:    decimal.Zero,
		ByCategory: []core.CategoryAmount{},
		Members:    make([]core.MemberPosition, 0, len(members)),
	}

	var inPeriod []core.Transaction
	for _, t := range txns {
		if p.Contains(t.Date) {
			inPeriod = append(inPeriod, t)
		}
	}

	byCategory := map[string]decimal.Decimal{}
	for _, t := range inPeriod {
		if member != "" && !t.Involves(member) {
			continue
		}
		switch t.Kind {
		case core.Income:
			sum.Income = sum.Income.Add(t.Amount)
		case core.Expense:
			sum.Expense = sum.Expense.Add(t.Amount)
			byCategory[t.Category] = byCategory[t.Category].Add(t.Amount)
		}
	}
	sum.Balance = sum.Income.Sub(sum.Expense)
	sum.ByCategory = sortedCategories(byCategory)

	for _, m := range members {
		expense := decimal.Zero
		for _, t := range inPeriod {
			expense = expense.Add(AttributedExpense(t, m.ID))
		}
		sum.Members = append(sum.Members, core.MemberPosition{
			MemberID: m.ID,
			Name:     m.Name,
			Salary:   m.Salary,
			Expense:  expense,
			Net:      m.Salary.Sub(expense),
		})
	}
	return sum
}

// sortedCategories orders by descending amount, then by name for stable output.
func sortedCategories(byCategory map[string]decimal.Decimal) []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(byCategory))
	for name, amount := range byCategory {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MonthTransactions returns the stored transactions dated in (year, month)
// together with the recurring items materialized for that month, newest
// first.
func MonthTransactions(s core.Snapshot, year, month int) []core.Transaction {
	p := MonthPeriod(year, month)
	var out []core.Transaction
	for _, t := range s.Transactions {
		if p.Contains(t.Date) {
			out = append(out, t)
		}
	}
	out = append(out, Materialize(s.RecurringItems, p.Start.Year(), p.Start.Month())...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out
}

// History returns income and expense totals of stored transactions for the
// given number of months ending with now's month, oldest first.
func History(txns []core.Transaction, now core.Date, months int) []core.MonthTotals {
	if months <= 0 {
		return []core.MonthTotals{}
	}
	first := now.FirstOfMonth()
	out := make([]core.MonthTotals, 0, months)
	for i := months - 1; i >= 0; i-- {
		m := first.AddMonths(-i)
		row := core.MonthTotals{Year: m.Year(), Month: m.Month(), Income: decimal.Zero, Expense: decimal.Zero}
		for _, t := range txns {
			if t.Fixed || !t.Date.SameMonth(m) {
				continue
			}
			switch t.Kind {
			case core.Income:
				row.Income = row.Income.Add(t.Amount)
			case core.Expense:
				row.Expense = row.Expense.Add(t.Amount)
			}
		}
		out = append(out, row)
	}
	return out
}
