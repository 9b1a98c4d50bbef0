package engine

import (
	"github.com/shopspring/decimal"

	"orcamento/internal/core"
)

// DefaultHorizon is the number of months projected after the current one.
const DefaultHorizon = 6

var hundred = decimal.NewFromInt(100)

// Project folds the snapshot into horizon+1 monthly rows starting at now's
// month. A negative horizon projects the current month only.
//
// Each row combines salaries and recurring items, the stored transactions
// whose resolved payment date falls in the month, and the historical average
// of variable expenses. Goal funding need is the same for every row.
func Project(s core.Snapshot, horizon int, now core.Date) []core.MonthProjection {
	if horizon < 0 {
		horizon = 0
	}

	salaries := decimal.Zero
	for _, m := range s.Members {
		salaries = salaries.Add(m.Salary)
	}
	recurringIncome, recurringExpense := decimal.Zero, decimal.Zero
	for _, item := range s.RecurringItems {
		switch item.Kind {
		case core.Income:
			recurringIncome = recurringIncome.Add(item.Amount)
		case core.Expense:
			recurringExpense = recurringExpense.Add(item.Amount)
		}
	}
	avgVariable := AverageVariableExpense(s.Transactions, now)
	goalNeed := MonthlyGoalNeed(s.Goals, now)

	first := now.FirstOfMonth()
	rows := make([]core.MonthProjection, 0, horizon+1)
	for i := 0; i <= horizon; i++ {
		target := first.AddMonths(i)

		knownIncome, knownExpense := decimal.Zero, decimal.Zero
		for _, t := range s.Transactions {
			if t.Fixed || !ResolvePaymentDate(t, s.Cards).SameMonth(target) {
				continue
			}
			switch t.Kind {
			case core.Income:
				knownIncome = knownIncome.Add(t.Amount)
			case core.Expense:
				knownExpense = knownExpense.Add(t.Amount)
			}
		}
		if i == 0 && knownIncome.IsNegative() {
			knownIncome = decimal.Zero
		}

		income := salaries.Add(recurringIncome).Add(knownIncome)
		expense := recurringExpense.Add(knownExpense).Add(avgVariable)
		balance := income.Sub(expense)
		rows = append(rows, core.MonthProjection{
			Label:            target.MonthKey(),
			Year:             target.Year(),
			Month:            target.Month(),
			ProjectedIncome:  income,
			ProjectedExpense: expense,
			ProjectedBalance: balance,
			MonthlyGoalNeed:  goalNeed,
			FreeBalance:      balance.Sub(goalNeed),
		})
	}
	return rows
}

// AverageVariableExpense is the mean monthly amount of stored expenses dated
// on or before now, over the distinct months in which any such expense
// occurred. No history averages to zero.
func AverageVariableExpense(txns []core.Transaction, now core.Date) decimal.Decimal {
	total := decimal.Zero
	months := map[string]struct{}{}
	for _, t := range txns {
		if t.Kind != core.Expense || t.Fixed || t.Date.After(now.Time) {
			continue
		}
		total = total.Add(t.Amount)
		months[t.Date.MonthKey()] = struct{}{}
	}
	if len(months) == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(len(months)))).Round(2)
}

// GoalNeeds reports progress and the monthly contribution each goal needs to
// reach its target by the deadline. Complete goals and goals whose deadline
// is in now's month or earlier need nothing.
func GoalNeeds(goals []core.Goal, now core.Date) []core.GoalNeed {
	out := make([]core.GoalNeed, 0, len(goals))
	for _, g := range goals {
		need := core.GoalNeed{
			GoalID:          g.ID,
			Name:            g.Name,
			OwnerID:         g.OwnerID,
			Progress:        goalProgress(g),
			Complete:        g.Complete(),
			MonthsRemaining: monthsRemaining(g, now),
			MonthlyNeed:     exactNeed(g, now).Round(2),
		}
		out = append(out, need)
	}
	return out
}

// MonthlyGoalNeed sums the exact monthly need of every goal and rounds the
// total to cents once.
func MonthlyGoalNeed(goals []core.Goal, now core.Date) decimal.Decimal {
	total := decimal.Zero
	for _, g := range goals {
		total = total.Add(exactNeed(g, now))
	}
	return total.Round(2)
}

func monthsRemaining(g core.Goal, now core.Date) int {
	if g.Deadline.IsZero() {
		return 0
	}
	return now.MonthsUntil(g.Deadline)
}

// exactNeed is the unrounded amount still missing per remaining month.
func exactNeed(g core.Goal, now core.Date) decimal.Decimal {
	months := monthsRemaining(g, now)
	if g.Complete() || months <= 0 {
		return decimal.Zero
	}
	return g.TargetAmount.Sub(g.CurrentAmount).Div(decimal.NewFromInt(int64(months)))
}

func goalProgress(g core.Goal) decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		if g.Complete() {
			return hundred
		}
		return decimal.Zero
	}
	p := g.CurrentAmount.Div(g.TargetAmount).Mul(hundred)
	if p.GreaterThan(hundred) {
		p = hundred
	}
	return p.Round(1)
}
