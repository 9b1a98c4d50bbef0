package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category label.
type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// MemberPosition is a member's salary against the expense attributed to them.
type MemberPosition struct {
	MemberID MemberID        `json:"memberId"`
	Name     string          `json:"name"`
	Salary   decimal.Decimal `json:"salary"`
	Expense  decimal.Decimal `json:"expense"`
	Net      decimal.Decimal `json:"net"`
}

// Summary is the aggregate of transactions over an inclusive period.
type Summary struct {
	Start      Date             `json:"start"`
	End        Date             `json:"end"`
	Member     MemberID         `json:"member,omitempty"`
	Income     decimal.Decimal  `json:"income"`
	Expense    decimal.Decimal  `json:"expense"`
	Balance    decimal.Decimal  `json:"balance"`
	ByCategory []CategoryAmount `json:"byCategory"`
	Members    []MemberPosition `json:"members"`
}

// MonthProjection is one row of the forward cash-flow series.
type MonthProjection struct {
	Label            string          `json:"label"`
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	ProjectedIncome  decimal.Decimal `json:"projectedIncome"`
	ProjectedExpense decimal.Decimal `json:"projectedExpense"`
	ProjectedBalance decimal.Decimal `json:"projectedBalance"`
	MonthlyGoalNeed  decimal.Decimal `json:"monthlyGoalNeed"`
	FreeBalance      decimal.Decimal `json:"freeBalance"`
}

// MonthTotals is a compact income/expense pair for a calendar month.
type MonthTotals struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// CardInvoice is the current billing-cycle state of a credit card.
type CardInvoice struct {
	CardID      CardID          `json:"cardId"`
	Name        string          `json:"name"`
	Limit       decimal.Decimal `json:"limit"`
	Invoice     decimal.Decimal `json:"invoice"`
	Available   decimal.Decimal `json:"available"`
	UsedPercent decimal.Decimal `json:"usedPercent"`
}

// GoalNeed is a goal's progress and the monthly amount needed to meet its deadline.
type GoalNeed struct {
	GoalID          string          `json:"goalId"`
	Name            string          `json:"name"`
	OwnerID         MemberID        `json:"ownerId"`
	Progress        decimal.Decimal `json:"progress"`
	Complete        bool            `json:"complete"`
	MonthsRemaining int             `json:"monthsRemaining"`
	MonthlyNeed     decimal.Decimal `json:"monthlyNeed"`
}
