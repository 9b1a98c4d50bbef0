package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "INCOME"
	Expense Kind = "EXPENSE"
)

const (
	CreditCard PaymentMethod = "Cartão de Crédito"
	Debit      PaymentMethod = "Débito"
	Cash       PaymentMethod = "Dinheiro/PIX"
)

// FamilyOwner is the pseudo-owner of goals shared by the whole household.
const FamilyOwner MemberID = "family"

type (
	Kind          string
	PaymentMethod string

	MemberID string
	CardID   string

	// SplitEntry is one member's share of a transaction or recurring item.
	SplitEntry struct {
		MemberID MemberID        `json:"memberId"`
		Amount   decimal.Decimal `json:"amount"`
	}

	Installment struct {
		Current int `json:"current"`
		Total   int `json:"total"`
	}

	Transaction struct {
		ID            string          `json:"id"`
		Description   string          `json:"description"`
		Amount        decimal.Decimal `json:"amount"`
		Date          Date            `json:"date"`
		Kind          Kind            `json:"type"`
		Category      string          `json:"category"`
		PaymentMethod PaymentMethod   `json:"paymentMethod"`
		CardID        CardID          `json:"cardId,omitempty"`
		MemberID      MemberID        `json:"memberId"`
		Split         []SplitEntry    `json:"split,omitempty"`
		Installment   *Installment    `json:"installment,omitempty"`
		// Fixed marks records materialized from a recurring item. They are never persisted.
		Fixed bool `json:"isFixed"`
	}

	// RecurringItem is an obligation that repeats every calendar month.
	RecurringItem struct {
		ID          string          `json:"id"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		DayOfMonth  int             `json:"dayOfMonth"`
		Kind        Kind            `json:"type"`
		Category    string          `json:"category"`
		MemberID    MemberID        `json:"memberId"`
		Split       []SplitEntry    `json:"split,omitempty"`
	}

	LimitChange struct {
		Date   Date            `json:"date"`
		Amount decimal.Decimal `json:"amount"`
	}

	Card struct {
		ID           CardID          `json:"id"`
		Name         string          `json:"name"`
		Limit        decimal.Decimal `json:"limit"`
		LimitHistory []LimitChange   `json:"limitHistory"`
		ClosingDay   int             `json:"closingDay"`
		DueDay       int             `json:"dueDay"`
		Color        string          `json:"color,omitempty"`
		MemberID     MemberID        `json:"memberId,omitempty"`
	}

	FamilyMember struct {
		ID     MemberID        `json:"id"`
		Name   string          `json:"name"`
		Role   string          `json:"role"`
		Salary decimal.Decimal `json:"salary"`
	}

	Goal struct {
		ID            string          `json:"id"`
		Name          string          `json:"name"`
		TargetAmount  decimal.Decimal `json:"targetAmount"`
		CurrentAmount decimal.Decimal `json:"currentAmount"`
		Deadline      Date            `json:"deadline"`
		Color         string          `json:"color,omitempty"`
		OwnerID       MemberID        `json:"ownerId"`
	}

	Category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrUnknownKind      = errors.New("unknown transaction kind")
	ErrMissingMember    = errors.New("missing responsible member")
)

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// HasSplit reports whether the split overrides single-member attribution.
func (t Transaction) HasSplit() bool {
	return len(t.Split) > 0
}

// Involves reports whether m is the responsible member or a split participant.
func (t Transaction) Involves(m MemberID) bool {
	if t.MemberID == m {
		return true
	}
	for _, s := range t.Split {
		if s.MemberID == m {
			return true
		}
	}
	return false
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !t.Kind.Valid() {
		return ErrUnknownKind
	}
	if !t.HasSplit() && t.MemberID == "" {
		return ErrMissingMember
	}
	return nil
}

func (r RecurringItem) Validate() error {
	if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
		return ErrInvalidDay
	}
	if len(strings.TrimSpace(r.Description)) == 0 {
		return ErrEmptyDescription
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !r.Kind.Valid() {
		return ErrUnknownKind
	}
	if len(r.Split) == 0 && r.MemberID == "" {
		return ErrMissingMember
	}
	return nil
}

// Complete reports whether the saved amount has reached the target.
func (g Goal) Complete() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}
