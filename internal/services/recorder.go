package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"orcamento/internal/core"
	"orcamento/internal/engine"
	"orcamento/internal/storage"
)

// IncomeCategory is the category every income is filed under.
const IncomeCategory = "Receita"

// MaxInstallments bounds how many monthly records one purchase expands into.
const MaxInstallments = 48

// ErrInvalidRecord wraps every validation failure of a new record.
var ErrInvalidRecord = errors.New("invalid record")

// Recorder validates new records and persists them.
type Recorder struct {
	mu     sync.Mutex
	store  storage.Store
	newID  func() string
	logger *slog.Logger
}

func NewRecorder(store storage.Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:  store,
		newID:  uuid.NewString,
		logger: logger,
	}
}

// RecordTransaction stores a transaction, or its installment series when an
// expense is paid in more than one installment. It returns the stored records.
// A split that does not add up to the amount yields *engine.SplitMismatchError.
func (r *Recorder) RecordTransaction(ctx context.Context, draft core.Transaction, installments int) ([]core.Transaction, error) {
	if r.store == nil {
		return nil, fmt.Errorf("recorder not properly initialized")
	}

	draft = normalizeDraft(draft)
	if draft.Kind != core.Expense {
		installments = 1
	}
	if installments > MaxInstallments {
		return nil, fmt.Errorf("%w: at most %d installments, got %d", ErrInvalidRecord, MaxInstallments, installments)
	}
	if draft.ID == "" {
		draft.ID = r.newID()
	}

	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if draft.HasSplit() {
		if err := engine.CheckSplit(draft.Split, draft.Amount); err != nil {
			return nil, err
		}
	}

	records := engine.ExpandInstallments(draft, installments)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.AppendTransactions(ctx, records...); err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}

	r.logger.InfoContext(ctx, "Transaction recorded",
		"type", draft.Kind,
		"description", draft.Description,
		"amount_cents", core.Cents(draft.Amount),
		"count", len(records))
	return records, nil
}

// AddRecurringItem stores a monthly recurring item. With shareEqually the
// amount is split evenly across every household member.
func (r *Recorder) AddRecurringItem(ctx context.Context, item core.RecurringItem, shareEqually bool) (core.RecurringItem, error) {
	if r.store == nil {
		return core.RecurringItem{}, fmt.Errorf("recorder not properly initialized")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.store.Load(ctx)
	if err != nil {
		return core.RecurringItem{}, fmt.Errorf("load snapshot: %w", err)
	}

	item.Description = strings.TrimSpace(item.Description)
	if item.ID == "" {
		item.ID = r.newID()
	}
	if shareEqually {
		ids := make([]core.MemberID, 0, len(snap.Members))
		for _, m := range snap.Members {
			ids = append(ids, m.ID)
		}
		item.Split = engine.SplitEqually(item.Amount, ids)
	}
	item.Split = positiveShares(item.Split)

	if err := item.Validate(); err != nil {
		return core.RecurringItem{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if len(item.Split) > 0 {
		if err := engine.CheckSplit(item.Split, item.Amount); err != nil {
			return core.RecurringItem{}, err
		}
	}

	snap.RecurringItems = append(snap.RecurringItems, item)
	if err := r.store.Save(ctx, snap); err != nil {
		return core.RecurringItem{}, fmt.Errorf("save recurring item: %w", err)
	}

	r.logger.InfoContext(ctx, "Recurring item added",
		"description", item.Description,
		"amount_cents", core.Cents(item.Amount),
		"day", item.DayOfMonth,
		"shared", len(item.Split) > 0)
	return item, nil
}

// positiveShares drops split entries that carry no amount.
func positiveShares(entries []core.SplitEntry) []core.SplitEntry {
	var kept []core.SplitEntry
	for _, e := range entries {
		if e.Amount.IsPositive() {
			kept = append(kept, e)
		}
	}
	return kept
}

func normalizeDraft(t core.Transaction) core.Transaction {
	t.Description = strings.TrimSpace(t.Description)
	if t.Kind == core.Income {
		t.Category = IncomeCategory
	}
	if t.PaymentMethod != core.CreditCard {
		t.CardID = ""
	}
	t.Fixed = false
	t.Installment = nil
	return t
}
