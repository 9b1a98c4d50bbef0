package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"orcamento/internal/core"
)

// MemoryStore keeps the snapshot in process memory. Nothing survives a
// restart; it serves demos and tests.
type MemoryStore struct {
	mu     sync.Mutex
	snap   core.Snapshot
	closed bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore starts from seed.
func NewMemoryStore(seed core.Snapshot) *MemoryStore {
	return &MemoryStore{snap: cloneSnapshot(seed)}
}

// NewMemoryStoreFromFile seeds the store from a snapshot document. A missing
// file or an empty path starts a new household. The file is never written.
func NewMemoryStoreFromFile(path string, logger *slog.Logger) (*MemoryStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return NewMemoryStore(core.DefaultSnapshot()), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("Seed snapshot not found, starting empty", "path", path)
		return NewMemoryStore(core.DefaultSnapshot()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed snapshot: %w", err)
	}

	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode seed snapshot %s: %w", path, err)
	}
	upgradeSnapshot(&snap, core.DateOf(time.Now()))
	snap.Transactions = persistable(snap.Transactions)
	return NewMemoryStore(snap), nil
}

func (s *MemoryStore) Load(_ context.Context) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Snapshot{}, ErrClosed
	}
	return cloneSnapshot(s.snap), nil
}

func (s *MemoryStore) Save(ctx context.Context, snap core.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	snap.Transactions = persistable(snap.Transactions)
	s.snap = cloneSnapshot(snap)
	return nil
}

func (s *MemoryStore) AppendTransactions(ctx context.Context, txns ...core.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, t := range persistable(txns) {
		s.snap.Transactions = append(s.snap.Transactions, cloneTransaction(t))
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// cloneSnapshot copies every slice so callers never share backing arrays
// with the store.
func cloneSnapshot(s core.Snapshot) core.Snapshot {
	out := core.Snapshot{
		Transactions:   make([]core.Transaction, len(s.Transactions)),
		RecurringItems: make([]core.RecurringItem, len(s.RecurringItems)),
		Cards:          make([]core.Card, len(s.Cards)),
		Members:        append([]core.FamilyMember{}, s.Members...),
		Categories:     append([]core.Category{}, s.Categories...),
		Goals:          append([]core.Goal{}, s.Goals...),
	}
	for i, t := range s.Transactions {
		out.Transactions[i] = cloneTransaction(t)
	}
	for i, item := range s.RecurringItems {
		item.Split = cloneSplit(item.Split)
		out.RecurringItems[i] = item
	}
	for i, c := range s.Cards {
		c.LimitHistory = append([]core.LimitChange{}, c.LimitHistory...)
		out.Cards[i] = c
	}
	return out
}

func cloneTransaction(t core.Transaction) core.Transaction {
	t.Split = cloneSplit(t.Split)
	if t.Installment != nil {
		inst := *t.Installment
		t.Installment = &inst
	}
	return t
}

func cloneSplit(entries []core.SplitEntry) []core.SplitEntry {
	if len(entries) == 0 {
		return nil
	}
	return append([]core.SplitEntry(nil), entries...)
}
