// Package storage persists the household snapshot.
package storage

import (
	"context"
	"errors"

	"orcamento/internal/core"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("store closed")

// Store loads and saves the full household state. Materialized recurring
// records (Transaction.Fixed) are never persisted; implementations drop them
// on write.
type Store interface {
	// Load returns the persisted snapshot, or the default snapshot of a new
	// household when nothing has been saved yet.
	Load(ctx context.Context) (core.Snapshot, error)

	// Save replaces the persisted state with s.
	Save(ctx context.Context, s core.Snapshot) error

	// AppendTransactions adds new records after the existing ones.
	AppendTransactions(ctx context.Context, txns ...core.Transaction) error

	// Close releases any resources held by the store.
	Close() error
}

func persistable(txns []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txns))
	for _, t := range txns {
		if !t.Fixed {
			out = append(out, t)
		}
	}
	return out
}
