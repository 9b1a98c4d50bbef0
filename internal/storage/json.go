package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"orcamento/internal/core"
)

// JSONStore keeps the whole snapshot in one JSON document on disk.
type JSONStore struct {
	mu     sync.Mutex
	path   string
	today  func() core.Date
	logger *slog.Logger
	closed bool
}

var _ Store = (*JSONStore)(nil)

// NewJSONStore creates a store backed by the file at path. The file does not
// need to exist yet.
func NewJSONStore(path string, logger *slog.Logger) (*JSONStore, error) {
	if path == "" {
		return nil, errors.New("snapshot path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONStore{
		path:   path,
		today:  func() core.Date { return core.DateOf(time.Now()) },
		logger: logger,
	}, nil
}

// Load reads and upgrades the snapshot. A missing file is a new household.
func (s *JSONStore) Load(ctx context.Context) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *JSONStore) load(ctx context.Context) (core.Snapshot, error) {
	if s.closed {
		return core.Snapshot{}, ErrClosed
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.DefaultSnapshot(), nil
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}
	if applied := upgradeSnapshot(&snap, s.today()); len(applied) > 0 {
		s.logger.InfoContext(ctx, "Snapshot upgraded", "path", s.path, "upgrades", applied)
	}
	return snap, nil
}

// Save writes the snapshot through a temporary file and a rename so readers
// never see a partial document.
func (s *JSONStore) Save(ctx context.Context, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, snap)
}

func (s *JSONStore) save(ctx context.Context, snap core.Snapshot) error {
	if s.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	snap.Transactions = persistable(snap.Transactions)
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	s.logger.DebugContext(ctx, "Snapshot saved", "path", s.path, "transactions", len(snap.Transactions))
	return nil
}

// AppendTransactions loads, appends and saves under one lock.
func (s *JSONStore) AppendTransactions(ctx context.Context, txns ...core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return err
	}
	snap.Transactions = append(snap.Transactions, txns...)
	return s.save(ctx, snap)
}

func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
