package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"orcamento/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the snapshot in normalized tables.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes them anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

func (r *SQLiteStore) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteStore) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteStore) Load(ctx context.Context) (core.Snapshot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback()

	ok, err := initialized(ctx, tx)
	if err != nil {
		return core.Snapshot{}, err
	}
	if !ok {
		return core.DefaultSnapshot(), nil
	}

	var snap core.Snapshot
	if snap.Members, err = loadMembers(ctx, tx); err != nil {
		return core.Snapshot{}, err
	}
	if snap.Categories, err = loadCategories(ctx, tx); err != nil {
		return core.Snapshot{}, err
	}
	if snap.Cards, err = loadCards(ctx, tx); err != nil {
		return core.Snapshot{}, err
	}
	if snap.Transactions, err = loadTransactions(ctx, tx); err != nil {
		return core.Snapshot{}, err
	}
	if snap.RecurringItems, err = loadRecurringItems(ctx, tx); err != nil {
		return core.Snapshot{}, err
	}
	if snap.Goals, err = loadGoals(ctx, tx); err != nil {
		return core.Snapshot{}, err
	}
	return snap, nil
}

func (r *SQLiteStore) Save(ctx context.Context, snap core.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if err := replaceAll(ctx, tx, snap); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	r.logger.DebugContext(ctx, "Snapshot saved to SQLite", "transactions", len(snap.Transactions))
	return nil
}

// AppendTransactions inserts new records after the existing ones. On a new
// database the default household is written first.
func (r *SQLiteStore) AppendTransactions(ctx context.Context, txns ...core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	ok, err := initialized(ctx, tx)
	if err != nil {
		return err
	}
	if !ok {
		if err := replaceAll(ctx, tx, core.DefaultSnapshot()); err != nil {
			return err
		}
	}

	var last int
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(position), -1) FROM transactions").Scan(&last); err != nil {
		return fmt.Errorf("read last position: %w", err)
	}
	for i, t := range persistable(txns) {
		if err := insertTransaction(ctx, tx, t, last+1+i); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	r.logger.InfoContext(ctx, "Transactions saved to SQLite", "count", len(txns))
	return nil
}

func initialized(ctx context.Context, tx *sql.Tx) (bool, error) {
	var v string
	err := tx.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = 'initialized'").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read settings: %w", err)
	}
	return true, nil
}

func replaceAll(ctx context.Context, tx *sql.Tx, snap core.Snapshot) error {
	for _, table := range []string{
		"transaction_splits", "transactions",
		"recurring_item_splits", "recurring_items",
		"card_limit_history", "cards",
		"goals", "categories", "members",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, m := range snap.Members {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO members (id, name, role, salary, position) VALUES (?, ?, ?, ?, ?)",
			string(m.ID), m.Name, m.Role, m.Salary.String(), i,
		); err != nil {
			return fmt.Errorf("insert member %s: %w", m.ID, err)
		}
	}

	for i, c := range snap.Categories {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO categories (id, name, color, position) VALUES (?, ?, ?, ?)",
			c.ID, c.Name, c.Color, i,
		); err != nil {
			return fmt.Errorf("insert category %s: %w", c.ID, err)
		}
	}

	for i, c := range snap.Cards {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO cards (id, name, limit_amount, closing_day, due_day, color, member_id, position) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			string(c.ID), c.Name, c.Limit.String(), c.ClosingDay, c.DueDay, c.Color, string(c.MemberID), i,
		); err != nil {
			return fmt.Errorf("insert card %s: %w", c.ID, err)
		}
		for j, h := range c.LimitHistory {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO card_limit_history (card_id, date, amount, position) VALUES (?, ?, ?, ?)",
				string(c.ID), h.Date.String(), h.Amount.String(), j,
			); err != nil {
				return fmt.Errorf("insert limit history for card %s: %w", c.ID, err)
			}
		}
	}

	for i, t := range persistable(snap.Transactions) {
		if err := insertTransaction(ctx, tx, t, i); err != nil {
			return err
		}
	}

	for i, item := range snap.RecurringItems {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO recurring_items (id, description, amount, day_of_month, kind, category, member_id, position) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			item.ID, item.Description, item.Amount.String(), item.DayOfMonth, string(item.Kind), item.Category, string(item.MemberID), i,
		); err != nil {
			return fmt.Errorf("insert recurring item %s: %w", item.ID, err)
		}
		for j, s := range item.Split {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO recurring_item_splits (item_id, member_id, amount, position) VALUES (?, ?, ?, ?)",
				item.ID, string(s.MemberID), s.Amount.String(), j,
			); err != nil {
				return fmt.Errorf("insert split for recurring item %s: %w", item.ID, err)
			}
		}
	}

	for i, g := range snap.Goals {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO goals (id, name, target_amount, current_amount, deadline, color, owner_id, position) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			g.ID, g.Name, g.TargetAmount.String(), g.CurrentAmount.String(), g.Deadline.String(), g.Color, string(g.OwnerID), i,
		); err != nil {
			return fmt.Errorf("insert goal %s: %w", g.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES ('initialized', '1') ON CONFLICT(key) DO NOTHING",
	); err != nil {
		return fmt.Errorf("mark initialized: %w", err)
	}
	return nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, t core.Transaction, position int) error {
	var current, total sql.NullInt64
	if t.Installment != nil {
		current = sql.NullInt64{Int64: int64(t.Installment.Current), Valid: true}
		total = sql.NullInt64{Int64: int64(t.Installment.Total), Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transactions
			(id, description, amount, date, kind, category, payment_method, card_id, member_id, installment_current, installment_total, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Description, t.Amount.String(), t.Date.String(), string(t.Kind), t.Category,
		string(t.PaymentMethod), string(t.CardID), string(t.MemberID), current, total, position,
	); err != nil {
		return fmt.Errorf("insert transaction %s: %w", t.ID, err)
	}
	for j, s := range t.Split {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO transaction_splits (transaction_id, member_id, amount, position) VALUES (?, ?, ?, ?)",
			t.ID, string(s.MemberID), s.Amount.String(), j,
		); err != nil {
			return fmt.Errorf("insert split for transaction %s: %w", t.ID, err)
		}
	}
	return nil
}

func loadMembers(ctx context.Context, tx *sql.Tx) ([]core.FamilyMember, error) {
	rows, err := tx.QueryContext(ctx, "SELECT id, name, role, salary FROM members ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	out := []core.FamilyMember{}
	for rows.Next() {
		var m core.FamilyMember
		var id, salary string
		if err := rows.Scan(&id, &m.Name, &m.Role, &salary); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.ID = core.MemberID(id)
		if m.Salary, err = parseDecimal(salary); err != nil {
			return nil, fmt.Errorf("member %s salary: %w", id, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func loadCategories(ctx context.Context, tx *sql.Tx) ([]core.Category, error) {
	rows, err := tx.QueryContext(ctx, "SELECT id, name, color FROM categories ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func loadCards(ctx context.Context, tx *sql.Tx) ([]core.Card, error) {
	history := map[core.CardID][]core.LimitChange{}
	hrows, err := tx.QueryContext(ctx, "SELECT card_id, date, amount FROM card_limit_history ORDER BY card_id, position")
	if err != nil {
		return nil, fmt.Errorf("query limit history: %w", err)
	}
	defer hrows.Close()
	for hrows.Next() {
		var cardID, date, amount string
		if err := hrows.Scan(&cardID, &date, &amount); err != nil {
			return nil, fmt.Errorf("scan limit history: %w", err)
		}
		var h core.LimitChange
		if h.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("card %s limit date: %w", cardID, err)
		}
		if h.Amount, err = parseDecimal(amount); err != nil {
			return nil, fmt.Errorf("card %s limit amount: %w", cardID, err)
		}
		history[core.CardID(cardID)] = append(history[core.CardID(cardID)], h)
	}
	if err := hrows.Err(); err != nil {
		return nil, err
	}
	hrows.Close()

	rows, err := tx.QueryContext(ctx, "SELECT id, name, limit_amount, closing_day, due_day, color, member_id FROM cards ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	out := []core.Card{}
	for rows.Next() {
		var c core.Card
		var id, limit, member string
		if err := rows.Scan(&id, &c.Name, &limit, &c.ClosingDay, &c.DueDay, &c.Color, &member); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		c.ID, c.MemberID = core.CardID(id), core.MemberID(member)
		if c.Limit, err = parseDecimal(limit); err != nil {
			return nil, fmt.Errorf("card %s limit: %w", id, err)
		}
		c.LimitHistory = history[c.ID]
		out = append(out, c)
	}
	return out, rows.Err()
}

func loadSplits(ctx context.Context, tx *sql.Tx, query string) (map[string][]core.SplitEntry, error) {
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query splits: %w", err)
	}
	defer rows.Close()

	out := map[string][]core.SplitEntry{}
	for rows.Next() {
		var owner, member, amount string
		if err := rows.Scan(&owner, &member, &amount); err != nil {
			return nil, fmt.Errorf("scan split: %w", err)
		}
		a, err := parseDecimal(amount)
		if err != nil {
			return nil, fmt.Errorf("split of %s: %w", owner, err)
		}
		out[owner] = append(out[owner], core.SplitEntry{MemberID: core.MemberID(member), Amount: a})
	}
	return out, rows.Err()
}

func loadTransactions(ctx context.Context, tx *sql.Tx) ([]core.Transaction, error) {
	splits, err := loadSplits(ctx, tx, "SELECT transaction_id, member_id, amount FROM transaction_splits ORDER BY transaction_id, position")
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `SELECT id, description, amount, date, kind, category, payment_method, card_id, member_id,
		installment_current, installment_total FROM transactions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var t core.Transaction
		var amount, date, kind, method, card, member string
		var current, total sql.NullInt64
		if err := rows.Scan(&t.ID, &t.Description, &amount, &date, &kind, &t.Category, &method, &card, &member, &current, &total); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Amount, err = parseDecimal(amount); err != nil {
			return nil, fmt.Errorf("transaction %s amount: %w", t.ID, err)
		}
		if t.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s date: %w", t.ID, err)
		}
		t.Kind = core.Kind(kind)
		t.PaymentMethod = core.PaymentMethod(method)
		t.CardID = core.CardID(card)
		t.MemberID = core.MemberID(member)
		if current.Valid && total.Valid {
			t.Installment = &core.Installment{Current: int(current.Int64), Total: int(total.Int64)}
		}
		t.Split = splits[t.ID]
		out = append(out, t)
	}
	return out, rows.Err()
}

func loadRecurringItems(ctx context.Context, tx *sql.Tx) ([]core.RecurringItem, error) {
	splits, err := loadSplits(ctx, tx, "SELECT item_id, member_id, amount FROM recurring_item_splits ORDER BY item_id, position")
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, "SELECT id, description, amount, day_of_month, kind, category, member_id FROM recurring_items ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query recurring items: %w", err)
	}
	defer rows.Close()

	out := []core.RecurringItem{}
	for rows.Next() {
		var item core.RecurringItem
		var amount, kind, member string
		if err := rows.Scan(&item.ID, &item.Description, &amount, &item.DayOfMonth, &kind, &item.Category, &member); err != nil {
			return nil, fmt.Errorf("scan recurring item: %w", err)
		}
		if item.Amount, err = parseDecimal(amount); err != nil {
			return nil, fmt.Errorf("recurring item %s amount: %w", item.ID, err)
		}
		item.Kind = core.Kind(kind)
		item.MemberID = core.MemberID(member)
		item.Split = splits[item.ID]
		out = append(out, item)
	}
	return out, rows.Err()
}

func loadGoals(ctx context.Context, tx *sql.Tx) ([]core.Goal, error) {
	rows, err := tx.QueryContext(ctx, "SELECT id, name, target_amount, current_amount, deadline, color, owner_id FROM goals ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	out := []core.Goal{}
	for rows.Next() {
		var g core.Goal
		var target, current, deadline, owner string
		if err := rows.Scan(&g.ID, &g.Name, &target, &current, &deadline, &g.Color, &owner); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		if g.TargetAmount, err = parseDecimal(target); err != nil {
			return nil, fmt.Errorf("goal %s target: %w", g.ID, err)
		}
		if g.CurrentAmount, err = parseDecimal(current); err != nil {
			return nil, fmt.Errorf("goal %s current: %w", g.ID, err)
		}
		if g.Deadline, err = parseDate(deadline); err != nil {
			return nil, fmt.Errorf("goal %s deadline: %w", g.ID, err)
		}
		g.OwnerID = core.MemberID(owner)
		out = append(out, g)
	}
	return out, rows.Err()
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func parseDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}
