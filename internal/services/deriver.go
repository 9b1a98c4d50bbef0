package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"orcamento/internal/cache"
	"orcamento/internal/core"
	"orcamento/internal/engine"
	"orcamento/internal/storage"
)

// HistoryMonths is how many months of totals the dashboard carries.
const HistoryMonths = 6

// Dashboard is every derived view of a household for one day.
type Dashboard struct {
	Date                   core.Date              `json:"date"`
	Summary                core.Summary           `json:"summary"`
	Transactions           []core.Transaction     `json:"transactions"`
	Projection             []core.MonthProjection `json:"projection"`
	AverageVariableExpense decimal.Decimal        `json:"averageVariableExpense"`
	Cards                  []core.CardInvoice     `json:"cards"`
	Goals                  []core.GoalNeed        `json:"goals"`
	History                []core.MonthTotals     `json:"history"`
}

// Deriver turns the stored snapshot into derived views. Dashboards are
// memoized by snapshot content, day and member.
type Deriver struct {
	store   storage.Store
	horizon int
	cache   cache.Cache[Dashboard]
	group   singleflight.Group
	logger  *slog.Logger
}

// NewDeriver creates a deriver. A nil cache disables memoization.
func NewDeriver(store storage.Store, horizon int, c cache.Cache[Dashboard], logger *slog.Logger) *Deriver {
	if logger == nil {
		logger = slog.Default()
	}
	if horizon < 0 {
		horizon = engine.DefaultHorizon
	}
	return &Deriver{
		store:   store,
		horizon: horizon,
		cache:   c,
		logger:  logger,
	}
}

// Horizon is the number of future months projected by default.
func (d *Deriver) Horizon() int {
	return d.horizon
}

// CacheStats reports memoization hits and misses.
func (d *Deriver) CacheStats() cache.Stats {
	if d.cache == nil {
		return cache.Stats{}
	}
	return d.cache.Stats()
}

// Snapshot loads the current household state.
func (d *Deriver) Snapshot(ctx context.Context) (core.Snapshot, error) {
	snap, err := d.store.Load(ctx)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

// Dashboard derives the month summary, projection, card invoices, goal needs
// and history as of now. An empty member means the whole household.
func (d *Deriver) Dashboard(ctx context.Context, now time.Time, member core.MemberID) (Dashboard, error) {
	snap, err := d.Snapshot(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	today := core.DateOf(now)

	key, err := dashboardKey(snap, today, member)
	if err != nil {
		return Dashboard{}, err
	}
	if d.cache != nil {
		if dash, ok := d.cache.Get(key); ok {
			d.logger.DebugContext(ctx, "Dashboard served from cache", "date", today.String(), "member_id", member)
			return dash, nil
		}
	}

	v, err, _ := d.group.Do(key, func() (any, error) {
		dash, err := d.derive(ctx, snap, today, member)
		if err != nil {
			return Dashboard{}, err
		}
		if d.cache != nil {
			d.cache.Set(key, dash)
		}
		return dash, nil
	})
	if err != nil {
		return Dashboard{}, err
	}
	return v.(Dashboard), nil
}

func (d *Deriver) derive(ctx context.Context, snap core.Snapshot, today core.Date, member core.MemberID) (Dashboard, error) {
	start := time.Now()
	dash := Dashboard{Date: today}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		month := engine.MonthTransactions(snap, today.Year(), today.Month())
		dash.Transactions = month
		dash.Summary = engine.Aggregate(month, snap.Members, engine.MonthPeriod(today.Year(), today.Month()), member)
		return gctx.Err()
	})
	g.Go(func() error {
		dash.Projection = engine.Project(snap, d.horizon, today)
		dash.AverageVariableExpense = engine.AverageVariableExpense(snap.Transactions, today)
		return gctx.Err()
	})
	g.Go(func() error {
		dash.Cards = engine.CardInvoices(snap, today)
		return gctx.Err()
	})
	g.Go(func() error {
		dash.Goals = engine.GoalNeeds(snap.Goals, today)
		return gctx.Err()
	})
	g.Go(func() error {
		dash.History = engine.History(snap.Transactions, today, HistoryMonths)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("derive dashboard: %w", err)
	}

	d.logger.InfoContext(ctx, "Dashboard derived",
		"date", today.String(),
		"member_id", member,
		"horizon", d.horizon,
		"transactions", len(snap.Transactions),
		"duration_ms", time.Since(start).Milliseconds())
	return dash, nil
}

// Summary aggregates stored and materialized transactions over [start, end].
func (d *Deriver) Summary(ctx context.Context, start, end core.Date, member core.MemberID) (core.Summary, error) {
	snap, err := d.Snapshot(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	txns := append([]core.Transaction(nil), snap.Transactions...)
	for m := start.FirstOfMonth(); !m.After(end.Time); m = m.AddMonths(1) {
		txns = append(txns, engine.Materialize(snap.RecurringItems, m.Year(), m.Month())...)
	}
	return engine.Aggregate(txns, snap.Members, engine.Period{Start: start, End: end}, member), nil
}

// MonthTransactions lists a month's stored and materialized transactions.
func (d *Deriver) MonthTransactions(ctx context.Context, year, month int) ([]core.Transaction, error) {
	snap, err := d.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return engine.MonthTransactions(snap, year, month), nil
}

// Projection projects horizon months forward from now.
func (d *Deriver) Projection(ctx context.Context, now time.Time, horizon int) ([]core.MonthProjection, error) {
	snap, err := d.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return engine.Project(snap, horizon, core.DateOf(now)), nil
}

// Cards reports every card's current invoice.
func (d *Deriver) Cards(ctx context.Context, now time.Time) ([]core.CardInvoice, error) {
	snap, err := d.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return engine.CardInvoices(snap, core.DateOf(now)), nil
}

// Goals reports progress and monthly need of every goal.
func (d *Deriver) Goals(ctx context.Context, now time.Time) ([]core.GoalNeed, error) {
	snap, err := d.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return engine.GoalNeeds(snap.Goals, core.DateOf(now)), nil
}

// dashboardKey identifies a derivation: any change to the snapshot changes
// the fingerprint.
func dashboardKey(snap core.Snapshot, today core.Date, member core.MemberID) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("fingerprint snapshot: %w", err)
	}
	return strconv.FormatUint(xxhash.Sum64(data), 16) + ":" + today.String() + ":" + string(member), nil
}
