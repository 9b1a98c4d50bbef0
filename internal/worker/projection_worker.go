package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"orcamento/internal/amqp"
	"orcamento/internal/core"
)

// ProjectionSource computes the forward cash-flow projection.
type ProjectionSource interface {
	Projection(ctx context.Context, now time.Time, horizon int) ([]core.MonthProjection, error)
}

// Publisher delivers projection updates to subscribers.
type Publisher interface {
	PublishProjection(ctx context.Context, msg *amqp.ProjectionUpdated) error
}

// Config holds configuration for the projection worker
type Config struct {
	// Interval between projection runs (default: 1h)
	Interval time.Duration

	// Horizon is the number of future months projected (default: 6)
	Horizon int
}

// ProjectionWorker recomputes the projection on start and every Interval
// and publishes it.
type ProjectionWorker struct {
	source    ProjectionSource
	publisher Publisher
	config    Config
	now       func() time.Time
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewProjectionWorker creates a worker. A nil publisher only computes and
// logs the projection.
func NewProjectionWorker(source ProjectionSource, publisher Publisher, config Config, logger *slog.Logger) *ProjectionWorker {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	if config.Horizon < 0 {
		config.Horizon = 6
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectionWorker{
		source:    source,
		publisher: publisher,
		config:    config,
		now:       time.Now,
		logger:    logger,
	}
}

// Start begins the projection loop. Returns an error if already running.
func (w *ProjectionWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("projection worker is already running")
	}
	w.running = true
	stopCh, doneCh := make(chan struct{}), make(chan struct{})
	w.stopCh, w.doneCh = stopCh, doneCh
	w.mu.Unlock()

	if w.publisher == nil {
		w.logger.WarnContext(ctx, "AMQP disabled, projections will not be published")
	}

	go w.runLoop(ctx, stopCh, doneCh)

	w.logger.InfoContext(ctx, "Projection worker started",
		"interval", w.config.Interval,
		"horizon", w.config.Horizon)
	return nil
}

// Stop signals the loop to finish and waits for it.
func (w *ProjectionWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	stopCh, doneCh := w.stopCh, w.doneCh
	w.running = false
	w.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		w.logger.InfoContext(ctx, "Projection worker stopped gracefully")
		return nil
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Projection worker stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the worker loop is active
func (w *ProjectionWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// runLoop owns its channels so a loop that is still winding down never
// touches the state of a newer run.
func (w *ProjectionWorker) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer func() {
		w.mu.Lock()
		if w.doneCh == doneCh {
			w.running = false
		}
		w.mu.Unlock()
		close(doneCh)
	}()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.runAndLog(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runAndLog(ctx)
		}
	}
}

func (w *ProjectionWorker) runAndLog(ctx context.Context) {
	if err := w.RunOnce(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Projection run failed", "error", err)
	}
}

// RunOnce computes the projection for the current time and publishes it.
func (w *ProjectionWorker) RunOnce(ctx context.Context) error {
	now := w.now()
	months, err := w.source.Projection(ctx, now, w.config.Horizon)
	if err != nil {
		return fmt.Errorf("compute projection: %w", err)
	}

	if len(months) > 0 {
		last := months[len(months)-1]
		w.logger.InfoContext(ctx, "Projection computed",
			"horizon", w.config.Horizon,
			"from", months[0].Label,
			"to", last.Label,
			"final_free_balance", last.FreeBalance.StringFixed(2))
	}

	if w.publisher == nil {
		return nil
	}
	if err := w.publisher.PublishProjection(ctx, amqp.NewProjectionUpdated(now, w.config.Horizon, months)); err != nil {
		return fmt.Errorf("publish projection: %w", err)
	}
	return nil
}
