package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"orcamento/internal/amqp"
	"orcamento/internal/core"
)

type stubSource struct {
	err     error
	horizon int
	at      time.Time
}

func (s *stubSource) Projection(_ context.Context, now time.Time, horizon int) ([]core.MonthProjection, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.horizon, s.at = horizon, now
	months := make([]core.MonthProjection, horizon+1)
	for i := range months {
		d := core.DateOf(now).AddMonths(i)
		months[i] = core.MonthProjection{Label: d.MonthKey(), Year: d.Year(), Month: d.Month(), FreeBalance: decimal.NewFromInt(int64(100 * i))}
	}
	return months, nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.ProjectionUpdated
	err  error
}

func (p *recordingPublisher) PublishProjection(_ context.Context, msg *amqp.ProjectionUpdated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

func TestProjectionWorker_RunOnce(t *testing.T) {
	fixed := time.Date(2024, 12, 20, 8, 0, 0, 0, time.UTC)

	t.Run("publishes projection", func(t *testing.T) {
		src := &stubSource{}
		pub := &recordingPublisher{}
		w := NewProjectionWorker(src, pub, Config{Interval: time.Hour, Horizon: 3}, nil)
		w.now = func() time.Time { return fixed }

		if err := w.RunOnce(context.Background()); err != nil {
			t.Fatalf("RunOnce() error = %v", err)
		}
		if src.horizon != 3 || !src.at.Equal(fixed) {
			t.Errorf("source called with horizon %d at %v", src.horizon, src.at)
		}
		if pub.count() != 1 {
			t.Fatalf("published %d messages, want 1", pub.count())
		}
		msg := pub.msgs[0]
		if msg.Horizon != 3 || len(msg.Months) != 4 || msg.Months[3].Label != "2025-03" {
			t.Errorf("message = %+v", msg)
		}
	})

	t.Run("no publisher only computes", func(t *testing.T) {
		w := NewProjectionWorker(&stubSource{}, nil, Config{Horizon: 2}, nil)
		if err := w.RunOnce(context.Background()); err != nil {
			t.Fatalf("RunOnce() error = %v", err)
		}
	})

	t.Run("source error", func(t *testing.T) {
		boom := errors.New("disk gone")
		w := NewProjectionWorker(&stubSource{err: boom}, &recordingPublisher{}, Config{Horizon: 2}, nil)
		if err := w.RunOnce(context.Background()); !errors.Is(err, boom) {
			t.Fatalf("RunOnce() error = %v, want %v", err, boom)
		}
	})

	t.Run("publish error", func(t *testing.T) {
		boom := errors.New("circuit breaker is open")
		w := NewProjectionWorker(&stubSource{}, &recordingPublisher{err: boom}, Config{Horizon: 2}, nil)
		if err := w.RunOnce(context.Background()); !errors.Is(err, boom) {
			t.Fatalf("RunOnce() error = %v, want %v", err, boom)
		}
	})
}

func TestNewProjectionWorker_Defaults(t *testing.T) {
	w := NewProjectionWorker(&stubSource{}, nil, Config{Interval: 0, Horizon: -1}, nil)
	if w.config.Interval != time.Hour {
		t.Errorf("Interval = %v, want 1h", w.config.Interval)
	}
	if w.config.Horizon != 6 {
		t.Errorf("Horizon = %d, want 6", w.config.Horizon)
	}
}

func TestProjectionWorker_StartStop(t *testing.T) {
	pub := &recordingPublisher{}
	w := NewProjectionWorker(&stubSource{}, pub, Config{Interval: 10 * time.Millisecond, Horizon: 1}, nil)
	ctx := context.Background()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := w.Start(ctx); err == nil {
		t.Error("second Start() should fail")
	}
	if !w.IsRunning() {
		t.Error("worker should be running")
	}

	deadline := time.Now().Add(2 * time.Second)
	for pub.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if pub.count() < 2 {
		t.Fatalf("published %d messages, want at least 2", pub.count())
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if w.IsRunning() {
		t.Error("worker should be stopped")
	}
	if err := w.Stop(stopCtx); err != nil {
		t.Errorf("Stop() on stopped worker error = %v", err)
	}
}

func TestProjectionWorker_RestartAfterContextCancel(t *testing.T) {
	w := NewProjectionWorker(&stubSource{}, nil, Config{Interval: time.Hour, Horizon: 1}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for w.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if w.IsRunning() {
		t.Fatal("worker still running after its context was cancelled")
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() after cancel error = %v", err)
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestProjectionWorker_ConcurrentStop(t *testing.T) {
	w := NewProjectionWorker(&stubSource{}, nil, Config{Interval: time.Hour, Horizon: 1}, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- w.Stop(ctx)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	}
	if w.IsRunning() {
		t.Error("worker should be stopped")
	}
}
