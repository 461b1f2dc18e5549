package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/course-conditions/internal/config"
)

// StoreChecker exposes the store probes the worker runs
type StoreChecker interface {
	Ping(ctx context.Context) error
	VerifyReportIndex(ctx context.Context) error
}

// HealthWorker periodically verifies store connectivity and the composite
// index the batched condition queries depend on. A dropped index is a
// deployment problem that would otherwise only surface as slow or failing
// listings, so the worker keeps the actionable diagnostic in the logs.
type HealthWorker struct {
	store   StoreChecker
	config  *config.WorkerConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewHealthWorker creates a new store health worker
func NewHealthWorker(store StoreChecker, cfg *config.WorkerConfig, logger *slog.Logger) *HealthWorker {
	return &HealthWorker{
		store:  store,
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins the background check loop
func (w *HealthWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("health worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background check loop
func (w *HealthWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("health worker stopped")
	return nil
}

// run is the main worker loop
func (w *HealthWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check runs a single round of store probes
func (w *HealthWorker) Check(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := w.store.Ping(checkCtx); err != nil {
		w.logger.Error("store unreachable", "error", err)
		return
	}

	if err := w.store.VerifyReportIndex(checkCtx); err != nil {
		w.logger.Error("report index check failed", "error", err)
	}
}
