package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-enrichment/internal/queue"
	"github.com/sells-group/lead-enrichment/internal/store"
)

// WorkerConfig controls the consumer pool and the reconcile poller.
type WorkerConfig struct {
	// Count is the number of concurrent queue consumers.
	Count int `yaml:"count" mapstructure:"count"`
	// ReconcileInterval is how often orphaned tasks are re-submitted.
	ReconcileInterval time.Duration `yaml:"reconcile_interval" mapstructure:"reconcile_interval"`
	// StaleAfter is the age at which an unresolved task counts as orphaned.
	// Must exceed the provider timeout, or in-flight tasks get reset mid-run.
	StaleAfter time.Duration `yaml:"stale_after" mapstructure:"stale_after"`
	// ReconcileBatch caps how many stale tasks one tick re-submits.
	ReconcileBatch int `yaml:"reconcile_batch" mapstructure:"reconcile_batch"`
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.Count <= 0 {
		c.Count = 4
	}
	if c.ReconcileInterval <= 0 {
		c.ReconcileInterval = 1 * time.Minute
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 5 * time.Minute
	}
	if c.ReconcileBatch <= 0 {
		c.ReconcileBatch = 100
	}
	return c
}

// Worker runs the consumer pool plus a reconcile loop that rescues two kinds
// of orphaned task: pending tasks whose queue message was lost (enqueue
// failure, broker data loss), and processing tasks whose outcome was never
// written (worker crash, store outage during the outcome write).
type Worker struct {
	store    store.Store
	queue    queue.Queue
	executor *Executor
	cfg      WorkerConfig
}

// NewWorker creates a worker pool.
func NewWorker(st store.Store, q queue.Queue, ex *Executor, cfg WorkerConfig) *Worker {
	return &Worker{store: st, queue: q, executor: ex, cfg: cfg.withDefaults()}
}

// Run blocks until ctx is canceled or a consumer returns a hard error.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	zap.L().Info("worker pool starting",
		zap.Int("consumers", w.cfg.Count),
		zap.Duration("reconcile_interval", w.cfg.ReconcileInterval),
	)

	for i := 0; i < w.cfg.Count; i++ {
		g.Go(func() error {
			return w.queue.Consume(ctx, w.executor.Execute)
		})
	}

	g.Go(func() error {
		w.reconcileLoop(ctx)
		return nil
	})

	return g.Wait()
}

func (w *Worker) reconcileLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.reconcile(ctx)
		}
	}
}

// reconcile re-submits stale pending tasks and resets stale processing ones.
// A pending task that is still queued and merely slow gets a duplicate
// delivery, which the processing claim absorbs. A processing task past the
// stale age has lost its worker: its claim blocks redelivery from resolving
// it, so the claim is released and the task re-enqueued.
func (w *Worker) reconcile(ctx context.Context) {
	stale, err := w.store.ListStalePending(ctx, w.cfg.StaleAfter, w.cfg.ReconcileBatch)
	if err != nil {
		zap.L().Error("reconcile: list stale pending tasks", zap.Error(err))
		return
	}
	if len(stale) > 0 {
		zap.L().Info("reconcile: re-submitting stale pending tasks",
			zap.Int("task_count", len(stale)),
		)
		for _, task := range stale {
			enqueueTask(ctx, w.queue, w.store, task)
		}
	}

	orphaned, err := w.store.ResetStaleProcessing(ctx, w.cfg.StaleAfter, w.cfg.ReconcileBatch)
	if err != nil {
		zap.L().Error("reconcile: reset stale processing tasks", zap.Error(err))
		return
	}
	if len(orphaned) > 0 {
		zap.L().Warn("reconcile: re-submitting orphaned processing tasks",
			zap.Int("task_count", len(orphaned)),
		)
		for _, task := range orphaned {
			enqueueTask(ctx, w.queue, w.store, task)
		}
	}
}
