package enrich

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrichment/internal/queue"
	"github.com/sells-group/lead-enrichment/internal/store"
)

// Retrier re-runs a lead's failed enrichment tasks. Reset and re-enqueue
// reuse the existing task rows so the audit trail stays on the same IDs.
type Retrier struct {
	store store.Store
	queue queue.Queue
}

// NewRetrier creates a retrier.
func NewRetrier(st store.Store, q queue.Queue) *Retrier {
	return &Retrier{store: st, queue: q}
}

// RetryResult summarizes a retry request.
type RetryResult struct {
	TaskIDs []string `json:"task_ids"`
}

// Retry resets every failed task of the lead back to pending and enqueues
// them again. Completed tasks are untouched. A lead with no failed tasks
// yields an empty result and no side effects.
func (r *Retrier) Retry(ctx context.Context, leadID string) (*RetryResult, error) {
	if _, err := r.store.GetLead(ctx, leadID); err != nil {
		return nil, eris.Wrapf(err, "enrich: retry lead %s", leadID)
	}

	reset, err := r.store.ResetFailedTasks(ctx, leadID)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: reset failed tasks for lead %s", leadID)
	}
	if len(reset) == 0 {
		return &RetryResult{TaskIDs: []string{}}, nil
	}

	taskIDs := make([]string, 0, len(reset))
	for _, task := range reset {
		taskIDs = append(taskIDs, task.ID)
		enqueueTask(ctx, r.queue, r.store, task)
	}

	zap.L().Info("failed tasks requeued",
		zap.String("lead_id", leadID),
		zap.Int("task_count", len(reset)),
	)

	return &RetryResult{TaskIDs: taskIDs}, nil
}
