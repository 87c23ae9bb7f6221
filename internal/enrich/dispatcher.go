// Package enrich orchestrates lead enrichment: dispatching task batches onto
// the work queue, executing them against provider adapters, and retrying
// failed attempts.
package enrich

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrichment/internal/model"
	"github.com/sells-group/lead-enrichment/internal/queue"
	"github.com/sells-group/lead-enrichment/internal/store"
)

// Dispatcher validates enrichment requests and turns them into queued tasks.
type Dispatcher struct {
	store store.Store
	queue queue.Queue
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(st store.Store, q queue.Queue) *Dispatcher {
	return &Dispatcher{store: st, queue: q}
}

// DispatchResult summarizes an accepted enrichment request.
type DispatchResult struct {
	TaskIDs   []string `json:"task_ids"`
	LeadCount int      `json:"lead_count"`
}

// Dispatch creates one pending task per (lead, kind) pair and enqueues them.
// Validation is all-or-nothing: an unknown kind or a missing lead rejects the
// entire batch before any write. A task whose enqueue fails stays pending and
// is picked up by the reconcile poller.
func (d *Dispatcher) Dispatch(ctx context.Context, leadIDs []string, kinds []model.Kind) (*DispatchResult, error) {
	if len(leadIDs) == 0 {
		return nil, eris.New("enrich: no lead IDs given")
	}
	if len(kinds) == 0 {
		kinds = model.Kinds()
	}
	for _, k := range kinds {
		if _, err := model.ParseKind(string(k)); err != nil {
			return nil, err
		}
	}

	// CreateTasks re-verifies every lead inside its transaction; this
	// pre-check exists to reject the batch with NotFound before any write.
	for _, id := range leadIDs {
		if _, err := d.store.GetLead(ctx, id); err != nil {
			return nil, eris.Wrapf(err, "enrich: validate lead %s", id)
		}
	}

	tasks, err := d.store.CreateTasks(ctx, leadIDs, kinds)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: create tasks")
	}

	taskIDs := make([]string, 0, len(tasks))
	for _, task := range tasks {
		taskIDs = append(taskIDs, task.ID)
		enqueueTask(ctx, d.queue, d.store, task)
	}

	zap.L().Info("enrichment dispatched",
		zap.Int("lead_count", len(leadIDs)),
		zap.Int("task_count", len(tasks)),
	)

	return &DispatchResult{TaskIDs: taskIDs, LeadCount: len(leadIDs)}, nil
}
