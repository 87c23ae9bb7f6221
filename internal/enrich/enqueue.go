package enrich

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/lead-enrichment/internal/model"
	"github.com/sells-group/lead-enrichment/internal/queue"
	"github.com/sells-group/lead-enrichment/internal/resilience"
	"github.com/sells-group/lead-enrichment/internal/store"
)

// enqueueRetry bounds the in-process retries around a single Enqueue call.
// The resilience defaults are sized for exactly this spot: a broker hiccup
// is retried briefly, and anything still failing leaves the task pending
// for the reconcile poller.
var enqueueRetry = resilience.RetryConfig{
	OnRetry: resilience.RetryLogger("queue", "enqueue"),
}

// enqueueTask submits one task to the queue and records the job handle on the
// task row. Failures are logged, not returned: the task row is already
// committed as pending and the reconcile poller will re-submit it. Reports
// whether the message made it onto the queue.
func enqueueTask(ctx context.Context, q queue.Queue, st store.Store, task model.EnrichmentTask) bool {
	jobID, err := resilience.DoVal(ctx, enqueueRetry, func(ctx context.Context) (string, error) {
		return q.Enqueue(ctx, queue.Message{
			TaskID: task.ID,
			LeadID: task.LeadID,
			Kind:   task.Kind,
		})
	})
	if err != nil {
		zap.L().Warn("enqueue failed, task left pending for reconcile",
			zap.String("task_id", task.ID),
			zap.String("kind", string(task.Kind)),
			zap.Error(err),
		)
		return false
	}

	if err := st.SetTaskJobID(ctx, task.ID, jobID); err != nil {
		zap.L().Warn("could not record job ID",
			zap.String("task_id", task.ID),
			zap.String("job_id", jobID),
			zap.Error(err),
		)
	}
	return true
}
