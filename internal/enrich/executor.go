package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrichment/internal/model"
	"github.com/sells-group/lead-enrichment/internal/provider"
	"github.com/sells-group/lead-enrichment/internal/queue"
	"github.com/sells-group/lead-enrichment/internal/store"
)

const defaultProviderTimeout = 30 * time.Second

// Executor runs one enrichment task per queue message. Provider problems of
// any shape (precondition, upstream error, timeout, panic) become recorded
// task failures; only store errors propagate so the message is redelivered.
type Executor struct {
	store    store.Store
	registry *provider.Registry
	timeout  time.Duration
}

// NewExecutor creates an executor. A zero timeout selects the default 30s
// per provider call.
func NewExecutor(st store.Store, reg *provider.Registry, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &Executor{store: st, registry: reg, timeout: timeout}
}

// Execute processes one delivered message.
func (e *Executor) Execute(ctx context.Context, msg queue.Message) error {
	claimed, err := e.store.MarkTaskProcessing(ctx, msg.TaskID)
	if err != nil {
		return eris.Wrapf(err, "enrich: claim task %s", msg.TaskID)
	}
	if !claimed {
		// Duplicate delivery or a task already resolved; drop silently.
		zap.L().Debug("task not pending, skipping",
			zap.String("task_id", msg.TaskID),
		)
		return nil
	}

	lead, err := e.store.GetLead(ctx, msg.LeadID)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			// Lead deleted between dispatch and execution.
			return e.fail(ctx, msg, "lead no longer exists")
		}
		return eris.Wrapf(err, "enrich: load lead %s", msg.LeadID)
	}

	adapter := e.registry.Get(msg.Kind)
	if adapter == nil {
		return e.fail(ctx, msg, fmt.Sprintf("no adapter registered for kind %q", msg.Kind))
	}

	outcome := e.run(ctx, adapter, lead.Snapshot())
	if !outcome.OK {
		zap.L().Info("enrichment failed",
			zap.String("task_id", msg.TaskID),
			zap.String("lead_id", msg.LeadID),
			zap.String("kind", string(msg.Kind)),
			zap.String("reason", outcome.Reason),
		)
		return e.fail(ctx, msg, outcome.Reason)
	}

	if err := e.store.CompleteTask(ctx, msg.TaskID, msg.LeadID, msg.Kind, outcome.Payload, outcome.Updates); err != nil {
		return eris.Wrapf(err, "enrich: complete task %s", msg.TaskID)
	}

	zap.L().Info("enrichment completed",
		zap.String("task_id", msg.TaskID),
		zap.String("lead_id", msg.LeadID),
		zap.String("kind", string(msg.Kind)),
	)
	return nil
}

// run invokes the adapter under the per-call timeout, converting a panic into
// a failure outcome so one bad provider cannot take down a worker.
func (e *Executor) run(ctx context.Context, adapter provider.Adapter, snap model.LeadSnapshot) (out provider.Outcome) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("adapter panicked",
				zap.String("kind", string(adapter.Name())),
				zap.Any("panic", r),
			)
			out = provider.Failure(fmt.Sprintf("adapter panic: %v", r))
		}
	}()

	out = adapter.Enrich(callCtx, snap)
	if !out.OK && callCtx.Err() != nil && ctx.Err() == nil {
		out = provider.Failure(fmt.Sprintf("provider timed out after %s", e.timeout))
	}
	return out
}

// fail records a task failure. Store errors propagate for redelivery.
func (e *Executor) fail(ctx context.Context, msg queue.Message, reason string) error {
	if err := e.store.FailTask(ctx, msg.TaskID, msg.LeadID, reason); err != nil {
		return eris.Wrapf(err, "enrich: fail task %s", msg.TaskID)
	}
	return nil
}
