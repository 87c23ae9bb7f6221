// Package monitoring summarizes lead and task state from the store and raises
// alerts when the system looks unhealthy.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-enrichment/internal/model"
)

// MetricsSnapshot holds a point-in-time view of enrichment health.
type MetricsSnapshot struct {
	LeadsTotal    int                            `json:"leads_total"`
	LeadsByStatus map[model.EnrichmentStatus]int `json:"leads_by_status"`

	TasksTotal  int                                           `json:"tasks_total"`
	TasksByKind map[model.Kind]map[model.EnrichmentStatus]int `json:"tasks_by_kind"`

	TasksPending    int `json:"tasks_pending"`
	TasksProcessing int `json:"tasks_processing"`
	TasksCompleted  int `json:"tasks_completed"`
	TasksFailed     int `json:"tasks_failed"`

	// TaskFailRate is failed / (failed + completed). Zero when nothing has
	// finished yet.
	TaskFailRate float64 `json:"task_fail_rate"`

	CollectedAt time.Time `json:"collected_at"`
}

// Counter is the slice of the store the collector needs.
type Counter interface {
	CountLeadsByStatus(ctx context.Context) (map[model.EnrichmentStatus]int, error)
	CountTasksByKindStatus(ctx context.Context) (map[model.Kind]map[model.EnrichmentStatus]int, error)
}

// Collector gathers metrics from the store.
type Collector struct {
	store Counter
}

// NewCollector creates a metrics collector.
func NewCollector(st Counter) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot of lead and task counts.
func (c *Collector) Collect(ctx context.Context) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{CollectedAt: time.Now().UTC()}

	leads, err := c.store.CountLeadsByStatus(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: collect lead counts")
	}
	snap.LeadsByStatus = leads
	for _, n := range leads {
		snap.LeadsTotal += n
	}

	tasks, err := c.store.CountTasksByKindStatus(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: collect task counts")
	}
	snap.TasksByKind = tasks
	for _, byStatus := range tasks {
		for status, n := range byStatus {
			snap.TasksTotal += n
			switch status {
			case model.StatusPending:
				snap.TasksPending += n
			case model.StatusProcessing:
				snap.TasksProcessing += n
			case model.StatusCompleted:
				snap.TasksCompleted += n
			case model.StatusFailed:
				snap.TasksFailed += n
			}
		}
	}

	if finished := snap.TasksCompleted + snap.TasksFailed; finished > 0 {
		snap.TaskFailRate = float64(snap.TasksFailed) / float64(finished)
	}

	return snap, nil
}
