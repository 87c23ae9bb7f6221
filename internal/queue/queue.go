// Package queue provides the durable work-queue abstraction between the
// dispatcher and the worker pool. Delivery is at-least-once: a message that
// is not acknowledged (handler returned an error, or the worker crashed) is
// redelivered. No ordering is guaranteed across messages.
package queue

import (
	"context"

	"github.com/sells-group/lead-enrichment/internal/model"
)

// Message is one unit of enrichment work handed to a worker.
type Message struct {
	TaskID string     `json:"task_id"`
	LeadID string     `json:"lead_id"`
	Kind   model.Kind `json:"kind"`

	// JobID is the handle assigned at enqueue time and recorded on the task.
	JobID string `json:"job_id"`
}

// Handler processes one delivered message. Returning an error leaves the
// message unacknowledged so it will be redelivered.
type Handler func(ctx context.Context, msg Message) error

// Queue is the work-queue contract the orchestrator depends on.
type Queue interface {
	// Enqueue submits a message and returns the external job handle.
	Enqueue(ctx context.Context, msg Message) (string, error)

	// Consume delivers messages to fn until ctx is canceled. Each message
	// goes to exactly one consumer at a time.
	Consume(ctx context.Context, fn Handler) error

	Close() error
}
