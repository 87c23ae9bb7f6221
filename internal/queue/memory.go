package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// redeliveryDelay spaces out redeliveries of a failing message so a
// persistent failure, such as a store outage, does not spin the consumer.
const redeliveryDelay = 50 * time.Millisecond

// MemoryQueue is an in-process Queue for tests and single-binary deployments
// where the API server and workers share a process. It preserves the
// at-least-once contract by re-enqueueing messages whose handler failed.
type MemoryQueue struct {
	ch chan Message
}

// NewMemory creates an in-process queue with the given buffer size.
func NewMemory(buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = 1024
	}
	return &MemoryQueue{ch: make(chan Message, buffer)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, msg Message) (string, error) {
	if msg.JobID == "" {
		msg.JobID = uuid.New().String()
	}
	select {
	case q.ch <- msg:
		return msg.JobID, nil
	case <-ctx.Done():
		return "", eris.Wrap(ctx.Err(), "queue: enqueue")
	default:
		return "", eris.Errorf("queue: buffer full, task %s not enqueued", msg.TaskID)
	}
}

func (q *MemoryQueue) Consume(ctx context.Context, fn Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-q.ch:
			if err := fn(ctx, msg); err != nil {
				zap.L().Warn("queue: handler failed, re-enqueueing",
					zap.String("task_id", msg.TaskID),
					zap.Error(err),
				)
				timer := time.NewTimer(redeliveryDelay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return nil
				case <-timer.C:
				}
				select {
				case q.ch <- msg:
				default:
					zap.L().Error("queue: buffer full, message dropped",
						zap.String("task_id", msg.TaskID),
					)
				}
			}
		}
	}
}

func (q *MemoryQueue) Len() int {
	return len(q.ch)
}

func (q *MemoryQueue) Close() error {
	return nil
}
