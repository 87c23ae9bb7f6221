package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaConfig holds connection settings for the Kafka-backed queue.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" mapstructure:"brokers"`
	Topic   string   `yaml:"topic" mapstructure:"topic"`
	GroupID string   `yaml:"group_id" mapstructure:"group_id"`
}

// KafkaQueue implements Queue on top of a Kafka topic. Offsets are committed
// only after the handler succeeds, so an unprocessed message is redelivered
// to the consumer group after a restart or rebalance.
type KafkaQueue struct {
	writer *kafka.Writer
	reader *kafka.Reader
}

// NewKafka creates a Kafka-backed work queue.
func NewKafka(cfg KafkaConfig) *KafkaQueue {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
		// Manual commits only: the offset moves when a task outcome is
		// durably recorded, not when the message is read.
		CommitInterval: 0,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        1 * time.Second,
	})
	return &KafkaQueue{writer: writer, reader: reader}
}

func (q *KafkaQueue) Enqueue(ctx context.Context, msg Message) (string, error) {
	if msg.JobID == "" {
		msg.JobID = uuid.New().String()
	}

	value, err := json.Marshal(msg)
	if err != nil {
		return "", eris.Wrap(err, "queue: marshal message")
	}

	err = q.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.LeadID),
		Value: value,
	})
	if err != nil {
		return "", eris.Wrapf(err, "queue: enqueue task %s", msg.TaskID)
	}
	return msg.JobID, nil
}

func (q *KafkaQueue) Consume(ctx context.Context, fn Handler) error {
	for {
		km, err := q.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return eris.Wrap(err, "queue: fetch message")
		}

		var msg Message
		if err := json.Unmarshal(km.Value, &msg); err != nil {
			// A malformed message can never succeed; commit it so it does
			// not wedge the partition.
			zap.L().Error("queue: dropping malformed message",
				zap.Int64("offset", km.Offset),
				zap.Error(err),
			)
			if err := q.reader.CommitMessages(ctx, km); err != nil {
				return eris.Wrap(err, "queue: commit malformed message")
			}
			continue
		}

		if err := fn(ctx, msg); err != nil {
			// Leave uncommitted; the group redelivers after restart/rebalance.
			zap.L().Warn("queue: handler failed, message left unacknowledged",
				zap.String("task_id", msg.TaskID),
				zap.Error(err),
			)
			continue
		}

		if err := q.reader.CommitMessages(ctx, km); err != nil {
			return eris.Wrapf(err, "queue: commit task %s", msg.TaskID)
		}
	}
}

func (q *KafkaQueue) Close() error {
	werr := q.writer.Close()
	rerr := q.reader.Close()
	if werr != nil {
		return eris.Wrap(werr, "queue: close writer")
	}
	return eris.Wrap(rerr, "queue: close reader")
}
