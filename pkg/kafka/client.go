// Package kafka carries index rebuild tasks between the API and the rebuild worker.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"agentic-rag-go/internal/config"
	"agentic-rag-go/pkg/database"
	"agentic-rag-go/pkg/log"
	"agentic-rag-go/pkg/tasks"

	"github.com/segmentio/kafka-go"
)

// maxAttempts is how often a failing task is tried before its offset is committed anyway.
const maxAttempts = 3

// TaskProcessor handles one rebuild task.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.IndexRebuildTask) error
}

// Producer publishes rebuild tasks.
type Producer struct {
	writer *kafka.Writer
}

func brokers(cfg config.KafkaConfig) []string {
	var out []string
	for _, b := range strings.Split(cfg.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// NewProducer creates a producer for cfg.Topic.
func NewProducer(cfg config.KafkaConfig) *Producer {
	log.Info("Kafka producer initialized")
	return &Producer{writer: &kafka.Writer{
		Addr:     kafka.TCP(brokers(cfg)...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}}
}

// PublishRebuild sends task, keyed by its id.
func (p *Producer) PublishRebuild(ctx context.Context, task tasks.IndexRebuildTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(task.TaskID), Value: taskBytes})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// StartConsumer processes rebuild tasks until ctx is cancelled. A failing task is retried in
// place up to maxAttempts times and then committed so the queue keeps moving. Attempts are
// counted in Redis when available, so a task that keeps crashing the worker is also dropped
// after maxAttempts redeliveries.
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor TaskProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers(cfg),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Errorf("failed to close kafka consumer: %v", err)
		}
	}()

	log.Infof("Kafka consumer started, listening on topic '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Info("Kafka consumer stopped")
			} else {
				log.Error("failed to read kafka message", err)
			}
			return
		}

		var task tasks.IndexRebuildTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("cannot decode kafka message: %v, value: %s", err, string(m.Value))
			commit(ctx, r, m)
			continue
		}

		log.Infof("rebuild task received: id=%s reason=%s offset=%d", task.TaskID, task.Reason, m.Offset)
		if err := processTask(ctx, processor, task); err != nil {
			if ctx.Err() != nil {
				// uncommitted, redelivered after restart
				log.Warnf("rebuild task interrupted by shutdown: id=%s", task.TaskID)
				return
			}
			log.Errorf("rebuild task failed %d times, committing offset: id=%s error=%v", maxAttempts, task.TaskID, err)
		} else {
			log.Infof("rebuild task done: id=%s", task.TaskID)
		}
		if database.RDB != nil {
			_ = database.RDB.Del(ctx, attemptsKey(task.TaskID)).Err()
		}
		commit(ctx, r, m)
	}
}

// retryBackoff is the pause between attempts of a failing task.
var retryBackoff = 2 * time.Second

// processTask runs task until it succeeds, its attempts are used up or ctx ends, and returns
// the last error.
func processTask(ctx context.Context, processor TaskProcessor, task tasks.IndexRebuildTask) error {
	attempt := 0
	for {
		attempt = nextAttempt(ctx, task.TaskID, attempt)
		if attempt > maxAttempts {
			return fmt.Errorf("task %s exceeded %d attempts", task.TaskID, maxAttempts)
		}
		err := processor.Process(ctx, task)
		if err == nil {
			return nil
		}
		log.Errorf("rebuild task attempt %d failed: id=%s error=%v", attempt, task.TaskID, err)
		if attempt >= maxAttempts || ctx.Err() != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(retryBackoff):
		}
	}
}

func attemptsKey(taskID string) string {
	return fmt.Sprintf("kafka:attempts:%s", taskID)
}

// nextAttempt returns the number of the attempt about to start. Without Redis, or when Redis
// fails, the count is local to this delivery.
func nextAttempt(ctx context.Context, taskID string, local int) int {
	if database.RDB == nil {
		return local + 1
	}
	key := attemptsKey(taskID)
	n, err := database.RDB.Incr(ctx, key).Result()
	if err != nil {
		return local + 1
	}
	_ = database.RDB.Expire(ctx, key, 24*time.Hour).Err()
	return int(n)
}

func commit(ctx context.Context, r *kafka.Reader, m kafka.Message) {
	if err := r.CommitMessages(ctx, m); err != nil {
		log.Errorf("failed to commit kafka offset: %v", err)
	}
}
