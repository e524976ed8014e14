// Package queue is the work-queue transport between the Fan-out Intake
// (C5) and the Worker (C6). The Scheduler (C7) reaches it only through
// Intake; its periodic tick runs on asynq (internal/infrastructure/tasks).
//
// Adapted from the teacher's internal/infrastructure/services/worker_queue.go
// BRPOPLPUSH job queue, narrowed to this spec's single message shape and
// at-least-once/ack-on-clean-return semantics (spec §4.5, §4.6).
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	queueKeyPrefix      = "posting:queue:"
	processingKeyPrefix = "posting:processing:"
	jobDataKeyPrefix    = "posting:job:"
	jobTTL              = 24 * time.Hour
)

// Message is the single job shape spec §4.5 names: one per destination.
type Message struct {
	JobID            string         `json:"job_id"`
	RequestID        string         `json:"request_id"`
	UserID           string         `json:"user_id"`
	Destination      string         `json:"destination"`
	VideoURL         string         `json:"video_url"`
	Caption          string         `json:"caption"`
	PlatformSettings map[string]any `json:"platform_settings,omitempty"`
	EnqueuedAt       time.Time      `json:"enqueued_at"`
}

// Queue is a single named Redis list pair (pending + in-flight) carrying
// Messages, with BRPOPLPUSH-based at-least-once delivery.
type Queue struct {
	client *redis.Client
	name   string
}

// New builds a Queue bound to the given logical queue name (spec §6's
// POSTING_QUEUE_URL).
func New(client *redis.Client, name string) *Queue {
	return &Queue{client: client, name: name}
}

// Enqueue stores the message body and pushes its job id onto the pending
// list. Used by Intake (spec §4.5): if any one destination's Enqueue call
// fails mid fan-out, the caller is expected to roll the whole submit back.
func (q *Queue) Enqueue(ctx context.Context, msg Message) (string, error) {
	if msg.JobID == "" {
		msg.JobID = uuid.NewString()
	}
	if msg.EnqueuedAt.IsZero() {
		msg.EnqueuedAt = time.Now().UTC()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("queue: marshal message: %w", err)
	}

	dataKey := jobDataKeyPrefix + msg.JobID
	if err := q.client.Set(ctx, dataKey, data, jobTTL).Err(); err != nil {
		return "", fmt.Errorf("queue: store message: %w", err)
	}

	pendingKey := queueKeyPrefix + q.name
	if err := q.client.RPush(ctx, pendingKey, msg.JobID).Err(); err != nil {
		q.client.Del(ctx, dataKey)
		return "", fmt.Errorf("queue: enqueue: %w", err)
	}
	return msg.JobID, nil
}

// Dequeue blocks up to timeout for the next message, atomically moving
// its id from the pending list to the in-flight list (BRPOPLPUSH). A nil,
// nil return means the wait elapsed with nothing available.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Message, error) {
	pendingKey := queueKeyPrefix + q.name
	processingKey := processingKeyPrefix + q.name

	jobID, err := q.client.BRPopLPush(ctx, pendingKey, processingKey, timeout).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("queue: dequeue: %w", err)
	}

	dataKey := jobDataKeyPrefix + jobID
	data, err := q.client.Get(ctx, dataKey).Result()
	if err == redis.Nil {
		q.client.LRem(ctx, processingKey, 1, jobID)
		return nil, fmt.Errorf("queue: message data expired for job %s", jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("queue: load message: %w", err)
	}

	var msg Message
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		return nil, fmt.Errorf("queue: decode message: %w", err)
	}
	return &msg, nil
}

// Ack removes a delivered message from the in-flight list and deletes its
// stored body. Called on any clean worker return — success or a recorded
// adapter failure both ack; spec §4.6 never requeues on adapter error.
func (q *Queue) Ack(ctx context.Context, jobID string) error {
	processingKey := processingKeyPrefix + q.name
	if err := q.client.LRem(ctx, processingKey, 1, jobID).Err(); err != nil {
		return fmt.Errorf("queue: ack: %w", err)
	}
	q.client.Del(ctx, jobDataKeyPrefix+jobID)
	return nil
}

// PendingLength reports how many messages are waiting to be dequeued.
func (q *Queue) PendingLength(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, queueKeyPrefix+q.name).Result()
}
