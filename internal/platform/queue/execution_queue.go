package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"codeprep/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// ErrEmpty is returned by Dequeue when the blocking pop timed out.
var ErrEmpty = errors.New("queue: no job available")

// ExecutionQueue is a Redis list: producers LPUSH, the worker BRPOPs.
type ExecutionQueue struct {
	rdb  *redis.Client
	name string
}

func NewExecutionQueue(rdb *redis.Client, name string) *ExecutionQueue {
	return &ExecutionQueue{rdb: rdb, name: name}
}

func (q *ExecutionQueue) Enqueue(ctx context.Context, job model.ExecutionJob) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.name, payload).Err(); err != nil {
		return fmt.Errorf("queue: push to %s: %w", q.name, err)
	}
	return nil
}

// Dequeue blocks for up to timeout waiting for a job.
func (q *ExecutionQueue) Dequeue(ctx context.Context, timeout time.Duration) (*model.ExecutionJob, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEmpty
		}
		return nil, err
	}
	// res is [queueName, value]
	if len(res) < 2 || res[1] == "" {
		return nil, ErrEmpty
	}
	var job model.ExecutionJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("queue: malformed job %q: %w", res[1], err)
	}
	return &job, nil
}

func (q *ExecutionQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.name).Result()
}
