package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	cfg "github.com/ktnshm/receipt-scanner/config"
)

// TaskTypeReceiptProcess is the asynq task type for one queued receipt.
const TaskTypeReceiptProcess = "receipt:process"

// Task statuses reported to clients polling a batch job.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Queue is the batch job transport between the API server and the worker.
type Queue interface {
	Enqueue(ctx context.Context, task *Task) error
	GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error)
	CancelTask(ctx context.Context, taskID string) error
	SaveFinalStatus(ctx context.Context, status *TaskStatus) error
}

// Task is one queued receipt. Payload carries the storage object key and
// the requested processing mode.
type Task struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Payload   map[string]string `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt"`
}

// TaskStatus is the client-visible state of a batch job. Result holds the
// extraction envelope once the worker finishes.
type TaskStatus struct {
	TaskID     string          `json:"taskId"`
	Status     string          `json:"status"`
	Error      string          `json:"error,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt,omitempty"`
}

// AsynqQueue backs the Queue interface with asynq and redis. Final
// statuses are written to redis directly so they survive asynq's task
// retention window.
type AsynqQueue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	redis     *redis.Client
	timeout   time.Duration
	retries   int
}

// GetQueue creates a queue from the environment redis configuration.
func GetQueue() (*AsynqQueue, error) {
	return NewAsynqQueue(cfg.GetRedisConfig())
}

// NewAsynqQueue creates the queue client side: enqueue, inspect, cancel.
// The consuming server lives in pkg/worker.
func NewAsynqQueue(rc *cfg.RedisConfig) (*AsynqQueue, error) {
	redisOpt := asynq.RedisClientOpt{Addr: rc.Addr, DB: rc.DB}
	return &AsynqQueue{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		redis:     redis.NewClient(&redis.Options{Addr: rc.Addr, DB: rc.DB}),
		timeout:   rc.ProcessTimeout,
		retries:   rc.MaxRetries,
	}, nil
}

// Enqueue serializes the task and hands it to asynq under the task's own ID.
func (q *AsynqQueue) Enqueue(ctx context.Context, task *Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	opts := []asynq.Option{
		asynq.MaxRetry(q.retries),
		asynq.Timeout(q.timeout),
		asynq.TaskID(task.ID),
	}
	t := asynq.NewTask(task.Type, payload, opts...)
	info, err := q.client.EnqueueContext(ctx, t)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	task.ID = info.ID
	return nil
}

// GetTaskStatus reads the saved final status, falling back to asynq's view
// of the task while it is still in flight.
func (q *AsynqQueue) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	data, err := q.redis.Get(ctx, statusKey(taskID)).Bytes()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get status from redis: %w", err)
	}
	if err == nil {
		var status TaskStatus
		if err := json.Unmarshal(data, &status); err != nil {
			return nil, fmt.Errorf("failed to unmarshal status: %w", err)
		}
		return &status, nil
	}

	info, err := q.inspector.GetTaskInfo("default", taskID)
	if err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}
	return convertAsynqStatus(info), nil
}

// CancelTask removes a pending task from the queue.
func (q *AsynqQueue) CancelTask(ctx context.Context, taskID string) error {
	if err := q.inspector.DeleteTask("default", taskID); err != nil {
		return fmt.Errorf("failed to cancel task: %w", err)
	}
	return nil
}

// SaveFinalStatus persists a terminal status for a day so clients can poll
// after the task leaves asynq.
func (q *AsynqQueue) SaveFinalStatus(ctx context.Context, status *TaskStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	if err := q.redis.Set(ctx, statusKey(status.TaskID), data, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to save status: %w", err)
	}
	return nil
}

func statusKey(taskID string) string {
	return fmt.Sprintf("task_status:%s", taskID)
}

func convertAsynqStatus(info *asynq.TaskInfo) *TaskStatus {
	status := &TaskStatus{
		TaskID:    info.ID,
		StartedAt: info.NextProcessAt,
	}
	switch info.State {
	case asynq.TaskStatePending:
		status.Status = StatusPending
	case asynq.TaskStateActive:
		status.Status = StatusRunning
	case asynq.TaskStateCompleted:
		status.Status = StatusCompleted
		status.FinishedAt = info.CompletedAt
	case asynq.TaskStateRetry, asynq.TaskStateArchived:
		status.Status = StatusFailed
		status.Error = info.LastErr
	default:
		status.Status = StatusPending
	}
	return status
}
