package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ktnshm/receipt-scanner/internal/models"
	"github.com/ktnshm/receipt-scanner/internal/service/receipt"
	"github.com/ktnshm/receipt-scanner/pkg/logger"
	"github.com/ktnshm/receipt-scanner/pkg/queue"
	"github.com/ktnshm/receipt-scanner/pkg/storage"
)

// ReceiptWorker consumes queued receipt uploads, runs them through the
// extraction pipeline, and publishes the final status for polling clients.
type ReceiptWorker struct {
	BaseWorker
	service receipt.Processor
	store   storage.Storage
	queue   queue.Queue
}

func NewReceiptWorker(
	cfg *Config,
	svc receipt.Processor,
	store storage.Storage,
	q queue.Queue,
	log logger.Logger,
) (*ReceiptWorker, error) {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues:      cfg.Queues,
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				return time.Duration(n) * time.Minute
			},
		},
	)

	w := &ReceiptWorker{
		BaseWorker: BaseWorker{
			server:   server,
			mux:      asynq.NewServeMux(),
			logger:   log,
			stopChan: make(chan struct{}),
		},
		service: svc,
		store:   store,
		queue:   q,
	}
	w.mux.HandleFunc(queue.TaskTypeReceiptProcess, w.handleReceiptProcess)
	return w, nil
}

func (w *ReceiptWorker) handleReceiptProcess(ctx context.Context, t *asynq.Task) error {
	var task queue.Task
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		w.logger.Error("failed to unmarshal task",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("failed to unmarshal task: %w", err)
	}

	objectKey := task.Payload["object_key"]
	if task.ID == "" || objectKey == "" {
		return fmt.Errorf("invalid task data: missing id or object key")
	}
	mode, ok := models.ParseMode(task.Payload["mode"])
	if !ok {
		mode = models.ModeAuto
	}

	w.logger.Info("processing queued receipt",
		logger.String("taskId", task.ID),
		logger.String("objectKey", objectKey),
		logger.String("mode", string(mode)),
	)

	obj, err := w.store.Get(ctx, objectKey)
	if err != nil {
		return fmt.Errorf("failed to fetch upload: %w", err)
	}
	data, err := io.ReadAll(obj)
	obj.Close()
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}

	result := w.service.ProcessImage(ctx, data, mode)

	envelope, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	status := &queue.TaskStatus{
		TaskID:     task.ID,
		Status:     queue.StatusCompleted,
		Result:     envelope,
		StartedAt:  task.CreatedAt,
		FinishedAt: time.Now().UTC(),
	}
	if !result.Success {
		status.Error = result.Message
	}
	if err := w.queue.SaveFinalStatus(ctx, status); err != nil {
		w.logger.Error("failed to save final status",
			logger.String("taskId", task.ID),
			logger.Error(err),
		)
		return err
	}

	if err := w.store.Delete(ctx, objectKey); err != nil {
		w.logger.Warn("failed to delete processed upload",
			logger.String("objectKey", objectKey),
			logger.Error(err),
		)
	}
	return nil
}

func (w *ReceiptWorker) Start(ctx context.Context) error {
	go func() {
		if err := w.server.Run(w.mux); err != nil {
			w.logger.Error("worker server stopped", logger.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}
