package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/KhakiSkech/SOLAPI-alert/internal/config"
	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
	"github.com/KhakiSkech/SOLAPI-alert/internal/observer"
	"github.com/KhakiSkech/SOLAPI-alert/internal/storage"
)

// LogTaskData holds one dispatch outcome to persist.
type LogTaskData struct {
	Ctx   context.Context // Context derived for the task, NOT the original request context
	Entry model.WebhookLog
}

// ILogWorker defines the interface for the webhook log worker pool.
type ILogWorker interface {
	SubmitTask(taskData LogTaskData) error
	Stop()
}

// LogWorker persists webhook logs off the request path. A slow or failing
// database must never delay the webhook acknowledgement, so writes go
// through a bounded worker pool and failures are logged and dropped.
type LogWorker struct {
	pool       *ants.PoolWithFunc
	logRepo    storage.WebhookLogRepo
	cfg        config.LogWorkerPoolConfig
	baseLogger *zap.Logger
}

// Ensure LogWorker implements ILogWorker
var _ ILogWorker = (*LogWorker)(nil)

const logWriteTimeout = 10 * time.Second

// NewLogWorker creates and initializes the webhook log worker pool.
func NewLogWorker(cfg config.LogWorkerPoolConfig, logRepo storage.WebhookLogRepo, baseLogger *zap.Logger) (*LogWorker, error) {
	worker := &LogWorker{
		logRepo:    logRepo,
		cfg:        cfg,
		baseLogger: baseLogger.Named("log_worker"),
	}

	pool, err := ants.NewPoolWithFunc(cfg.PoolSize, func(i interface{}) {
		taskData, ok := i.(LogTaskData)
		if !ok {
			worker.baseLogger.Error("Invalid task data type received", zap.Any("data", i))
			return
		}
		worker.processLogTask(taskData)
	},
		ants.WithExpiryDuration(cfg.ExpiryTime),
		ants.WithNonblocking(true), // Drop rather than block the webhook path
		ants.WithMaxBlockingTasks(cfg.QueueSize),
		ants.WithPanicHandler(func(err interface{}) {
			worker.baseLogger.Error("Panic recovered in log worker", zap.Any("panic_error", err), zap.Stack("stack"))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create log worker pool: %w", err)
	}
	worker.pool = pool
	worker.baseLogger.Info("Webhook log worker pool initialized",
		zap.Int("pool_size", cfg.PoolSize),
		zap.Int("queue_size", cfg.QueueSize),
		zap.Duration("expiry_time", cfg.ExpiryTime),
	)
	return worker, nil
}

// SubmitTask queues one log write. Pool overload drops the entry; the
// dispatch outcome was already decided, only its audit trail is lost.
func (w *LogWorker) SubmitTask(taskData LogTaskData) error {
	observer.IncLogWorkerTasksSubmitted(taskData.Entry.TenantID)
	observer.SetLogWorkerQueueLength(w.pool.Waiting())

	if err := w.pool.Invoke(taskData); err != nil {
		observer.IncLogWorkerTasksDropped(taskData.Entry.TenantID)
		w.baseLogger.Warn("Failed to submit webhook log to pool",
			zap.String("tenant_id", taskData.Entry.TenantID),
			zap.String("lead_id", taskData.Entry.LeadID),
			zap.Error(err),
		)
		if errors.Is(err, ants.ErrPoolOverload) {
			return fmt.Errorf("log pool overload: %w", err)
		}
		return fmt.Errorf("failed to invoke log task: %w", err)
	}
	return nil
}

func (w *LogWorker) processLogTask(taskData LogTaskData) {
	ctx := taskData.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, logWriteTimeout)
	defer cancel()

	if err := w.logRepo.Save(ctx, taskData.Entry); err != nil {
		// Log failures are swallowed; the webhook was already acknowledged.
		w.baseLogger.Warn("Failed to persist webhook log",
			zap.String("tenant_id", taskData.Entry.TenantID),
			zap.String("lead_id", taskData.Entry.LeadID),
			zap.Error(err),
		)
	}
}

// Stop releases the worker pool, waiting briefly for queued writes.
func (w *LogWorker) Stop() {
	w.baseLogger.Info("Stopping webhook log worker pool")
	w.pool.Release()
}
