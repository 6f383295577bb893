package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KhakiSkech/SOLAPI-alert/internal/apperrors"
	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
	"github.com/KhakiSkech/SOLAPI-alert/internal/observer"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/logger"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/utils"
)

// --- Webhook Log Repository Methods ---

// SaveWebhookLog appends one dispatch outcome row. Logs are append-only and
// never updated.
func (r *PostgresRepo) SaveWebhookLog(ctx context.Context, entry model.WebhookLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = utils.Now()
	}

	operation := func() error {
		if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
			return checkConstraintViolation(err)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, commitPolicy, "SaveWebhookLog", operation)
	observer.ObserveDbOperationDuration("save", "webhook_log", entry.TenantID, time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to save webhook log after retries", zap.Error(err))
		return err
	}
	return nil
}

// LogFilter narrows a log listing. Zero values mean no filtering.
type LogFilter struct {
	Platform model.Platform
	Status   string
	Limit    int
	Offset   int
}

const defaultLogLimit = 50

// FindWebhookLogs lists a tenant's dispatch log, newest first.
func (r *PostgresRepo) FindWebhookLogs(ctx context.Context, tenantID string, filter LogFilter) ([]model.WebhookLog, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLogLimit
	}

	var logs []model.WebhookLog
	operation := func() error {
		query := r.db.WithContext(ctx).
			Where("tenant_id = ?", tenantID)
		if filter.Platform != "" {
			query = query.Where("platform = ?", filter.Platform)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		return query.
			Order("timestamp DESC").
			Limit(filter.Limit).
			Offset(filter.Offset).
			Find(&logs).Error
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, readPolicy, "FindWebhookLogs", operation)
	observer.ObserveDbOperationDuration("find", "webhook_log", tenantID, time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to find webhook logs", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to find webhook logs: %w", apperrors.ErrDatabase, err)
	}
	return logs, nil
}

// CountWebhookStats aggregates a tenant's dispatch outcomes since the given
// time. A zero since covers all history.
func (r *PostgresRepo) CountWebhookStats(ctx context.Context, tenantID string, since time.Time) (*model.WebhookStats, error) {
	type statusCount struct {
		Platform string
		Status   string
		Count    int64
	}

	var rows []statusCount
	operation := func() error {
		query := r.db.WithContext(ctx).
			Model(&model.WebhookLog{}).
			Select("platform, status, COUNT(*) AS count").
			Where("tenant_id = ?", tenantID)
		if !since.IsZero() {
			query = query.Where("timestamp >= ?", since)
		}
		return query.Group("platform, status").Scan(&rows).Error
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, readPolicy, "CountWebhookStats", operation)
	observer.ObserveDbOperationDuration("stats", "webhook_log", tenantID, time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to count webhook stats", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to count webhook stats: %w", apperrors.ErrDatabase, err)
	}

	stats := &model.WebhookStats{ByPlatform: make(map[string]int64)}
	for _, row := range rows {
		stats.Total += row.Count
		stats.ByPlatform[row.Platform] += row.Count
		switch row.Status {
		case model.WebhookStatusSuccess:
			stats.Success += row.Count
		case model.WebhookStatusFailed:
			stats.Failed += row.Count
		}
	}
	return stats, nil
}
