package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/KhakiSkech/SOLAPI-alert/internal/apperrors"
	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
	"github.com/KhakiSkech/SOLAPI-alert/internal/observer"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/logger"
	"github.com/KhakiSkech/SOLAPI-alert/pkg/utils"
)

// --- Webhook Token Repository Methods ---

// EnsureTokenSet returns the tenant's webhook token set, creating it from the
// candidate set if none exists yet. The set row and its three reverse index
// rows are written in one transaction; concurrent callers converge on the
// winner's tokens.
func (r *PostgresRepo) EnsureTokenSet(ctx context.Context, candidate model.WebhookTokenSet) (*model.WebhookTokenSet, error) {
	if candidate.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant id is required", apperrors.ErrBadRequest)
	}

	var existing model.WebhookTokenSet

	operation := func() error {
		tx := r.db.WithContext(ctx).Begin()
		if tx.Error != nil {
			return fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrDatabase, tx.Error)
		}
		var txErr error
		defer func() {
			if p := recover(); p != nil {
				tx.Rollback()
				panic(p)
			} else if txErr != nil {
				if rbErr := tx.Rollback().Error; rbErr != nil {
					logger.FromContext(ctx).Error("Failed to rollback transaction after error", zap.Error(rbErr), zap.NamedError("originalTxError", txErr))
				}
			}
		}()

		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ?", candidate.TenantID).
			First(&existing)
		findErr := result.Error

		if findErr == nil {
			// Tokens already issued; the candidate is discarded.
			if commitErr := tx.Commit().Error; commitErr != nil {
				txErr = fmt.Errorf("%w: failed to commit token lookup: %w", apperrors.ErrDatabase, commitErr)
				return txErr
			}
			return nil
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			txErr = fmt.Errorf("%w: failed to lock token set row: %w", apperrors.ErrDatabase, findErr)
			return txErr
		}

		if createErr := tx.Create(&candidate).Error; createErr != nil {
			txErr = checkConstraintViolation(createErr)
			return txErr
		}

		entries := []model.WebhookTokenIndexEntry{
			{Token: candidate.Meta, TenantID: candidate.TenantID, Platform: model.PlatformMeta},
			{Token: candidate.Google, TenantID: candidate.TenantID, Platform: model.PlatformGoogle},
			{Token: candidate.TikTok, TenantID: candidate.TenantID, Platform: model.PlatformTikTok},
		}
		if createErr := tx.Create(&entries).Error; createErr != nil {
			txErr = checkConstraintViolation(createErr)
			return txErr
		}

		if commitErr := tx.Commit().Error; commitErr != nil {
			txErr = fmt.Errorf("%w: failed to commit token set: %w", apperrors.ErrDatabase, commitErr)
			return txErr
		}
		existing = candidate
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, commitPolicy, "EnsureTokenSet Commit", operation)
	observer.ObserveDbOperationDuration("ensure", "token_set", candidate.TenantID, time.Since(startTime), err)
	if err != nil {
		// A concurrent writer may have won the insert race; re-read once.
		if apperrors.IsDuplicateError(err) {
			return r.FindTokenSet(ctx, candidate.TenantID)
		}
		logger.FromContext(ctx).Error("Failed to ensure token set after retries", zap.Error(err))
		return nil, err
	}
	return &existing, nil
}

// FindTokenSet loads the webhook token set for a tenant.
func (r *PostgresRepo) FindTokenSet(ctx context.Context, tenantID string) (*model.WebhookTokenSet, error) {
	var set model.WebhookTokenSet

	operation := func() error {
		return r.db.WithContext(ctx).
			Where("tenant_id = ?", tenantID).
			First(&set).Error
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, readPolicy, "FindTokenSet", operation)
	observer.ObserveDbOperationDuration("find", "token_set", tenantID, time.Since(startTime), err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: token set for tenant %s", apperrors.ErrNotFound, tenantID)
		}
		logger.FromContext(ctx).Error("Failed to find token set", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to find token set: %w", apperrors.ErrDatabase, err)
	}
	return &set, nil
}

// ResolveToken maps an opaque webhook token to its owning tenant and
// platform. Unknown tokens return ErrNotFound; callers must not reveal to
// the requester whether the token or the signature was the problem.
func (r *PostgresRepo) ResolveToken(ctx context.Context, token string) (*model.WebhookTokenIndexEntry, error) {
	var entry model.WebhookTokenIndexEntry

	operation := func() error {
		return r.db.WithContext(ctx).
			Where("token = ?", token).
			First(&entry).Error
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, readPolicy, "ResolveToken", operation)
	observer.ObserveDbOperationDuration("resolve", "token", entry.TenantID, time.Since(startTime), err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown webhook token", apperrors.ErrNotFound)
		}
		logger.FromContext(ctx).Error("Failed to resolve webhook token", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to resolve token: %w", apperrors.ErrDatabase, err)
	}
	return &entry, nil
}
