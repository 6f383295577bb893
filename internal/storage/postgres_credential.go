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

// --- Credential Repository Methods ---

// applySections merges the provided bundle sections into the row, encrypting
// secret columns. Sections absent from the bundle are left untouched.
func (r *PostgresRepo) applySections(row *model.TenantCredential, bundle *model.CredentialBundle) error {
	if bundle.Solapi != nil {
		apiKey, err := r.cipher.Encrypt(bundle.Solapi.APIKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt solapi api key: %w", err)
		}
		apiSecret, err := r.cipher.Encrypt(bundle.Solapi.APISecret)
		if err != nil {
			return fmt.Errorf("failed to encrypt solapi api secret: %w", err)
		}
		row.SolapiAPIKey = apiKey
		row.SolapiAPISecret = apiSecret
		row.SolapiSenderNumber = bundle.Solapi.SenderNumber
	}
	if bundle.Meta != nil {
		appSecret, err := r.cipher.Encrypt(bundle.Meta.AppSecret)
		if err != nil {
			return fmt.Errorf("failed to encrypt meta app secret: %w", err)
		}
		accessToken, err := r.cipher.Encrypt(bundle.Meta.PageAccessToken)
		if err != nil {
			return fmt.Errorf("failed to encrypt meta page access token: %w", err)
		}
		row.MetaAppSecret = appSecret
		row.MetaPageAccessToken = accessToken
		row.MetaVerifyToken = bundle.Meta.VerifyToken
		row.MetaConfigured = true
	}
	if bundle.Google != nil {
		row.GoogleWebhookKey = bundle.Google.WebhookKey
		row.GoogleConfigured = true
	}
	if bundle.TikTok != nil {
		secret, err := r.cipher.Encrypt(bundle.TikTok.WebhookSecret)
		if err != nil {
			return fmt.Errorf("failed to encrypt tiktok webhook secret: %w", err)
		}
		row.TikTokWebhookSecret = secret
		row.TikTokConfigured = true
	}
	if bundle.Kakao != nil {
		row.KakaoChannelID = bundle.Kakao.ChannelID
		row.KakaoPfID = bundle.Kakao.PfID
		row.KakaoConfigured = true
	}
	return nil
}

// rowToBundle decrypts a credential row into its API representation.
func (r *PostgresRepo) rowToBundle(row *model.TenantCredential) (*model.CredentialBundle, error) {
	bundle := &model.CredentialBundle{TenantID: row.TenantID}

	if row.SolapiAPIKey != "" {
		apiKey, err := r.cipher.Decrypt(row.SolapiAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt solapi api key: %w", err)
		}
		apiSecret, err := r.cipher.Decrypt(row.SolapiAPISecret)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt solapi api secret: %w", err)
		}
		bundle.Solapi = &model.SolapiCredentials{
			APIKey:       apiKey,
			APISecret:    apiSecret,
			SenderNumber: row.SolapiSenderNumber,
		}
	}
	if row.MetaConfigured {
		appSecret, err := r.cipher.Decrypt(row.MetaAppSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt meta app secret: %w", err)
		}
		accessToken, err := r.cipher.Decrypt(row.MetaPageAccessToken)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt meta page access token: %w", err)
		}
		bundle.Meta = &model.MetaCredentials{
			AppSecret:       appSecret,
			PageAccessToken: accessToken,
			VerifyToken:     row.MetaVerifyToken,
		}
	}
	if row.GoogleConfigured {
		bundle.Google = &model.GoogleCredentials{WebhookKey: row.GoogleWebhookKey}
	}
	if row.TikTokConfigured {
		secret, err := r.cipher.Decrypt(row.TikTokWebhookSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt tiktok webhook secret: %w", err)
		}
		bundle.TikTok = &model.TikTokCredentials{WebhookSecret: secret}
	}
	if row.KakaoConfigured {
		bundle.Kakao = &model.KakaoCredentials{
			ChannelID: row.KakaoChannelID,
			PfID:      row.KakaoPfID,
		}
	}
	return bundle, nil
}

// UpsertCredentials merges the provided sections into the tenant's stored
// credentials. A first write must carry the Solapi section; later writes may
// update any subset, leaving absent sections unchanged.
func (r *PostgresRepo) UpsertCredentials(ctx context.Context, bundle *model.CredentialBundle) error {
	if bundle.TenantID == "" {
		return fmt.Errorf("%w: tenant id is required", apperrors.ErrBadRequest)
	}

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

		var row model.TenantCredential
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ?", bundle.TenantID).
			First(&row)
		findErr := result.Error

		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				if bundle.Solapi == nil {
					txErr = fmt.Errorf("%w: solapi credentials are required for a new tenant", apperrors.ErrBadRequest)
					return txErr
				}
				row = model.TenantCredential{TenantID: bundle.TenantID}
				if encErr := r.applySections(&row, bundle); encErr != nil {
					txErr = fmt.Errorf("%w: %w", apperrors.ErrValidation, encErr)
					return txErr
				}
				if createErr := tx.Create(&row).Error; createErr != nil {
					txErr = checkConstraintViolation(createErr)
					return txErr
				}
			} else {
				txErr = fmt.Errorf("%w: failed to lock credential row: %w", apperrors.ErrDatabase, findErr)
				return txErr
			}
		} else {
			if encErr := r.applySections(&row, bundle); encErr != nil {
				txErr = fmt.Errorf("%w: %w", apperrors.ErrValidation, encErr)
				return txErr
			}
			row.UpdatedAt = utils.Now()
			if saveErr := tx.Save(&row).Error; saveErr != nil {
				txErr = checkConstraintViolation(saveErr)
				return txErr
			}
		}

		if commitErr := tx.Commit().Error; commitErr != nil {
			txErr = fmt.Errorf("%w: failed to commit credential upsert: %w", apperrors.ErrDatabase, commitErr)
			return txErr
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpsertCredentials Commit", operation)
	observer.ObserveDbOperationDuration("upsert", "credential", bundle.TenantID, time.Since(startTime), commitErr)
	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to upsert credentials after retries", zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// FindCredentials loads and decrypts the credential bundle for a tenant.
func (r *PostgresRepo) FindCredentials(ctx context.Context, tenantID string) (*model.CredentialBundle, error) {
	var row model.TenantCredential

	operation := func() error {
		return r.db.WithContext(ctx).
			Where("tenant_id = ?", tenantID).
			First(&row).Error
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, readPolicy, "FindCredentials", operation)
	observer.ObserveDbOperationDuration("find", "credential", tenantID, time.Since(startTime), err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: credentials for tenant %s", apperrors.ErrNotFound, tenantID)
		}
		logger.FromContext(ctx).Error("Failed to find credentials", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to find credentials: %w", apperrors.ErrDatabase, err)
	}

	bundle, err := r.rowToBundle(&row)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to decrypt credentials", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	return bundle, nil
}

// RemovePlatformCredentials clears one optional platform section. The Solapi
// section cannot be removed; without it the tenant cannot dispatch anything.
func (r *PostgresRepo) RemovePlatformCredentials(ctx context.Context, tenantID, section string) error {
	updates := map[string]interface{}{}
	switch section {
	case "meta":
		updates["meta_app_secret"] = ""
		updates["meta_page_access_token"] = ""
		updates["meta_verify_token"] = ""
		updates["meta_configured"] = false
	case "google":
		updates["google_webhook_key"] = ""
		updates["google_configured"] = false
	case "tiktok":
		updates["tiktok_webhook_secret"] = ""
		updates["tiktok_configured"] = false
	case "kakao":
		updates["kakao_channel_id"] = ""
		updates["kakao_pf_id"] = ""
		updates["kakao_configured"] = false
	case "solapi":
		return fmt.Errorf("%w: solapi credentials cannot be removed", apperrors.ErrBadRequest)
	default:
		return fmt.Errorf("%w: unknown credential section %q", apperrors.ErrBadRequest, section)
	}
	updates["updated_at"] = utils.Now()

	operation := func() error {
		result := r.db.WithContext(ctx).
			Model(&model.TenantCredential{}).
			Where("tenant_id = ?", tenantID).
			Updates(updates)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: credentials for tenant %s", apperrors.ErrNotFound, tenantID)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, commitPolicy, "RemovePlatformCredentials", operation)
	observer.ObserveDbOperationDuration("delete", "credential", tenantID, time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to remove platform credentials", zap.String("section", section), zap.Error(err))
		return err
	}
	return nil
}
