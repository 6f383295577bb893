package storage

import (
	"context"
	"time"

	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
)

// CredentialRepoAdapter adapts the PostgresRepo to the CredentialRepo interface
type CredentialRepoAdapter struct {
	postgres *PostgresRepo
}

// NewCredentialRepoAdapter creates a new credential repository adapter
func NewCredentialRepoAdapter(postgres *PostgresRepo) CredentialRepo {
	return &CredentialRepoAdapter{postgres: postgres}
}

// Upsert merges credential sections for a tenant
func (a *CredentialRepoAdapter) Upsert(ctx context.Context, bundle *model.CredentialBundle) error {
	return a.postgres.UpsertCredentials(ctx, bundle)
}

// Find loads and decrypts a tenant's credentials
func (a *CredentialRepoAdapter) Find(ctx context.Context, tenantID string) (*model.CredentialBundle, error) {
	return a.postgres.FindCredentials(ctx, tenantID)
}

// RemovePlatform clears one optional credential section
func (a *CredentialRepoAdapter) RemovePlatform(ctx context.Context, tenantID, section string) error {
	return a.postgres.RemovePlatformCredentials(ctx, tenantID, section)
}

func (a *CredentialRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// TokenRepoAdapter adapts the PostgresRepo to the TokenRepo interface
type TokenRepoAdapter struct {
	postgres *PostgresRepo
}

// NewTokenRepoAdapter creates a new token repository adapter
func NewTokenRepoAdapter(postgres *PostgresRepo) TokenRepo {
	return &TokenRepoAdapter{postgres: postgres}
}

// Ensure returns the tenant's token set, creating it when absent
func (a *TokenRepoAdapter) Ensure(ctx context.Context, candidate model.WebhookTokenSet) (*model.WebhookTokenSet, error) {
	return a.postgres.EnsureTokenSet(ctx, candidate)
}

// Find loads the tenant's token set
func (a *TokenRepoAdapter) Find(ctx context.Context, tenantID string) (*model.WebhookTokenSet, error) {
	return a.postgres.FindTokenSet(ctx, tenantID)
}

// Resolve maps a token back to its tenant and platform
func (a *TokenRepoAdapter) Resolve(ctx context.Context, token string) (*model.WebhookTokenIndexEntry, error) {
	return a.postgres.ResolveToken(ctx, token)
}

func (a *TokenRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// WebhookLogRepoAdapter adapts the PostgresRepo to the WebhookLogRepo interface
type WebhookLogRepoAdapter struct {
	postgres *PostgresRepo
}

// NewWebhookLogRepoAdapter creates a new webhook log repository adapter
func NewWebhookLogRepoAdapter(postgres *PostgresRepo) WebhookLogRepo {
	return &WebhookLogRepoAdapter{postgres: postgres}
}

// Save appends one dispatch outcome
func (a *WebhookLogRepoAdapter) Save(ctx context.Context, entry model.WebhookLog) error {
	return a.postgres.SaveWebhookLog(ctx, entry)
}

// Find lists a tenant's dispatch log
func (a *WebhookLogRepoAdapter) Find(ctx context.Context, tenantID string, filter LogFilter) ([]model.WebhookLog, error) {
	return a.postgres.FindWebhookLogs(ctx, tenantID, filter)
}

// Stats aggregates a tenant's dispatch outcomes
func (a *WebhookLogRepoAdapter) Stats(ctx context.Context, tenantID string, since time.Time) (*model.WebhookStats, error) {
	return a.postgres.CountWebhookStats(ctx, tenantID, since)
}

func (a *WebhookLogRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}
