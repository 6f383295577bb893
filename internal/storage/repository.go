package storage

import (
	"context"
	"time"

	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
)

// CredentialRepo defines tenant credential storage operations.
type CredentialRepo interface {
	Upsert(ctx context.Context, bundle *model.CredentialBundle) error
	Find(ctx context.Context, tenantID string) (*model.CredentialBundle, error)
	RemovePlatform(ctx context.Context, tenantID, section string) error
	Close(ctx context.Context) error
}

// TokenRepo defines webhook token storage operations.
type TokenRepo interface {
	Ensure(ctx context.Context, candidate model.WebhookTokenSet) (*model.WebhookTokenSet, error)
	Find(ctx context.Context, tenantID string) (*model.WebhookTokenSet, error)
	Resolve(ctx context.Context, token string) (*model.WebhookTokenIndexEntry, error)
	Close(ctx context.Context) error
}

// WebhookLogRepo defines dispatch log storage operations.
type WebhookLogRepo interface {
	Save(ctx context.Context, entry model.WebhookLog) error
	Find(ctx context.Context, tenantID string, filter LogFilter) ([]model.WebhookLog, error)
	Stats(ctx context.Context, tenantID string, since time.Time) (*model.WebhookStats, error)
	Close(ctx context.Context) error
}
