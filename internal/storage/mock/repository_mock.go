package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
	"github.com/KhakiSkech/SOLAPI-alert/internal/storage"
)

// --- CredentialRepo Mock ---

// CredentialRepoMock mocks the CredentialRepo interface
type CredentialRepoMock struct {
	mock.Mock
}

// Upsert mocks the Upsert method
func (m *CredentialRepoMock) Upsert(ctx context.Context, bundle *model.CredentialBundle) error {
	args := m.Called(ctx, bundle)
	return args.Error(0)
}

// Find mocks the Find method
func (m *CredentialRepoMock) Find(ctx context.Context, tenantID string) (*model.CredentialBundle, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CredentialBundle), args.Error(1)
}

// RemovePlatform mocks the RemovePlatform method
func (m *CredentialRepoMock) RemovePlatform(ctx context.Context, tenantID, section string) error {
	args := m.Called(ctx, tenantID, section)
	return args.Error(0)
}

// Close mocks the Close method
func (m *CredentialRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- TokenRepo Mock ---

// TokenRepoMock mocks the TokenRepo interface
type TokenRepoMock struct {
	mock.Mock
}

// Ensure mocks the Ensure method
func (m *TokenRepoMock) Ensure(ctx context.Context, candidate model.WebhookTokenSet) (*model.WebhookTokenSet, error) {
	args := m.Called(ctx, candidate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WebhookTokenSet), args.Error(1)
}

// Find mocks the Find method
func (m *TokenRepoMock) Find(ctx context.Context, tenantID string) (*model.WebhookTokenSet, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WebhookTokenSet), args.Error(1)
}

// Resolve mocks the Resolve method
func (m *TokenRepoMock) Resolve(ctx context.Context, token string) (*model.WebhookTokenIndexEntry, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WebhookTokenIndexEntry), args.Error(1)
}

// Close mocks the Close method
func (m *TokenRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- WebhookLogRepo Mock ---

// WebhookLogRepoMock mocks the WebhookLogRepo interface
type WebhookLogRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *WebhookLogRepoMock) Save(ctx context.Context, entry model.WebhookLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// Find mocks the Find method
func (m *WebhookLogRepoMock) Find(ctx context.Context, tenantID string, filter storage.LogFilter) ([]model.WebhookLog, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WebhookLog), args.Error(1)
}

// Stats mocks the Stats method
func (m *WebhookLogRepoMock) Stats(ctx context.Context, tenantID string, since time.Time) (*model.WebhookStats, error) {
	args := m.Called(ctx, tenantID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WebhookStats), args.Error(1)
}

// Close mocks the Close method
func (m *WebhookLogRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
