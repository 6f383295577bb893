package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KhakiSkech/SOLAPI-alert/internal/cache"
	"github.com/KhakiSkech/SOLAPI-alert/internal/identity"
	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
	"github.com/KhakiSkech/SOLAPI-alert/internal/ratelimit"
	"github.com/KhakiSkech/SOLAPI-alert/internal/solapi"
	storagemock "github.com/KhakiSkech/SOLAPI-alert/internal/storage/mock"
	"github.com/KhakiSkech/SOLAPI-alert/internal/usecase"
)

const (
	testTenantID = "tenant-test-123"
	testAPIKey   = "test-api-key"
	testBaseURL  = "https://alerts.example.com"
)

// senderStub is a programmable solapi.Sender for handler tests.
type senderStub struct {
	sendFunc func(ctx context.Context, creds model.SolapiCredentials, lead *model.Lead) (*solapi.SendResult, error)
	testFunc func(ctx context.Context, creds model.SolapiCredentials, to string) (*solapi.SendResult, error)
}

func (s *senderStub) SendLeadNotification(ctx context.Context, creds model.SolapiCredentials, lead *model.Lead) (*solapi.SendResult, error) {
	if s.sendFunc != nil {
		return s.sendFunc(ctx, creds, lead)
	}
	return &solapi.SendResult{To: lead.Phone, Type: solapi.TypeSMS}, nil
}

func (s *senderStub) SendTestMessage(ctx context.Context, creds model.SolapiCredentials, to string) (*solapi.SendResult, error) {
	if s.testFunc != nil {
		return s.testFunc(ctx, creds, to)
	}
	return &solapi.SendResult{To: to, Type: solapi.TypeSMS}, nil
}

type fetcherStub struct {
	fetchFunc func(ctx context.Context, leadID, accessToken string) (*model.MetaLeadData, error)
}

func (s *fetcherStub) FetchLead(ctx context.Context, leadID, accessToken string) (*model.MetaLeadData, error) {
	if s.fetchFunc != nil {
		return s.fetchFunc(ctx, leadID, accessToken)
	}
	return model.NewMetaLeadData(leadID), nil
}

// noopLogWorker drops every submitted entry.
type noopLogWorker struct{}

func (noopLogWorker) SubmitTask(usecase.LogTaskData) error { return nil }
func (noopLogWorker) Stop()                                {}

type pingerStub struct {
	err error
}

func (p *pingerStub) Ping(context.Context) error { return p.err }

// serverFixture wires a Server around mocks and stubs.
type serverFixture struct {
	server   *Server
	credRepo *storagemock.CredentialRepoMock
	tokRepo  *storagemock.TokenRepoMock
	logRepo  *storagemock.WebhookLogRepoMock
	sender   *senderStub
	fetcher  *fetcherStub
	pinger   *pingerStub
}

type fixtureOption func(*serverFixture, *Options, *Deps)

func withWebhookLimiter(limiter ratelimit.Limiter) fixtureOption {
	return func(_ *serverFixture, _ *Options, deps *Deps) {
		deps.WebhookLimiter = limiter
	}
}

func withAPILimiter(limiter ratelimit.Limiter) fixtureOption {
	return func(_ *serverFixture, _ *Options, deps *Deps) {
		deps.APILimiter = limiter
	}
}

func newServerFixture(t *testing.T, opts ...fixtureOption) *serverFixture {
	t.Helper()

	f := &serverFixture{
		credRepo: new(storagemock.CredentialRepoMock),
		tokRepo:  new(storagemock.TokenRepoMock),
		logRepo:  new(storagemock.WebhookLogRepoMock),
		sender:   &senderStub{},
		fetcher:  &fetcherStub{},
		pinger:   &pingerStub{},
	}

	tokenCache, err := cache.NewTokenCache(f.tokRepo, 100, time.Minute)
	require.NoError(t, err)
	t.Cleanup(tokenCache.Close)

	dispatcher := usecase.NewDispatcher(f.sender, noopLogWorker{})
	webhooks := usecase.NewWebhookService(f.credRepo, f.fetcher, dispatcher)
	tokens := usecase.NewTokenService(f.tokRepo, tokenCache, testBaseURL)

	options := Options{Port: 0, MetricsEnabled: false}
	deps := Deps{
		Webhooks:       webhooks,
		Tokens:         tokens,
		CredentialRepo: f.credRepo,
		LogRepo:        f.logRepo,
		Verifier:       identity.NewStaticVerifier(map[string]string{testAPIKey: testTenantID}),
		Pinger:         f.pinger,
	}
	for _, opt := range opts {
		opt(f, &options, &deps)
	}

	f.server = NewServer(options, deps, zap.NewNop())
	return f
}

// expectToken arranges for the given token to resolve to the test tenant.
func (f *serverFixture) expectToken(token string, platform model.Platform) {
	f.tokRepo.On("Resolve", mock.Anything, token).Return(&model.WebhookTokenIndexEntry{
		Token:    token,
		TenantID: testTenantID,
		Platform: platform,
	}, nil)
}

func testBundle() *model.CredentialBundle {
	return &model.CredentialBundle{
		TenantID: testTenantID,
		Solapi: &model.SolapiCredentials{
			APIKey:       "solapi-key",
			APISecret:    "solapi-secret",
			SenderNumber: "01099998888",
		},
		Meta: &model.MetaCredentials{
			AppSecret:       "meta-app-secret",
			PageAccessToken: "page-token",
			VerifyToken:     "verify-me",
		},
		Google: &model.GoogleCredentials{
			WebhookKey: "google-shared-key",
		},
		TikTok: &model.TikTokCredentials{
			WebhookSecret: "tiktok-secret",
		},
	}
}
