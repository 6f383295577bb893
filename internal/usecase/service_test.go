package usecase

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
	"github.com/KhakiSkech/SOLAPI-alert/internal/solapi"
	storagemock "github.com/KhakiSkech/SOLAPI-alert/internal/storage/mock"
)

const testTenantID = "tenant-test-123"

// --- Shared Mocks ---

type senderMock struct {
	mock.Mock
}

func (m *senderMock) SendLeadNotification(ctx context.Context, creds model.SolapiCredentials, lead *model.Lead) (*solapi.SendResult, error) {
	args := m.Called(ctx, creds, lead)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*solapi.SendResult), args.Error(1)
}

func (m *senderMock) SendTestMessage(ctx context.Context, creds model.SolapiCredentials, to string) (*solapi.SendResult, error) {
	args := m.Called(ctx, creds, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*solapi.SendResult), args.Error(1)
}

type leadFetcherMock struct {
	mock.Mock
}

func (m *leadFetcherMock) FetchLead(ctx context.Context, leadID, accessToken string) (*model.MetaLeadData, error) {
	args := m.Called(ctx, leadID, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MetaLeadData), args.Error(1)
}

type logWorkerMock struct {
	mock.Mock
}

func (m *logWorkerMock) SubmitTask(taskData LogTaskData) error {
	args := m.Called(taskData)
	return args.Error(0)
}

func (m *logWorkerMock) Stop() {
	m.Called()
}

// --- Shared Helpers ---

type serviceFixture struct {
	credRepo  *storagemock.CredentialRepoMock
	sender    *senderMock
	fetcher   *leadFetcherMock
	logWorker *logWorkerMock
	service   *WebhookService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		credRepo:  new(storagemock.CredentialRepoMock),
		sender:    new(senderMock),
		fetcher:   new(leadFetcherMock),
		logWorker: new(logWorkerMock),
	}
	dispatcher := NewDispatcher(f.sender, f.logWorker)
	f.service = NewWebhookService(f.credRepo, f.fetcher, dispatcher)
	return f
}

func (f *serviceFixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.credRepo.AssertExpectations(t)
	f.sender.AssertExpectations(t)
	f.fetcher.AssertExpectations(t)
	f.logWorker.AssertExpectations(t)
}

func fullBundle() *model.CredentialBundle {
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
		Google: &model.GoogleCredentials{WebhookKey: "google-shared-key"},
		TikTok: &model.TikTokCredentials{WebhookSecret: "tiktok-secret"},
	}
}

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func okSendResult() *solapi.SendResult {
	return &solapi.SendResult{To: "01012345678", Type: solapi.TypeSMS}
}
