package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KhakiSkech/SOLAPI-alert/internal/config"
	"github.com/KhakiSkech/SOLAPI-alert/internal/model"
	storagemock "github.com/KhakiSkech/SOLAPI-alert/internal/storage/mock"
)

func newTestLogWorker(t *testing.T, repo *storagemock.WebhookLogRepoMock) *LogWorker {
	t.Helper()
	worker, err := NewLogWorker(config.LogWorkerPoolConfig{
		PoolSize:   2,
		QueueSize:  4,
		ExpiryTime: time.Minute,
	}, repo, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(worker.Stop)
	return worker
}

func TestLogWorkerPersistsEntries(t *testing.T) {
	entry := *model.NewWebhookLog(&model.WebhookLog{TenantID: testTenantID})

	var wg sync.WaitGroup
	wg.Add(1)
	repo := new(storagemock.WebhookLogRepoMock)
	repo.On("Save", mock.Anything, entry).Run(func(mock.Arguments) {
		wg.Done()
	}).Return(nil).Once()

	worker := newTestLogWorker(t, repo)
	require.NoError(t, worker.SubmitTask(LogTaskData{Ctx: context.Background(), Entry: entry}))

	waitDone(t, &wg)
	repo.AssertExpectations(t)
}

func TestLogWorkerSwallowsSaveErrors(t *testing.T) {
	entry := *model.NewWebhookLog(nil)

	var wg sync.WaitGroup
	wg.Add(1)
	repo := new(storagemock.WebhookLogRepoMock)
	repo.On("Save", mock.Anything, entry).Run(func(mock.Arguments) {
		wg.Done()
	}).Return(assert.AnError).Once()

	worker := newTestLogWorker(t, repo)
	// Submission succeeds even though the write will fail.
	require.NoError(t, worker.SubmitTask(LogTaskData{Ctx: context.Background(), Entry: entry}))

	waitDone(t, &wg)
	repo.AssertExpectations(t)
}

func waitDone(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for log worker")
	}
}
