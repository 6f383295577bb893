package storage

import (
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/KhakiSkech/SOLAPI-alert/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}
