package lifecycle

import (
	"context"
	"io"
	"syscall"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func TestSignalCancelsContext(t *testing.T) {
	h := NewSignalHandler(context.Background(), testLogger())
	h.Start()
	defer h.Stop()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-h.Context().Done():
		assert.ErrorIs(t, h.Context().Err(), context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("收到信号后 context 未取消")
	}
}

func TestStopCancelsContext(t *testing.T) {
	h := NewSignalHandler(context.Background(), testLogger())
	h.Start()
	h.Stop()

	assert.Error(t, h.Context().Err())
}
