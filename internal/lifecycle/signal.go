// Package lifecycle 将 SIGINT/SIGTERM 转换为 context 取消。
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

// SignalHandler 信号处理器
type SignalHandler struct {
	ctx     context.Context
	cancel  context.CancelFunc
	sigChan chan os.Signal
	logger  *logrus.Entry
}

// NewSignalHandler 创建信号处理器
func NewSignalHandler(parent context.Context, logger *logrus.Entry) *SignalHandler {
	ctx, cancel := context.WithCancel(parent)
	return &SignalHandler{
		ctx:     ctx,
		cancel:  cancel,
		sigChan: make(chan os.Signal, 1),
		logger:  logger,
	}
}

// Context 返回收到信号后取消的 context
func (h *SignalHandler) Context() context.Context {
	return h.ctx
}

// Start 开始监听信号
func (h *SignalHandler) Start() {
	signal.Notify(h.sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-h.sigChan:
			h.logger.Warnf("收到信号 %v，停止等待", sig)
			h.cancel()
		case <-h.ctx.Done():
		}
	}()
}

// Stop 停止监听并释放 context
func (h *SignalHandler) Stop() {
	signal.Stop(h.sigChan)
	h.cancel()
}
