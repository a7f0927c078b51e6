// Package polltest 提供不实际等待的定时器，供测试使用。
package polltest

import (
	"sync"
	"time"
)

// Timer 每次 Start 立即触发，并记录请求的等待时长
type Timer struct {
	mu    sync.Mutex
	waits []time.Duration
	c     chan time.Time
}

// NewTimer 创建立即触发的定时器
func NewTimer() *Timer {
	return &Timer{c: make(chan time.Time, 1)}
}

func (t *Timer) Start(d time.Duration) {
	t.mu.Lock()
	t.waits = append(t.waits, d)
	t.mu.Unlock()

	select {
	case t.c <- time.Now():
	default:
	}
}

func (t *Timer) Stop() {}

func (t *Timer) C() <-chan time.Time {
	return t.c
}

// Waits 返回全部等待时长
func (t *Timer) Waits() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.waits...)
}

// Count 返回等待次数
func (t *Timer) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.waits)
}
