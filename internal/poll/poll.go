// Package poll 固定间隔轮询，带可选的总超时。
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrDeadlineExceeded 轮询超过配置的最长等待时间
var ErrDeadlineExceeded = errors.New("等待超时")

var errPending = errors.New("条件未满足")

// Condition 单次检查。done 为 true 结束轮询；err 非空立即失败，不再重试。
type Condition func(ctx context.Context) (done bool, err error)

// Options 轮询参数
type Options struct {
	Interval time.Duration // 两次检查之间的等待
	Timeout  time.Duration // 总超时，0 表示不限时

	// Timer 为空时使用系统定时器
	Timer backoff.Timer

	// Notify 每次进入等待前调用，attempt 从 1 开始
	Notify func(attempt int, wait time.Duration)
}

// Until 立即检查一次，未满足则按固定间隔重复检查
func Until(ctx context.Context, opts Options, cond Condition) error {
	parent := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	attempt := 0
	operation := func() error {
		attempt++
		done, err := cond(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !done {
			return errPending
		}
		return nil
	}

	notify := func(_ error, wait time.Duration) {
		if opts.Notify != nil {
			opts.Notify(attempt, wait)
		}
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(opts.Interval), ctx)
	err := backoff.RetryNotifyWithTimer(operation, b, notify, opts.Timer)
	if err == nil {
		return nil
	}

	if parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: 已等待 %s (检查 %d 次)", ErrDeadlineExceeded, opts.Timeout, attempt)
	}
	return err
}

// Sleep 等待 d，ctx 取消时提前返回
func Sleep(ctx context.Context, d time.Duration, timer backoff.Timer) error {
	if d <= 0 {
		return nil
	}

	if timer == nil {
		t := time.NewTimer(d)
		defer t.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}

	timer.Start(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}
