package dnscheck

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"dns01-hook/internal/poll"
)

// Verifier 轮询 TXT 记录直到出现期望的 token
type Verifier struct {
	querier  Querier
	interval time.Duration
	timeout  time.Duration
	timer    backoff.Timer
	logger   *logrus.Entry
}

// NewVerifier 创建传播检查器。timeout 为 0 时一直等待。
func NewVerifier(querier Querier, interval, timeout time.Duration, logger *logrus.Entry) *Verifier {
	return &Verifier{
		querier:  querier,
		interval: interval,
		timeout:  timeout,
		logger:   logger.WithField("component", "propagation"),
	}
}

// WithTimer 替换等待使用的定时器
func (v *Verifier) WithTimer(timer backoff.Timer) *Verifier {
	v.timer = timer
	return v
}

// Check 查询一次，返回 token 是否已可见。查询失败视为尚未传播。
func (v *Verifier) Check(ctx context.Context, fqdn, token string) bool {
	values, err := v.querier.LookupTXT(ctx, fqdn)
	if err != nil {
		v.logger.Debugf("查询 %s 失败: %v", fqdn, err)
		return false
	}

	for _, value := range values {
		if value == token {
			return true
		}
	}
	v.logger.Debugf("%s 当前TXT记录: %v", fqdn, values)
	return false
}

// Wait 等待 token 出现在 fqdn 的 TXT 记录中
//
// 超过超时时间返回 poll.ErrDeadlineExceeded。
func (v *Verifier) Wait(ctx context.Context, fqdn, token string) error {
	v.logger.Infof("等待DNS传播: %s", fqdn)

	opts := poll.Options{
		Interval: v.interval,
		Timeout:  v.timeout,
		Timer:    v.timer,
		Notify: func(attempt int, wait time.Duration) {
			v.logger.Infof("DNS记录尚未生效 (第 %d 次检查)，%s 后重试", attempt, wait)
		},
	}

	err := poll.Until(ctx, opts, func(ctx context.Context) (bool, error) {
		return v.Check(ctx, fqdn, token), nil
	})
	if err != nil {
		return err
	}

	v.logger.Infof("DNS记录已生效: %s", fqdn)
	return nil
}
