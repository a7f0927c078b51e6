package core

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"dns01-hook/internal/config"
	"dns01-hook/internal/poll"
	"dns01-hook/internal/provider"
)

// ReloadCoordinator 触发 Zone 发布并等待任务完成
type ReloadCoordinator struct {
	reloader provider.Reloader // 为空表示提供商无需发布
	timing   config.TimingConfig
	timer    backoff.Timer
	logger   *logrus.Entry
}

// NewReloadCoordinator 创建发布协调器。p 未实现 provider.Reloader 时只等待 SettleDelay。
func NewReloadCoordinator(p provider.DNSProvider, timing config.TimingConfig, logger *logrus.Entry) *ReloadCoordinator {
	reloader, _ := p.(provider.Reloader)
	return &ReloadCoordinator{
		reloader: reloader,
		timing:   timing,
		logger:   logger.WithField("component", "reload"),
	}
}

// TriggerAndWait 触发发布，按 ReloadInterval 轮询任务直到完成，再等待 SettleDelay
//
// 超过 ReloadTimeout 返回 ErrDeadlineExceeded，任务报告失败返回 ErrReloadFailed。
func (c *ReloadCoordinator) TriggerAndWait(ctx context.Context) error {
	if c.reloader != nil {
		if err := c.reloadAndWait(ctx); err != nil {
			return err
		}
	} else {
		c.logger.Debug("提供商无需发布，跳过")
	}

	if c.timing.SettleDelay > 0 {
		c.logger.Infof("等待 %s，避免解析器缓存否定应答", c.timing.SettleDelay)
	}
	return poll.Sleep(ctx, c.timing.SettleDelay, c.timer)
}

func (c *ReloadCoordinator) reloadAndWait(ctx context.Context) error {
	jobID, err := c.reloader.Reload(ctx)
	if err != nil {
		return fmt.Errorf("触发Zone发布失败: %w", err)
	}
	c.logger.Infof("已触发Zone发布, 任务ID: %s", jobID)

	opts := poll.Options{
		Interval: c.timing.ReloadInterval,
		Timeout:  c.timing.ReloadTimeout,
		Timer:    c.timer,
		Notify: func(attempt int, wait time.Duration) {
			c.logger.Infof("发布任务未完成，等待 %s", wait)
		},
	}

	err = poll.Until(ctx, opts, func(ctx context.Context) (bool, error) {
		job, err := c.reloader.JobStatus(ctx, jobID)
		if err != nil {
			return false, fmt.Errorf("查询发布任务 %s 失败: %w", jobID, err)
		}
		if !job.Finished {
			return false, nil
		}
		if job.Failed {
			return false, fmt.Errorf("%w: 任务ID %s %s", ErrReloadFailed, jobID, job.Status)
		}
		return true, nil
	})
	if err != nil {
		return err
	}

	c.logger.Infof("Zone发布完成, 任务ID: %s", jobID)
	return nil
}
