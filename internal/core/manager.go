package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"dns01-hook/internal/config"
	"dns01-hook/internal/dnscheck"
	"dns01-hook/internal/domain"
	"dns01-hook/internal/notification"
	"dns01-hook/internal/provider"
	"dns01-hook/internal/storage"
)

// Manager 按操作调度各组件
type Manager struct {
	config   *config.Config
	logger   *logrus.Entry
	provider provider.DNSProvider
	uploader provider.CertUploader // 可以为空

	zones    *ZoneResolver
	records  *RecordManager
	reload   *ReloadCoordinator
	verifier *dnscheck.Verifier

	storage  *storage.FileStorage // 未配置安装目录时为空
	executor *Executor
	notifier *notification.WebhookNotifier
}

// NewManager 按配置创建提供商和DNS查询器
func NewManager(cfg *config.Config, logger *logrus.Entry) (*Manager, error) {
	factory := NewFactory(cfg, logger)

	dnsProvider, err := factory.DNSProvider()
	if err != nil {
		return nil, fmt.Errorf("创建DNS提供商失败: %w", err)
	}

	resolver, err := dnscheck.NewResolver(cfg.DNSServers, cfg.Timing.QueryTimeout, dnscheck.DefaultResolvConf)
	if err != nil {
		return nil, fmt.Errorf("初始化DNS查询失败: %w", err)
	}

	m := newManager(cfg, logger, dnsProvider, resolver)

	if cfg.Deploy.Upload {
		uploader, err := factory.CertUploader()
		if err != nil {
			return nil, fmt.Errorf("创建证书上传客户端失败: %w", err)
		}
		if uploader == nil {
			logger.Warnf("提供商 %s 不支持证书上传，忽略 deploy.upload", dnsProvider.Name())
		}
		m.uploader = uploader
	}

	return m, nil
}

func newManager(cfg *config.Config, logger *logrus.Entry, dnsProvider provider.DNSProvider, querier dnscheck.Querier) *Manager {
	m := &Manager{
		config:   cfg,
		logger:   logger,
		provider: dnsProvider,
		zones:    NewZoneResolver(dnsProvider, logger),
		records:  NewRecordManager(dnsProvider, logger),
		reload:   NewReloadCoordinator(dnsProvider, cfg.Timing, logger),
		verifier: dnscheck.NewVerifier(querier, cfg.Timing.PropagationInterval, cfg.Timing.PropagationTimeout, logger),
		executor: NewExecutor(logger),
		notifier: notification.NewWebhookNotifier(&cfg.Webhook, logger),
	}
	if cfg.Deploy.InstallDir != "" {
		m.storage = storage.NewFileStorage(cfg.Deploy.InstallDir, logger)
	}
	return m
}

// withTimer 所有等待改用指定定时器
func (m *Manager) withTimer(timer backoff.Timer) *Manager {
	m.reload.timer = timer
	m.verifier.WithTimer(timer)
	return m
}

// Run 执行一个操作
func (m *Manager) Run(ctx context.Context, op Operation) error {
	if op == nil {
		return ErrUnknownOperation
	}
	m.logger.Debugf("执行操作: %s", op.Name())

	switch op := op.(type) {
	case DeployChallenge:
		return m.DeployChallenge(ctx, op)
	case CleanChallenge:
		return m.CleanChallenge(ctx, op)
	case DeployCert:
		return m.DeployCert(ctx, op)
	case UnchangedCert:
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnknownOperation, op)
	}
}

// DeployChallenge 创建TXT记录，发布 Zone，等待记录在DNS上可见
//
// 失败时不回滚，已创建的记录留给 clean_challenge 删除。
func (m *Manager) DeployChallenge(ctx context.Context, op DeployChallenge) error {
	fqdn := domain.ChallengeFQDN(op.Domain)
	name, err := domain.StripApex(fqdn)
	if err != nil {
		return fmt.Errorf("计算记录名失败: %w", err)
	}

	m.logger.Infof("部署DNS验证: %s", fqdn)

	zone, err := m.zones.Resolve(ctx, op.Domain)
	if err != nil {
		return err
	}

	recordID, err := m.records.Create(ctx, zone.ID, name, op.Token)
	if err != nil {
		return err
	}

	if err := m.reload.TriggerAndWait(ctx); err != nil {
		m.notifyTimeout(ctx, op.Domain, err)
		return err
	}

	if err := m.verifier.Wait(ctx, fqdn, op.Token); err != nil {
		m.notifyTimeout(ctx, op.Domain, err)
		return fmt.Errorf("等待DNS传播失败: %w", err)
	}

	if err := m.notifier.NotifyChallengeDeployed(ctx, op.Domain, recordID); err != nil {
		m.logger.Warnf("发送通知失败: %v", err)
	}
	return nil
}

// CleanChallenge 删除验证记录，Zone 或记录不存在时记录日志后正常返回
func (m *Manager) CleanChallenge(ctx context.Context, op CleanChallenge) error {
	if domain.Normalize(op.Domain) == "" {
		m.logger.Warn("clean_challenge 缺少域名，跳过")
		return nil
	}

	fqdn := domain.ChallengeFQDN(op.Domain)
	name, err := domain.StripApex(fqdn)
	if err != nil {
		return fmt.Errorf("计算记录名失败: %w", err)
	}

	m.logger.Infof("清理DNS验证: %s", fqdn)

	zone, err := m.zones.Resolve(ctx, op.Domain)
	if errors.Is(err, provider.ErrZoneNotFound) {
		m.logger.Infof("未找到 %s 对应的Zone，跳过删除", op.Domain)
		return nil
	}
	if err != nil {
		return err
	}

	recordID, err := m.records.Find(ctx, zone.ID, name, op.Token)
	if errors.Is(err, provider.ErrRecordNotFound) {
		m.logger.Infof("未找到匹配的TXT记录 %s，跳过删除", name)
		return nil
	}
	if err != nil {
		return err
	}

	if err := m.records.Delete(ctx, zone.ID, recordID); err != nil {
		return err
	}

	if err := m.notifier.NotifyChallengeCleaned(ctx, op.Domain, recordID); err != nil {
		m.logger.Warnf("发送通知失败: %v", err)
	}
	return nil
}

// DeployCert 记录证书路径，并按配置安装、上传、执行后置命令
func (m *Manager) DeployCert(ctx context.Context, op DeployCert) error {
	m.logger.Infof("ssl_certificate: %s", op.FullchainFile)
	m.logger.Infof("ssl_certificate_key: %s", op.KeyFile)

	if m.storage == nil && m.uploader == nil && m.config.Deploy.PostCommand == "" {
		return m.notifyCertDeployed(ctx, op)
	}

	if m.storage != nil || m.uploader != nil {
		cert, err := storage.LoadCertificate(op.KeyFile, op.CertFile, op.FullchainFile)
		if err != nil {
			return err
		}

		if m.storage != nil {
			if err := m.storage.SaveCertificate(op.Domain, cert); err != nil {
				return fmt.Errorf("安装证书失败: %w", err)
			}
			op.KeyFile = m.storage.GetKeyPath(op.Domain)
			op.CertFile = m.storage.GetCertPath(op.Domain)
			op.FullchainFile = m.storage.GetFullchainPath(op.Domain)
		}

		if m.uploader != nil {
			name := fmt.Sprintf("%s-%s", op.Domain, op.Timestamp)
			certID, err := m.uploader.UploadCertificate(ctx, name, cert)
			if err != nil {
				return err
			}
			m.logger.Infof("证书已上传到 %s, 证书ID: %s", m.provider.Name(), certID)
		}
	}

	if command := m.config.Deploy.PostCommand; command != "" {
		if err := m.executor.RunPostCommand(ctx, command, m.executor.BuildVars(op)); err != nil {
			return err
		}
	}

	return m.notifyCertDeployed(ctx, op)
}

func (m *Manager) notifyCertDeployed(ctx context.Context, op DeployCert) error {
	if err := m.notifier.NotifyCertDeployed(ctx, op.Domain, op.FullchainFile, op.KeyFile); err != nil {
		m.logger.Warnf("发送通知失败: %v", err)
	}
	return nil
}

func (m *Manager) notifyTimeout(ctx context.Context, name string, err error) {
	if !errors.Is(err, ErrDeadlineExceeded) {
		return
	}
	if err := m.notifier.NotifyChallengeTimeout(ctx, name, err.Error()); err != nil {
		m.logger.Warnf("发送通知失败: %v", err)
	}
}
