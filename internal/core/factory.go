package core

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"dns01-hook/internal/config"
	"dns01-hook/internal/provider"
	"dns01-hook/internal/provider/aliyun"
	"dns01-hook/internal/provider/huawei"
	"dns01-hook/internal/provider/memset"
	"dns01-hook/internal/provider/tencent"
)

// Factory 提供商工厂
type Factory struct {
	config *config.Config
	logger *logrus.Entry
}

// NewFactory 创建工厂
func NewFactory(cfg *config.Config, logger *logrus.Entry) *Factory {
	return &Factory{
		config: cfg,
		logger: logger,
	}
}

// DNSProvider 按配置创建DNS提供商
func (f *Factory) DNSProvider() (provider.DNSProvider, error) {
	providers := &f.config.Providers

	switch f.config.Provider {
	case "memset":
		return memset.NewDNSProvider(&providers.Memset, f.logger)
	case "aliyun":
		return aliyun.NewDNSProvider(&providers.Aliyun, f.logger)
	case "tencent":
		return tencent.NewDNSProvider(&providers.Tencent, f.logger)
	case "huawei":
		return huawei.NewDNSProvider(&providers.Huawei, f.logger)
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownProvider, f.config.Provider)
	}
}

// CertUploader 按配置创建证书上传客户端，提供商没有证书库时返回 nil
func (f *Factory) CertUploader() (provider.CertUploader, error) {
	providers := &f.config.Providers

	switch f.config.Provider {
	case "aliyun":
		return aliyun.NewCertUploader(&providers.Aliyun)
	case "tencent":
		return tencent.NewCertUploader(&providers.Tencent)
	default:
		return nil, nil
	}
}
