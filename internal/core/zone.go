package core

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"dns01-hook/internal/domain"
	"dns01-hook/internal/provider"
)

// ZoneResolver 将域名映射到提供商的 Zone
type ZoneResolver struct {
	provider provider.DNSProvider
	logger   *logrus.Entry
}

// NewZoneResolver 创建 Zone 解析器
func NewZoneResolver(p provider.DNSProvider, logger *logrus.Entry) *ZoneResolver {
	return &ZoneResolver{
		provider: p,
		logger:   logger.WithField("component", "zone"),
	}
}

// Resolve 按注册根域名查找 Zone
//
// 没有匹配的 Zone 时返回 provider.ErrZoneNotFound。
func (r *ZoneResolver) Resolve(ctx context.Context, name string) (provider.Zone, error) {
	apex, err := domain.EffectiveApex(name)
	if err != nil {
		return provider.Zone{}, err
	}

	zones, err := r.provider.ListZones(ctx)
	if err != nil {
		return provider.Zone{}, fmt.Errorf("获取Zone列表失败: %w", err)
	}

	for _, zone := range zones {
		if domain.Normalize(zone.Apex) == apex {
			r.logger.Debugf("%s -> zone %s (%s)", name, zone.ID, apex)
			return zone, nil
		}
	}

	return provider.Zone{}, fmt.Errorf("%s (根域名 %s): %w", name, apex, provider.ErrZoneNotFound)
}
