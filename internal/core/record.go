package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"dns01-hook/internal/provider"
)

// RecordManager 管理验证用的TXT记录
type RecordManager struct {
	provider provider.DNSProvider
	logger   *logrus.Entry
}

// NewRecordManager 创建记录管理器
func NewRecordManager(p provider.DNSProvider, logger *logrus.Entry) *RecordManager {
	return &RecordManager{
		provider: p,
		logger:   logger.WithField("component", "record"),
	}
}

// Create 创建TXT记录，返回记录ID
//
// 需要发布的提供商在 Reload 完成前记录不会生效。
func (m *RecordManager) Create(ctx context.Context, zoneID, name, token string) (string, error) {
	recordID, err := m.provider.CreateTXTRecord(ctx, zoneID, name, token)
	if err != nil {
		return "", fmt.Errorf("创建TXT记录 %s 失败: %w", name, err)
	}

	m.logger.Infof("已创建TXT记录: %s (ID=%s)", name, recordID)
	return recordID, nil
}

// Find 查找名称和值都匹配的TXT记录
//
// 没有匹配返回 provider.ErrRecordNotFound；多条匹配返回 *AmbiguousMatchError。
func (m *RecordManager) Find(ctx context.Context, zoneID, name, token string) (string, error) {
	records, err := m.provider.ZoneRecords(ctx, zoneID)
	if err != nil {
		return "", fmt.Errorf("获取Zone记录失败: %w", err)
	}

	var ids []string
	for _, record := range records {
		if record.Type != "" && !strings.EqualFold(record.Type, provider.RecordTypeTXT) {
			continue
		}
		if strings.EqualFold(record.Name, name) && record.Value == token {
			ids = append(ids, record.RecordID)
		}
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%s: %w", name, provider.ErrRecordNotFound)
	case 1:
		return ids[0], nil
	default:
		return "", &AmbiguousMatchError{ZoneID: zoneID, Name: name, RecordIDs: ids}
	}
}

// Delete 删除记录
func (m *RecordManager) Delete(ctx context.Context, zoneID, recordID string) error {
	if recordID == "" {
		return provider.ErrInvalidRecordID
	}

	if err := m.provider.DeleteRecord(ctx, zoneID, recordID); err != nil {
		return fmt.Errorf("删除记录 %s 失败: %w", recordID, err)
	}

	m.logger.Infof("已删除TXT记录: ID=%s", recordID)
	return nil
}
