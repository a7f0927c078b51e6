package aliyun

import (
	"context"
	"fmt"
	"strings"

	alidns "github.com/alibabacloud-go/alidns-20150109/v4/client"
	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	"github.com/alibabacloud-go/tea/tea"
	"github.com/sirupsen/logrus"

	"dns01-hook/internal/config"
	"dns01-hook/internal/provider"
)

const (
	zonePageSize   = 100
	recordPageSize = 500
)

// DNSProvider 阿里云DNS提供商
//
// 阿里云解析的 Zone 以域名标识，记录写入后立即生效，不需要 Reload。
type DNSProvider struct {
	client *alidns.Client
	logger *logrus.Entry
}

// NewDNSProvider 创建阿里云DNS提供商
func NewDNSProvider(cfg *config.AliyunConfig, logger *logrus.Entry) (*DNSProvider, error) {
	endpoint := "alidns.cn-hangzhou.aliyuncs.com"
	if cfg.Region != "" {
		endpoint = fmt.Sprintf("alidns.%s.aliyuncs.com", cfg.Region)
	}

	clientConfig := &openapi.Config{
		AccessKeyId:     tea.String(cfg.AccessKeyID),
		AccessKeySecret: tea.String(cfg.AccessKeySecret),
		Endpoint:        tea.String(endpoint),
	}

	client, err := alidns.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("创建阿里云DNS客户端失败: %w", err)
	}

	return &DNSProvider{
		client: client,
		logger: logger.WithField("provider", "aliyun"),
	}, nil
}

// Name 返回提供商名称
func (p *DNSProvider) Name() string {
	return "aliyun"
}

// ListZones 列出账户下所有域名
func (p *DNSProvider) ListZones(ctx context.Context) ([]provider.Zone, error) {
	var zones []provider.Zone

	for page := int64(1); ; page++ {
		request := &alidns.DescribeDomainsRequest{
			PageNumber: tea.Int64(page),
			PageSize:   tea.Int64(zonePageSize),
		}

		response, err := p.client.DescribeDomains(request)
		if err != nil {
			return nil, fmt.Errorf("获取域名列表失败: %w", err)
		}
		if response.Body == nil || response.Body.Domains == nil {
			break
		}

		for _, d := range response.Body.Domains.Domain {
			name := strings.ToLower(tea.StringValue(d.DomainName))
			zones = append(zones, provider.Zone{ID: name, Apex: name})
		}

		if len(response.Body.Domains.Domain) < zonePageSize ||
			int64(len(zones)) >= tea.Int64Value(response.Body.TotalCount) {
			break
		}
	}

	return zones, nil
}

// ZoneRecords 列出域名下全部解析记录
func (p *DNSProvider) ZoneRecords(ctx context.Context, zoneID string) ([]*provider.DNSRecord, error) {
	var records []*provider.DNSRecord

	for page := int64(1); ; page++ {
		request := &alidns.DescribeDomainRecordsRequest{
			DomainName: tea.String(zoneID),
			PageNumber: tea.Int64(page),
			PageSize:   tea.Int64(recordPageSize),
		}

		response, err := p.client.DescribeDomainRecords(request)
		if err != nil {
			return nil, fmt.Errorf("获取DNS记录列表失败: %w", err)
		}
		if response.Body == nil || response.Body.DomainRecords == nil {
			break
		}

		for _, record := range response.Body.DomainRecords.Record {
			records = append(records, &provider.DNSRecord{
				RecordID: tea.StringValue(record.RecordId),
				ZoneID:   zoneID,
				Name:     tea.StringValue(record.RR),
				Type:     tea.StringValue(record.Type),
				Value:    tea.StringValue(record.Value),
				TTL:      int(tea.Int64Value(record.TTL)),
			})
		}

		if len(response.Body.DomainRecords.Record) < recordPageSize ||
			int64(len(records)) >= tea.Int64Value(response.Body.TotalCount) {
			break
		}
	}

	return records, nil
}

// CreateTXTRecord 添加TXT记录
func (p *DNSProvider) CreateTXTRecord(ctx context.Context, zoneID, name, value string) (string, error) {
	p.logger.Debugf("添加记录: %s.%s -> %s", name, zoneID, value)

	request := &alidns.AddDomainRecordRequest{
		DomainName: tea.String(zoneID),
		RR:         tea.String(name),
		Type:       tea.String(provider.RecordTypeTXT),
		Value:      tea.String(value),
	}

	response, err := p.client.AddDomainRecord(request)
	if err != nil {
		return "", fmt.Errorf("添加DNS记录失败: %w", err)
	}
	if response.Body == nil || tea.StringValue(response.Body.RecordId) == "" {
		return "", fmt.Errorf("添加DNS记录失败: 响应中缺少记录ID")
	}

	return tea.StringValue(response.Body.RecordId), nil
}

// DeleteRecord 删除DNS记录
func (p *DNSProvider) DeleteRecord(ctx context.Context, zoneID, recordID string) error {
	if recordID == "" {
		return provider.ErrInvalidRecordID
	}

	p.logger.Debugf("删除记录: ID=%s", recordID)

	request := &alidns.DeleteDomainRecordRequest{
		RecordId: tea.String(recordID),
	}

	if _, err := p.client.DeleteDomainRecord(request); err != nil {
		return fmt.Errorf("删除DNS记录失败: %w", err)
	}
	return nil
}
