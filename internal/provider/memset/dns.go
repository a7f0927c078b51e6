package memset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"dns01-hook/internal/config"
	"dns01-hook/internal/provider"
)

// defaultTTL 0 表示使用 Zone 的默认 TTL
const defaultTTL = 0

// ID 接受字符串或数字形式的ID
type ID string

// UnmarshalJSON 实现 json.Unmarshaler
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	*id = ID(data)
	return nil
}

type zoneDomain struct {
	Domain string `json:"domain"`
	ZoneID ID     `json:"zone_id"`
}

type zoneRecord struct {
	ID      ID     `json:"id"`
	ZoneID  ID     `json:"zone_id"`
	Record  string `json:"record"`
	Type    string `json:"type"`
	Address string `json:"address"`
	TTL     int    `json:"ttl"`
}

type zoneInfo struct {
	ID      ID            `json:"id"`
	Records []*zoneRecord `json:"records"`
}

type jobInfo struct {
	ID       ID     `json:"id"`
	Finished bool   `json:"finished"`
	Error    bool   `json:"error"`
	Status   string `json:"status"`
}

// DNSProvider Memset DNS提供商
type DNSProvider struct {
	client *Client
	logger *logrus.Entry
}

// NewDNSProvider 创建 Memset DNS提供商
func NewDNSProvider(cfg *config.MemsetConfig, logger *logrus.Entry) (*DNSProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("memset: %w", config.ErrMissingCredential)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = config.DefaultMemsetEndpoint
	}

	return &DNSProvider{
		client: NewClient(endpoint, cfg.APIKey, cfg.RateLimit),
		logger: logger.WithField("provider", "memset"),
	}, nil
}

// Name 返回提供商名称
func (p *DNSProvider) Name() string {
	return "memset"
}

// ListZones 列出账户下所有 Zone (dns.zone_domain_list)
func (p *DNSProvider) ListZones(ctx context.Context) ([]provider.Zone, error) {
	var domains []zoneDomain
	if err := p.client.Call(ctx, "dns.zone_domain_list", nil, &domains); err != nil {
		return nil, fmt.Errorf("获取Zone列表失败: %w", err)
	}

	zones := make([]provider.Zone, 0, len(domains))
	for _, d := range domains {
		zones = append(zones, provider.Zone{
			ID:   string(d.ZoneID),
			Apex: strings.TrimSuffix(strings.ToLower(d.Domain), "."),
		})
	}
	return zones, nil
}

// ZoneRecords 列出 Zone 内全部记录 (dns.zone_info)
func (p *DNSProvider) ZoneRecords(ctx context.Context, zoneID string) ([]*provider.DNSRecord, error) {
	var info zoneInfo
	if err := p.client.Call(ctx, "dns.zone_info", map[string]interface{}{"id": zoneID}, &info); err != nil {
		return nil, fmt.Errorf("获取DNS记录列表失败: %w", err)
	}

	records := make([]*provider.DNSRecord, 0, len(info.Records))
	for _, r := range info.Records {
		if r == nil {
			continue
		}
		records = append(records, &provider.DNSRecord{
			RecordID: string(r.ID),
			ZoneID:   zoneID,
			Name:     r.Record,
			Type:     r.Type,
			Value:    r.Address,
			TTL:      r.TTL,
		})
	}
	return records, nil
}

// CreateTXTRecord 创建TXT记录 (dns.zone_record_create)
func (p *DNSProvider) CreateTXTRecord(ctx context.Context, zoneID, name, value string) (string, error) {
	p.logger.Debugf("添加记录: %s -> %s (Zone: %s)", name, value, zoneID)

	params := map[string]interface{}{
		"zone_id": zoneID,
		"type":    provider.RecordTypeTXT,
		"record":  name,
		"address": value,
		"ttl":     defaultTTL,
	}

	var created zoneRecord
	if err := p.client.Call(ctx, "dns.zone_record_create", params, &created); err != nil {
		return "", fmt.Errorf("添加DNS记录失败: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("添加DNS记录失败: 响应中缺少记录ID")
	}
	return string(created.ID), nil
}

// DeleteRecord 删除DNS记录 (dns.zone_record_delete)
func (p *DNSProvider) DeleteRecord(ctx context.Context, zoneID, recordID string) error {
	if recordID == "" {
		return provider.ErrInvalidRecordID
	}

	p.logger.Debugf("删除记录: ID=%s", recordID)

	if err := p.client.Call(ctx, "dns.zone_record_delete", map[string]interface{}{"id": recordID}, nil); err != nil {
		return fmt.Errorf("删除DNS记录失败: %w", err)
	}
	return nil
}

// Reload 触发 Zone 发布 (dns.reload)
func (p *DNSProvider) Reload(ctx context.Context) (string, error) {
	var job jobInfo
	if err := p.client.Call(ctx, "dns.reload", nil, &job); err != nil {
		return "", fmt.Errorf("触发DNS发布失败: %w", err)
	}
	if job.ID == "" {
		return "", fmt.Errorf("触发DNS发布失败: 响应中缺少任务ID")
	}
	return string(job.ID), nil
}

// JobStatus 查询任务状态 (job.status)
func (p *DNSProvider) JobStatus(ctx context.Context, jobID string) (*provider.Job, error) {
	var job jobInfo
	if err := p.client.Call(ctx, "job.status", map[string]interface{}{"id": jobID}, &job); err != nil {
		return nil, fmt.Errorf("查询任务状态失败: %w", err)
	}
	return &provider.Job{
		ID:       jobID,
		Finished: job.Finished,
		Failed:   job.Error,
		Status:   job.Status,
	}, nil
}
