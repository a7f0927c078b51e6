package huawei

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/huaweicloud/huaweicloud-sdk-go-v3/core/auth/basic"
	dns "github.com/huaweicloud/huaweicloud-sdk-go-v3/services/dns/v2"
	dnsModel "github.com/huaweicloud/huaweicloud-sdk-go-v3/services/dns/v2/model"
	dnsRegion "github.com/huaweicloud/huaweicloud-sdk-go-v3/services/dns/v2/region"
	"github.com/sirupsen/logrus"

	"dns01-hook/internal/config"
	"dns01-hook/internal/provider"
)

const pageLimit int32 = 500

// recordSetAPI 用到的华为云DNS接口，*dns.DnsClient 实现该接口
type recordSetAPI interface {
	ListPublicZones(request *dnsModel.ListPublicZonesRequest) (*dnsModel.ListPublicZonesResponse, error)
	ListRecordSetsByZone(request *dnsModel.ListRecordSetsByZoneRequest) (*dnsModel.ListRecordSetsByZoneResponse, error)
	ShowRecordSet(request *dnsModel.ShowRecordSetRequest) (*dnsModel.ShowRecordSetResponse, error)
	CreateRecordSet(request *dnsModel.CreateRecordSetRequest) (*dnsModel.CreateRecordSetResponse, error)
	UpdateRecordSet(request *dnsModel.UpdateRecordSetRequest) (*dnsModel.UpdateRecordSetResponse, error)
	DeleteRecordSet(request *dnsModel.DeleteRecordSetRequest) (*dnsModel.DeleteRecordSetResponse, error)
}

// DNSProvider 华为云DNS提供商
//
// 华为云记录集使用绝对域名 (带末尾的 .)，TXT 值带引号；这里统一转换为相对名和原始值。
// 同名同类型只能有一个记录集，多个 TXT 值放在同一记录集中，
// 因此记录ID由 "<记录集ID>/<值>" 组成，删除时只移除对应的值。
type DNSProvider struct {
	client recordSetAPI
	logger *logrus.Entry

	mu    sync.Mutex
	zones map[string]string // zoneID -> apex
}

// NewDNSProvider 创建华为云DNS提供商
func NewDNSProvider(cfg *config.HuaweiConfig, logger *logrus.Entry) (*DNSProvider, error) {
	auth := basic.NewCredentialsBuilder().
		WithAk(cfg.AccessKey).
		WithSk(cfg.SecretKey).
		WithProjectId(cfg.ProjectID).
		Build()

	region := cfg.Region
	if region == "" {
		region = "cn-north-4"
	}

	regionObj, err := dnsRegion.SafeValueOf(region)
	if err != nil {
		return nil, fmt.Errorf("无效的区域: %s", region)
	}

	hcClient, err := dns.DnsClientBuilder().
		WithRegion(regionObj).
		WithCredential(auth).
		SafeBuild()
	if err != nil {
		return nil, fmt.Errorf("创建华为云DNS客户端失败: %w", err)
	}

	return newDNSProvider(dns.NewDnsClient(hcClient), logger), nil
}

func newDNSProvider(client recordSetAPI, logger *logrus.Entry) *DNSProvider {
	return &DNSProvider{
		client: client,
		logger: logger.WithField("provider", "huawei"),
		zones:  make(map[string]string),
	}
}

// Name 返回提供商名称
func (p *DNSProvider) Name() string {
	return "huawei"
}

// ListZones 分页列出公网 Zone
func (p *DNSProvider) ListZones(ctx context.Context) ([]provider.Zone, error) {
	var zones []provider.Zone

	limit := pageLimit
	var offset int32
	for {
		request := &dnsModel.ListPublicZonesRequest{
			Limit:  &limit,
			Offset: &offset,
		}

		response, err := p.client.ListPublicZones(request)
		if err != nil {
			return nil, fmt.Errorf("获取Zone列表失败: %w", err)
		}
		if response.Zones == nil {
			break
		}

		p.mu.Lock()
		for _, zone := range *response.Zones {
			if zone.Id == nil || zone.Name == nil {
				continue
			}
			apex := strings.ToLower(strings.TrimSuffix(*zone.Name, "."))
			p.zones[*zone.Id] = apex
			zones = append(zones, provider.Zone{ID: *zone.Id, Apex: apex})
		}
		p.mu.Unlock()

		if int32(len(*response.Zones)) < limit {
			break
		}
		offset += limit
	}

	return zones, nil
}

// zoneApex 返回 Zone 的根域名，缓存未命中时重新拉取 Zone 列表
func (p *DNSProvider) zoneApex(ctx context.Context, zoneID string) (string, error) {
	p.mu.Lock()
	apex, ok := p.zones[zoneID]
	p.mu.Unlock()
	if ok {
		return apex, nil
	}

	if _, err := p.ListZones(ctx); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if apex, ok := p.zones[zoneID]; ok {
		return apex, nil
	}
	return "", fmt.Errorf("zone %q: %w", zoneID, provider.ErrZoneNotFound)
}

// recordSets 分页列出 Zone 内全部记录集
func (p *DNSProvider) recordSets(zoneID string) ([]dnsModel.ListRecordSets, error) {
	var sets []dnsModel.ListRecordSets

	limit := pageLimit
	var offset int32
	for {
		request := &dnsModel.ListRecordSetsByZoneRequest{
			ZoneId: zoneID,
			Limit:  &limit,
			Offset: &offset,
		}

		response, err := p.client.ListRecordSetsByZone(request)
		if err != nil {
			return nil, fmt.Errorf("获取DNS记录列表失败: %w", err)
		}
		if response.Recordsets == nil {
			break
		}

		sets = append(sets, *response.Recordsets...)
		if int32(len(*response.Recordsets)) < limit {
			break
		}
		offset += limit
	}

	return sets, nil
}

// ZoneRecords 列出 Zone 内全部记录，每个值一条
func (p *DNSProvider) ZoneRecords(ctx context.Context, zoneID string) ([]*provider.DNSRecord, error) {
	apex, err := p.zoneApex(ctx, zoneID)
	if err != nil {
		return nil, err
	}

	sets, err := p.recordSets(zoneID)
	if err != nil {
		return nil, err
	}

	var records []*provider.DNSRecord
	for _, set := range sets {
		if set.Id == nil {
			continue
		}

		recordType := stringOf(set.Type)
		name := ""
		if set.Name != nil {
			name = relativeName(*set.Name, apex)
		}

		var ttl int
		if set.Ttl != nil {
			ttl = int(*set.Ttl)
		}

		for _, value := range valuesOf(set.Records) {
			if recordType == provider.RecordTypeTXT {
				value = unquote(value)
			}
			records = append(records, &provider.DNSRecord{
				RecordID: joinRecordID(*set.Id, value),
				ZoneID:   zoneID,
				Name:     name,
				Type:     recordType,
				Value:    value,
				TTL:      ttl,
			})
		}
	}

	return records, nil
}

// CreateTXTRecord 同名TXT记录集存在时追加值，否则新建记录集
func (p *DNSProvider) CreateTXTRecord(ctx context.Context, zoneID, name, value string) (string, error) {
	apex, err := p.zoneApex(ctx, zoneID)
	if err != nil {
		return "", err
	}

	recordName := name + "." + apex + "."
	p.logger.Debugf("添加记录: %s -> %s", recordName, value)

	sets, err := p.recordSets(zoneID)
	if err != nil {
		return "", err
	}

	for _, set := range sets {
		if set.Id == nil || stringOf(set.Type) != provider.RecordTypeTXT ||
			relativeName(stringOf(set.Name), apex) != strings.ToLower(name) {
			continue
		}

		values, added := appendValue(valuesOf(set.Records), value)
		if added {
			if err := p.updateValues(zoneID, *set.Id, recordName, set.Ttl, values); err != nil {
				return "", fmt.Errorf("添加DNS记录失败: %w", err)
			}
		}
		return joinRecordID(*set.Id, value), nil
	}

	request := &dnsModel.CreateRecordSetRequest{
		ZoneId: zoneID,
		Body: &dnsModel.CreateRecordSetRequestBody{
			Name:    recordName,
			Type:    provider.RecordTypeTXT,
			Records: []string{strconv.Quote(value)},
		},
	}

	response, err := p.client.CreateRecordSet(request)
	if err != nil {
		return "", fmt.Errorf("添加DNS记录失败: %w", err)
	}
	if response.Id == nil {
		return "", fmt.Errorf("添加DNS记录失败: 响应中缺少记录ID")
	}

	return joinRecordID(*response.Id, value), nil
}

// DeleteRecord 从记录集中移除对应的值，记录集为空时删除记录集
func (p *DNSProvider) DeleteRecord(ctx context.Context, zoneID, recordID string) error {
	setID, value := splitRecordID(recordID)
	if setID == "" {
		return provider.ErrInvalidRecordID
	}

	p.logger.Debugf("删除记录: ID=%s", recordID)

	if value != "" {
		set, err := p.client.ShowRecordSet(&dnsModel.ShowRecordSetRequest{
			ZoneId:      zoneID,
			RecordsetId: setID,
		})
		if err != nil {
			return fmt.Errorf("查询记录集失败: %w", err)
		}

		values := valuesOf(set.Records)
		remaining := removeValue(values, value)
		if len(remaining) == len(values) {
			return fmt.Errorf("record %q: %w", recordID, provider.ErrRecordNotFound)
		}
		if len(remaining) > 0 {
			if err := p.updateValues(zoneID, setID, stringOf(set.Name), set.Ttl, remaining); err != nil {
				return fmt.Errorf("删除DNS记录失败: %w", err)
			}
			return nil
		}
	}

	request := &dnsModel.DeleteRecordSetRequest{
		ZoneId:      zoneID,
		RecordsetId: setID,
	}
	if _, err := p.client.DeleteRecordSet(request); err != nil {
		return fmt.Errorf("删除DNS记录失败: %w", err)
	}
	return nil
}

// updateValues 覆盖记录集的值，values 为带引号的原始形式
func (p *DNSProvider) updateValues(zoneID, setID, name string, ttl *int32, values []string) error {
	recordType := provider.RecordTypeTXT
	request := &dnsModel.UpdateRecordSetRequest{
		ZoneId:      zoneID,
		RecordsetId: setID,
		Body: &dnsModel.UpdateRecordSetReq{
			Name:    &name,
			Type:    &recordType,
			Ttl:     ttl,
			Records: &values,
		},
	}
	_, err := p.client.UpdateRecordSet(request)
	return err
}

// joinRecordID 记录集ID与值组成记录ID
func joinRecordID(setID, value string) string {
	return setID + "/" + value
}

// splitRecordID 没有 / 时整个字符串为记录集ID
func splitRecordID(recordID string) (setID, value string) {
	setID, value, _ = strings.Cut(recordID, "/")
	return setID, value
}

// appendValue 值不存在时追加，返回新的值列表 (带引号)
func appendValue(records []string, value string) ([]string, bool) {
	for _, r := range records {
		if unquote(r) == value {
			return records, false
		}
	}
	return append(append([]string(nil), records...), strconv.Quote(value)), true
}

// removeValue 移除与 value 相同的值
func removeValue(records []string, value string) []string {
	var out []string
	for _, r := range records {
		if unquote(r) != value {
			out = append(out, r)
		}
	}
	return out
}

// relativeName _acme-challenge.example.com. -> _acme-challenge
func relativeName(name, apex string) string {
	name = strings.ToLower(strings.TrimSuffix(name, "."))
	if name == apex {
		return "@"
	}
	return strings.TrimSuffix(name, "."+apex)
}

// unquote 去掉 TXT 值两侧的引号
func unquote(value string) string {
	if s, err := strconv.Unquote(value); err == nil {
		return s
	}
	return strings.Trim(value, `"`)
}

func stringOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func valuesOf(v *[]string) []string {
	if v == nil {
		return nil
	}
	return *v
}
