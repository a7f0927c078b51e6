package tencent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	sdkerrors "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/errors"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	dnspod "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/dnspod/v20210323"

	"dns01-hook/internal/config"
	"dns01-hook/internal/provider"
)

const recordPageSize = 3000

// DNSProvider 腾讯云DNS提供商 (DNSPod)
//
// Zone 以域名标识，记录写入后立即生效。
type DNSProvider struct {
	client *dnspod.Client
	logger *logrus.Entry
}

// NewDNSProvider 创建腾讯云DNS提供商
func NewDNSProvider(cfg *config.TencentConfig, logger *logrus.Entry) (*DNSProvider, error) {
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "dnspod.tencentcloudapi.com"
	return newDNSProvider(cfg, logger, cpf)
}

func newDNSProvider(cfg *config.TencentConfig, logger *logrus.Entry, cpf *profile.ClientProfile) (*DNSProvider, error) {
	credential := common.NewCredential(cfg.SecretID, cfg.SecretKey)
	client, err := dnspod.NewClient(credential, cfg.Region, cpf)
	if err != nil {
		return nil, fmt.Errorf("创建腾讯云DNSPod客户端失败: %w", err)
	}

	return &DNSProvider{
		client: client,
		logger: logger.WithField("provider", "tencent"),
	}, nil
}

// Name 返回提供商名称
func (p *DNSProvider) Name() string {
	return "tencent"
}

// ListZones 列出账户下所有域名
func (p *DNSProvider) ListZones(ctx context.Context) ([]provider.Zone, error) {
	var zones []provider.Zone

	request := dnspod.NewDescribeDomainListRequest()
	for {
		response, err := p.client.DescribeDomainList(request)
		if err != nil {
			return nil, fmt.Errorf("获取域名列表失败: %w", err)
		}
		if response.Response == nil || len(response.Response.DomainList) == 0 {
			break
		}

		for _, d := range response.Response.DomainList {
			if d.Name == nil {
				continue
			}
			name := strings.ToLower(*d.Name)
			zones = append(zones, provider.Zone{ID: name, Apex: name})
		}

		info := response.Response.DomainCountInfo
		if info == nil || info.AllTotal == nil || uint64(len(zones)) >= *info.AllTotal {
			break
		}
		request.Offset = common.Int64Ptr(int64(len(zones)))
	}

	return zones, nil
}

// ZoneRecords 列出域名下全部解析记录
func (p *DNSProvider) ZoneRecords(ctx context.Context, zoneID string) ([]*provider.DNSRecord, error) {
	var records []*provider.DNSRecord

	request := dnspod.NewDescribeRecordListRequest()
	request.Domain = common.StringPtr(zoneID)
	request.Limit = common.Uint64Ptr(recordPageSize)

	for {
		response, err := p.client.DescribeRecordList(request)
		if err != nil {
			if isNoRecord(err) {
				return records, nil
			}
			return nil, fmt.Errorf("获取DNS记录列表失败: %w", err)
		}
		if response.Response == nil || len(response.Response.RecordList) == 0 {
			break
		}

		for _, record := range response.Response.RecordList {
			records = append(records, &provider.DNSRecord{
				RecordID: strconv.FormatUint(valueOf(record.RecordId), 10),
				ZoneID:   zoneID,
				Name:     stringOf(record.Name),
				Type:     stringOf(record.Type),
				Value:    stringOf(record.Value),
				TTL:      int(valueOf(record.TTL)),
			})
		}

		info := response.Response.RecordCountInfo
		if info == nil || info.TotalCount == nil || uint64(len(records)) >= *info.TotalCount {
			break
		}
		request.Offset = common.Uint64Ptr(uint64(len(records)))
	}

	return records, nil
}

// CreateTXTRecord 添加TXT记录
func (p *DNSProvider) CreateTXTRecord(ctx context.Context, zoneID, name, value string) (string, error) {
	p.logger.Debugf("添加记录: %s.%s -> %s", name, zoneID, value)

	request := dnspod.NewCreateRecordRequest()
	request.Domain = common.StringPtr(zoneID)
	request.SubDomain = common.StringPtr(name)
	request.RecordType = common.StringPtr(provider.RecordTypeTXT)
	request.RecordLine = common.StringPtr("默认")
	request.Value = common.StringPtr(value)

	response, err := p.client.CreateRecord(request)
	if err != nil {
		return "", fmt.Errorf("添加DNS记录失败: %w", err)
	}
	if response.Response == nil || response.Response.RecordId == nil {
		return "", fmt.Errorf("添加DNS记录失败: 响应中缺少记录ID")
	}

	return strconv.FormatUint(*response.Response.RecordId, 10), nil
}

// DeleteRecord 删除DNS记录
func (p *DNSProvider) DeleteRecord(ctx context.Context, zoneID, recordID string) error {
	id, err := strconv.ParseUint(recordID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", provider.ErrInvalidRecordID, recordID)
	}

	p.logger.Debugf("删除记录: ID=%s", recordID)

	request := dnspod.NewDeleteRecordRequest()
	request.Domain = common.StringPtr(zoneID)
	request.RecordId = common.Uint64Ptr(id)

	if _, err := p.client.DeleteRecord(request); err != nil {
		return fmt.Errorf("删除DNS记录失败: %w", err)
	}
	return nil
}

// isNoRecord 域名下没有记录时 DescribeRecordList 返回 ResourceNotFound.NoDataOfRecord
func isNoRecord(err error) bool {
	var sdkErr *sdkerrors.TencentCloudSDKError
	return errors.As(err, &sdkErr) && sdkErr.Code == dnspod.RESOURCENOTFOUND_NODATAOFRECORD
}

func stringOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func valueOf(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}
