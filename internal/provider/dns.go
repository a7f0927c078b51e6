package provider

import "context"

// DNSProvider DNS提供商接口
type DNSProvider interface {
	// Name 返回提供商名称
	Name() string

	// ListZones 列出账户下所有 Zone
	ListZones(ctx context.Context) ([]Zone, error)

	// ZoneRecords 列出 Zone 内全部记录
	ZoneRecords(ctx context.Context, zoneID string) ([]*DNSRecord, error)

	// CreateTXTRecord 创建TXT记录，返回记录ID
	// name: 相对主机记录 (如 _acme-challenge)
	CreateTXTRecord(ctx context.Context, zoneID, name, value string) (string, error)

	// DeleteRecord 删除DNS记录
	DeleteRecord(ctx context.Context, zoneID, recordID string) error
}

// Reloader 需要显式发布 Zone 变更的提供商
//
// 不实现该接口的提供商在创建记录后立即生效。
type Reloader interface {
	// Reload 触发 Zone 发布，返回任务ID
	Reload(ctx context.Context) (string, error)

	// JobStatus 查询任务状态
	JobStatus(ctx context.Context, jobID string) (*Job, error)
}
