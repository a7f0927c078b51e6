package provider

import "errors"

var (
	// ErrZoneNotFound 账户下没有与根域名匹配的 Zone
	ErrZoneNotFound = errors.New("未找到匹配的DNS Zone")

	// ErrRecordNotFound 未找到匹配的DNS记录
	ErrRecordNotFound = errors.New("未找到匹配的DNS记录")

	// ErrInvalidRecordID 记录ID为空或无效
	ErrInvalidRecordID = errors.New("无效的DNS记录ID")
)

// RecordTypeTXT TXT 记录类型
const RecordTypeTXT = "TXT"

// Zone 提供商侧的DNS Zone
type Zone struct {
	ID   string // 提供商内部的 Zone ID
	Apex string // Zone 对应的根域名 (如 example.com)
}

// DNSRecord DNS记录
type DNSRecord struct {
	RecordID string // 记录ID
	ZoneID   string // 所属 Zone
	Name     string // 相对于根域名的主机记录 (如 _acme-challenge.www)
	Type     string // 记录类型
	Value    string // 记录值
	TTL      int    // TTL
}

// Job 提供商的异步发布任务
type Job struct {
	ID       string
	Finished bool
	Failed   bool
	Status   string
}

// Certificate 证书内容
type Certificate struct {
	Certificate string // 证书内容 (PEM格式)
	PrivateKey  string // 私钥 (PEM格式)
	Chain       string // 证书链 (可选)
}
