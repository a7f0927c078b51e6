package config

import (
	"strings"
	"time"
)

// Config 配置结构，启动时构建一次并传递给所有组件
type Config struct {
	// DNS提供商: memset, aliyun, tencent, huawei
	Provider string `yaml:"provider" env:"DNS01_PROVIDER"`

	// 云平台凭证配置
	Providers ProvidersConfig `yaml:"providers"`

	// 传播检查使用的DNS服务器，空则使用系统默认
	DNSServers ServerList `yaml:"dns_servers" env:"DNS_SERVERS"`

	// 轮询时间策略
	Timing TimingConfig `yaml:"timing"`

	// 日志
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"` // text, json

	// deploy_cert 附加动作
	Deploy DeployConfig `yaml:"deploy"`

	// Webhook 通知配置
	Webhook WebhookConfig `yaml:"webhook"`
}

// ProvidersConfig 云平台凭证配置
type ProvidersConfig struct {
	Memset  MemsetConfig  `yaml:"memset"`
	Aliyun  AliyunConfig  `yaml:"aliyun"`
	Tencent TencentConfig `yaml:"tencent"`
	Huawei  HuaweiConfig  `yaml:"huawei"`
}

// MemsetConfig Memset 配置
type MemsetConfig struct {
	APIKey    string  `yaml:"api_key" env:"MEMSET_KEY"`
	Endpoint  string  `yaml:"endpoint" env:"MEMSET_ENDPOINT"`
	RateLimit float64 `yaml:"rate_limit" env:"MEMSET_RATE_LIMIT"` // 每秒请求数
}

// AliyunConfig 阿里云配置
type AliyunConfig struct {
	AccessKeyID     string `yaml:"access_key_id" env:"ALIYUN_ACCESS_KEY_ID"`
	AccessKeySecret string `yaml:"access_key_secret" env:"ALIYUN_ACCESS_KEY_SECRET"`
	Region          string `yaml:"region" env:"ALIYUN_REGION"`
}

// TencentConfig 腾讯云配置
type TencentConfig struct {
	SecretID  string `yaml:"secret_id" env:"TENCENT_SECRET_ID"`
	SecretKey string `yaml:"secret_key" env:"TENCENT_SECRET_KEY"`
	Region    string `yaml:"region" env:"TENCENT_REGION"`
}

// HuaweiConfig 华为云配置
type HuaweiConfig struct {
	AccessKey string `yaml:"access_key" env:"HUAWEI_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"HUAWEI_SECRET_KEY"`
	Region    string `yaml:"region" env:"HUAWEI_REGION"`
	ProjectID string `yaml:"project_id" env:"HUAWEI_PROJECT_ID"`
}

// TimingConfig 轮询时间策略，超时为 0 表示不限时
type TimingConfig struct {
	ReloadInterval      time.Duration `yaml:"reload_interval" env:"RELOAD_INTERVAL"`
	SettleDelay         time.Duration `yaml:"settle_delay" env:"SETTLE_DELAY"`
	ReloadTimeout       time.Duration `yaml:"reload_timeout" env:"RELOAD_TIMEOUT"`
	PropagationInterval time.Duration `yaml:"propagation_interval" env:"PROPAGATION_INTERVAL"`
	PropagationTimeout  time.Duration `yaml:"propagation_timeout" env:"PROPAGATION_TIMEOUT"`
	QueryTimeout        time.Duration `yaml:"query_timeout" env:"DNS_QUERY_TIMEOUT"`
}

// DeployConfig deploy_cert 附加动作，默认全部关闭
type DeployConfig struct {
	InstallDir  string `yaml:"install_dir" env:"DEPLOY_INSTALL_DIR"`
	PostCommand string `yaml:"post_command" env:"DEPLOY_POST_COMMAND"`
	Upload      bool   `yaml:"upload" env:"DEPLOY_UPLOAD"` // 上传到云平台证书库
}

// WebhookConfig Webhook 通知配置
type WebhookConfig struct {
	Enabled      bool              `yaml:"enabled" env:"WEBHOOK_ENABLED"`
	URL          string            `yaml:"url" env:"WEBHOOK_URL"`
	Headers      map[string]string `yaml:"headers,omitempty"`
	Events       []string          `yaml:"events,omitempty"`
	Timeout      time.Duration     `yaml:"timeout,omitempty"`
	Retries      int               `yaml:"retries,omitempty"`
	BodyTemplate string            `yaml:"body_template,omitempty"`
}

// ServerList 空白分隔的DNS服务器列表
//
// 环境变量按空白拆分；YAML 既可以写列表也可以写单个字符串。
type ServerList []string

// UnmarshalText 实现 encoding.TextUnmarshaler
func (l *ServerList) UnmarshalText(text []byte) error {
	*l = strings.Fields(string(text))
	return nil
}
