package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingCredential 所选提供商缺少凭证
	ErrMissingCredential = errors.New("缺少DNS提供商凭证")

	// ErrUnknownProvider 不支持的提供商
	ErrUnknownProvider = errors.New("不支持的DNS提供商")
)

const (
	// EnvConfigPath 配置文件路径的环境变量
	EnvConfigPath = "DNS01_HOOK_CONFIG"

	DefaultMemsetEndpoint = "https://api.memset.com/v1/jsonrpc/"
)

// Default 返回带默认值的配置
func Default() *Config {
	return &Config{
		Provider: "memset",
		Providers: ProvidersConfig{
			Memset: MemsetConfig{
				Endpoint:  DefaultMemsetEndpoint,
				RateLimit: 2,
			},
		},
		Timing: TimingConfig{
			ReloadInterval:      10 * time.Second,
			SettleDelay:         10 * time.Second,
			ReloadTimeout:       10 * time.Minute,
			PropagationInterval: 30 * time.Second,
			PropagationTimeout:  30 * time.Minute,
			QueryTimeout:        5 * time.Second,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load 加载配置：默认值 < YAML 文件 < .env < 环境变量
// path 为空时读取 DNS01_HOOK_CONFIG，仍为空则不读取配置文件。
func Load(path string) (*Config, error) {
	config := Default()

	// .env 不存在时忽略
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 失败: %w", err)
	}

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("解析环境变量失败: %w", err)
	}

	applyDefaults(config)

	if err := validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyDefaults 轮询间隔不能为 0
func applyDefaults(config *Config) {
	def := Default()

	config.Provider = strings.ToLower(strings.TrimSpace(config.Provider))
	if config.Provider == "" {
		config.Provider = def.Provider
	}
	if config.Providers.Memset.Endpoint == "" {
		config.Providers.Memset.Endpoint = def.Providers.Memset.Endpoint
	}
	if config.Providers.Memset.RateLimit <= 0 {
		config.Providers.Memset.RateLimit = def.Providers.Memset.RateLimit
	}
	if config.Timing.ReloadInterval <= 0 {
		config.Timing.ReloadInterval = def.Timing.ReloadInterval
	}
	if config.Timing.PropagationInterval <= 0 {
		config.Timing.PropagationInterval = def.Timing.PropagationInterval
	}
	if config.Timing.QueryTimeout <= 0 {
		config.Timing.QueryTimeout = def.Timing.QueryTimeout
	}
	if config.Timing.SettleDelay < 0 {
		config.Timing.SettleDelay = 0
	}
	if config.Webhook.Timeout <= 0 {
		config.Webhook.Timeout = 30 * time.Second
	}
	if config.Webhook.Retries <= 0 {
		config.Webhook.Retries = 3
	}
}

// validate 验证所选提供商的凭证是否完整
func validate(config *Config) error {
	providers := config.Providers

	switch config.Provider {
	case "memset":
		if providers.Memset.APIKey == "" {
			return fmt.Errorf("%w: memset 需要 MEMSET_KEY", ErrMissingCredential)
		}
	case "aliyun":
		if providers.Aliyun.AccessKeyID == "" || providers.Aliyun.AccessKeySecret == "" {
			return fmt.Errorf("%w: aliyun 凭证不完整", ErrMissingCredential)
		}
	case "tencent":
		if providers.Tencent.SecretID == "" || providers.Tencent.SecretKey == "" {
			return fmt.Errorf("%w: tencent 凭证不完整", ErrMissingCredential)
		}
	case "huawei":
		if providers.Huawei.AccessKey == "" || providers.Huawei.SecretKey == "" {
			return fmt.Errorf("%w: huawei 凭证不完整", ErrMissingCredential)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownProvider, config.Provider)
	}

	if config.Webhook.Enabled && config.Webhook.URL == "" {
		return fmt.Errorf("webhook 已启用但未配置 url")
	}

	return nil
}
