package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"text/template"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"dns01-hook/internal/config"
)

// EventType 事件类型
type EventType string

const (
	EventChallengeDeployed EventType = "challenge_deployed" // 验证记录已生效
	EventChallengeCleaned  EventType = "challenge_cleaned"  // 验证记录已删除
	EventChallengeTimeout  EventType = "challenge_timeout"  // 发布或传播等待超时
	EventCertDeployed      EventType = "cert_deployed"      // 证书已部署
)

// EventData 事件数据
type EventData struct {
	Event     string                 `json:"event"`          // 事件类型
	Domain    string                 `json:"domain"`         // 域名
	Timestamp string                 `json:"timestamp"`      // 时间戳
	Message   string                 `json:"message"`        // 消息
	Data      map[string]interface{} `json:"data,omitempty"` // 额外数据
}

// WebhookNotifier Webhook 通知器，未启用时为 nil，所有方法可安全调用
type WebhookNotifier struct {
	config *config.WebhookConfig
	client *http.Client
	logger *logrus.Entry

	// 首次重试间隔
	initialInterval time.Duration
}

// NewWebhookNotifier 创建 Webhook 通知器
func NewWebhookNotifier(cfg *config.WebhookConfig, logger *logrus.Entry) *WebhookNotifier {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &WebhookNotifier{
		config:          cfg,
		client:          &http.Client{Timeout: timeout},
		logger:          logger.WithField("component", "webhook"),
		initialInterval: time.Second,
	}
}

// ShouldNotify 检查是否应该发送该事件的通知
func (w *WebhookNotifier) ShouldNotify(eventType EventType) bool {
	if !w.IsEnabled() {
		return false
	}

	// 如果没有配置事件列表，则发送所有事件
	if len(w.config.Events) == 0 {
		return true
	}

	for _, e := range w.config.Events {
		if e == string(eventType) {
			return true
		}
	}
	return false
}

// Notify 发送通知，失败时按指数退避重试 (1s, 2s, 4s...)
func (w *WebhookNotifier) Notify(ctx context.Context, eventType EventType, domain, message string, data map[string]interface{}) error {
	if !w.ShouldNotify(eventType) {
		return nil
	}

	eventData := EventData{
		Event:     string(eventType),
		Domain:    domain,
		Timestamp: time.Now().Format(time.RFC3339),
		Message:   message,
		Data:      data,
	}

	body, err := w.buildBody(eventData)
	if err != nil {
		return err
	}

	retries := w.config.Retries
	if retries <= 0 {
		retries = 3
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.initialInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries-1)), ctx)

	operation := func() error {
		return w.send(ctx, body)
	}
	notify := func(err error, wait time.Duration) {
		w.logger.Warnf("Webhook 通知失败: %v，%v 后重试", err, wait)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		w.logger.Errorf("Webhook 通知发送失败 (共尝试 %d 次): %v", retries, err)
		return err
	}

	w.logger.Infof("Webhook 通知发送成功: %s (事件: %s, 域名: %s)", w.config.URL, eventType, domain)
	return nil
}

func (w *WebhookNotifier) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.URL, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("创建请求失败: %w", err))
	}

	// 设置请求头
	req.Header.Set("Content-Type", "application/json")
	for key, value := range w.config.Headers {
		req.Header.Set(key, value)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("Webhook 返回错误状态码: %d", resp.StatusCode)
	}
	return nil
}

// buildBody 配置了模板时用模板生成请求体，模板出错退回默认 JSON
func (w *WebhookNotifier) buildBody(data EventData) ([]byte, error) {
	if w.config.BodyTemplate != "" {
		body, err := renderTemplate(w.config.BodyTemplate, data)
		if err == nil {
			return body, nil
		}
		w.logger.Warnf("渲染 Webhook 请求体模板失败: %v", err)
	}

	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("序列化事件数据失败: %w", err)
	}
	return body, nil
}

// renderTemplate 渲染模板
func renderTemplate(tmplStr string, data EventData) ([]byte, error) {
	tmplData := map[string]interface{}{
		"Event":     data.Event,
		"Domain":    data.Domain,
		"Timestamp": data.Timestamp,
		"Message":   data.Message,
		"Data":      data.Data,
	}

	funcMap := template.FuncMap{
		"toJson": func(v interface{}) string {
			b, err := json.Marshal(v)
			if err != nil {
				return "null"
			}
			return string(b)
		},
	}

	tmpl, err := template.New("webhook").Funcs(funcMap).Parse(tmplStr)
	if err != nil {
		return nil, fmt.Errorf("解析模板失败: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, tmplData); err != nil {
		return nil, fmt.Errorf("渲染模板失败: %w", err)
	}
	return buf.Bytes(), nil
}

// NotifyChallengeDeployed 通知验证记录已生效
func (w *WebhookNotifier) NotifyChallengeDeployed(ctx context.Context, domain, recordID string) error {
	message := fmt.Sprintf("DNS验证记录已生效: %s", domain)
	return w.Notify(ctx, EventChallengeDeployed, domain, message, map[string]interface{}{
		"record_id": recordID,
	})
}

// NotifyChallengeCleaned 通知验证记录已删除
func (w *WebhookNotifier) NotifyChallengeCleaned(ctx context.Context, domain, recordID string) error {
	message := fmt.Sprintf("DNS验证记录已删除: %s", domain)
	return w.Notify(ctx, EventChallengeCleaned, domain, message, map[string]interface{}{
		"record_id": recordID,
	})
}

// NotifyChallengeTimeout 通知等待超时
func (w *WebhookNotifier) NotifyChallengeTimeout(ctx context.Context, domain, reason string) error {
	message := fmt.Sprintf("DNS验证等待超时: %s", domain)
	return w.Notify(ctx, EventChallengeTimeout, domain, message, map[string]interface{}{
		"reason": reason,
	})
}

// NotifyCertDeployed 通知证书已部署
func (w *WebhookNotifier) NotifyCertDeployed(ctx context.Context, domain, fullchain, privkey string) error {
	message := fmt.Sprintf("证书已部署: %s", domain)
	return w.Notify(ctx, EventCertDeployed, domain, message, map[string]interface{}{
		"ssl_certificate":     fullchain,
		"ssl_certificate_key": privkey,
	})
}

// IsEnabled 检查是否启用
func (w *WebhookNotifier) IsEnabled() bool {
	return w != nil && w.config != nil && w.config.Enabled
}
