package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"dryshift/config"
)

// WebhookNotifier 以 JSON POST 将通知推送给聊天前端
type WebhookNotifier struct {
	client *resty.Client
	url    string
	logger *zap.Logger
}

// NewWebhookNotifier 创建 WebhookNotifier
func NewWebhookNotifier(cfg *config.WebhookConfig, logger *zap.Logger) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	return &WebhookNotifier{client: client, url: cfg.URL, logger: logger}
}

func (n *WebhookNotifier) Send(ctx context.Context, msg Message) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(msg).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("webhook 请求失败: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook 返回错误状态: %d", resp.StatusCode())
	}

	n.logger.Debug("webhook 通知已送达",
		zap.Int64("recipient", msg.Recipient),
		zap.String("type", string(msg.Event.Type)),
	)
	return nil
}
