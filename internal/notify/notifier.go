package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"dryshift/config"
)

// Notifier 通知发送通道
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NewNotifier 按配置创建通知通道
func NewNotifier(cfg *config.NotifyConfig, logger *zap.Logger) (Notifier, error) {
	switch cfg.Driver {
	case "", "log":
		return NewLogNotifier(logger), nil
	case "webhook":
		return NewWebhookNotifier(&cfg.Webhook, logger), nil
	case "mqtt":
		return NewMQTTNotifier(&cfg.MQTT, logger)
	default:
		return nil, fmt.Errorf("未知的通知驱动 %q", cfg.Driver)
	}
}

// LogNotifier 只写日志，用于本地开发
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier 创建 LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.logger.Info("通知",
		zap.Int64("recipient", msg.Recipient),
		zap.String("type", string(msg.Event.Type)),
		zap.Int64("user_id", msg.Event.UserID),
		zap.Time("occurred_at", msg.Event.OccurredAt),
	)
	return nil
}
