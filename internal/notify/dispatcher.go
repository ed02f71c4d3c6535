// Package notify 将业务事件转换为外发通知。
// 业务服务只返回事件，发送由 Dispatcher 完成，单个接收者失败不影响其他接收者。
package notify

import (
	"context"

	"go.uber.org/zap"

	"dryshift/config"
)

// Dispatcher 按事件类型确定接收者并逐个发送
type Dispatcher struct {
	notifier Notifier
	chatID   int64
	adminIDs []int64
	logger   *zap.Logger
}

// NewDispatcher 创建 Dispatcher
func NewDispatcher(n Notifier, cfg *config.NotifyConfig, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: n,
		chatID:   cfg.ChatID,
		adminIDs: append([]int64(nil), cfg.AdminIDs...),
		logger:   logger,
	}
}

// Recipients 事件的接收者列表（去重，保持顺序）
func (d *Dispatcher) Recipients(ev Event) []int64 {
	var ids []int64
	switch ev.Type {
	case EventDryingFinished:
		ids = []int64{d.chatID, ev.UserID}
	case EventDryingStarted, EventShiftStarted, EventShiftClosed, EventAdHocRecorded:
		ids = []int64{d.chatID}
	case EventUserRegistered:
		ids = d.adminIDs
	case EventUserApproval:
		ids = []int64{ev.UserID}
	}

	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Dispatch 发送事件，返回成功送达的接收者数量
// 发送失败只记录 Warn 日志，不向调用方返回错误
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) int {
	delivered := 0
	for _, to := range d.Recipients(ev) {
		if err := d.notifier.Send(ctx, Message{Recipient: to, Event: ev}); err != nil {
			d.logger.Warn("通知发送失败",
				zap.String("type", string(ev.Type)),
				zap.Int64("recipient", to),
				zap.Error(err),
			)
			continue
		}
		delivered++
	}
	return delivered
}

// DispatchAll 依次发送多个事件
func (d *Dispatcher) DispatchAll(ctx context.Context, events []Event) int {
	delivered := 0
	for _, ev := range events {
		delivered += d.Dispatch(ctx, ev)
	}
	return delivered
}
