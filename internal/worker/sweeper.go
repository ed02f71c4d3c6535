// Package worker 后台定时任务
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dryshift/internal/notify"
	"dryshift/internal/service"
)

const sweepLockKey = "drying:sweep"

// Locker 多实例部署时的互斥锁，由 pkg/redis 实现；未配置 Redis 时为 nil
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Sweeper 定时清扫到期的烘干机占用并发送结束通知
// 同一条占用只会被一次清扫返回，多实例同时运行也不会重复通知
type Sweeper struct {
	drying     service.DryingService
	dispatcher *notify.Dispatcher
	locker     Locker
	interval   time.Duration
	logger     *zap.Logger
}

// NewSweeper 创建 Sweeper；locker 可为 nil
func NewSweeper(drying service.DryingService, dispatcher *notify.Dispatcher, locker Locker, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		drying:     drying,
		dispatcher: dispatcher,
		locker:     locker,
		interval:   interval,
		logger:     logger,
	}
}

// Run 启动时立即清扫一次，之后按间隔轮询，直到 ctx 取消
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("烘干机清扫任务启动", zap.Duration("interval", s.interval))
	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("烘干机清扫任务停止")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce 执行一次清扫，返回本次结束的占用数
func (s *Sweeper) RunOnce(ctx context.Context) int {
	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx, sweepLockKey, s.interval/2)
		if err != nil {
			// 锁不可用时照常清扫，删除语句本身保证不重复
			s.logger.Warn("获取清扫锁失败", zap.Error(err))
		} else if !ok {
			s.logger.Debug("其他实例正在清扫，跳过本轮")
			return 0
		}
	}

	expired, err := s.drying.SweepExpired(ctx)
	if err != nil {
		s.logger.Error("清扫到期烘干记录失败", zap.Error(err))
		return 0
	}

	for _, e := range expired {
		s.dispatcher.Dispatch(ctx, e.Event)
	}
	return len(expired)
}
