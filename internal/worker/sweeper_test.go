package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dryshift/config"
	"dryshift/internal/model"
	"dryshift/internal/notify"
	"dryshift/internal/service"
	"dryshift/pkg/redis"
)

// ── 测试辅助 ──

type fakeDrying struct {
	service.DryingService

	mu      sync.Mutex
	pending []service.ExpiredReservation
	calls   int
	err     error
}

func (f *fakeDrying) SweepExpired(context.Context) ([]service.ExpiredReservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := f.pending
	f.pending = nil
	return out, nil
}

func (f *fakeDrying) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (r *recordingNotifier) Send(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func expiredFor(unit int, user int64) service.ExpiredReservation {
	return service.ExpiredReservation{
		Reservation: model.DryingSession{ID: int64(unit), DehydratorID: unit, UserID: user},
		Event:       notify.Event{Type: notify.EventDryingFinished, UnitID: unit, UserID: user},
	}
}

func newTestSweeper(drying *fakeDrying, locker Locker) (*Sweeper, *recordingNotifier) {
	rec := &recordingNotifier{}
	d := notify.NewDispatcher(rec, &config.NotifyConfig{ChatID: -100}, zap.NewNop())
	return NewSweeper(drying, d, locker, time.Minute, zap.NewNop()), rec
}

// ── RunOnce ──

func TestSweeper_RunOnce_NotifiesChatAndOwner(t *testing.T) {
	drying := &fakeDrying{pending: []service.ExpiredReservation{expiredFor(1, 42), expiredFor(2, 43)}}
	s, rec := newTestSweeper(drying, nil)

	n := s.RunOnce(context.Background())
	assert.Equal(t, 2, n)
	assert.Equal(t, 4, rec.count(), "每条到期记录通知群聊与占用人")

	assert.Equal(t, 0, s.RunOnce(context.Background()), "已清扫的记录不应再次返回")
}

func TestSweeper_RunOnce_StorageError(t *testing.T) {
	drying := &fakeDrying{err: errors.New("connection refused")}
	s, rec := newTestSweeper(drying, nil)

	assert.Equal(t, 0, s.RunOnce(context.Background()))
	assert.Equal(t, 0, rec.count())
}

func TestSweeper_RunOnce_SkipsWhenLocked(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(&config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	drying := &fakeDrying{pending: []service.ExpiredReservation{expiredFor(1, 42)}}
	first, _ := newTestSweeper(drying, client)
	second, _ := newTestSweeper(drying, client)

	assert.Equal(t, 1, first.RunOnce(context.Background()))
	assert.Equal(t, 0, second.RunOnce(context.Background()))
	assert.Equal(t, 1, drying.callCount(), "持锁期间另一实例不应访问存储")

	mr.FastForward(time.Minute)
	second.RunOnce(context.Background())
	assert.Equal(t, 2, drying.callCount(), "锁过期后应恢复清扫")
}

// ── Run ──

func TestSweeper_Run_StopsOnCancel(t *testing.T) {
	drying := &fakeDrying{pending: []service.ExpiredReservation{expiredFor(1, 42)}}
	s, rec := newTestSweeper(drying, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 10*time.Millisecond, "启动时应立即清扫一次")
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("取消后 Run 应返回")
	}
}
