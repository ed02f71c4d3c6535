package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"dryshift/config"
	"dryshift/internal/notify"
	"dryshift/pkg/clock"
	pkgerrors "dryshift/pkg/errors"
)

// ── 测试辅助 ──

var testStart = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func setupTestDryingService() (DryingService, *testEnv, *clock.Fake) {
	env := newTestEnv()
	env.users.add(100, "anna", true)
	env.users.add(200, "bohdan", true)
	env.users.add(300, "", false)
	clk := clock.NewFake(testStart)
	cfg := &config.DryingConfig{Units: []int{1, 2, 3}, SweepInterval: time.Minute, MaxHours: 72}
	return NewDryingService(cfg, env.repo, clk, zap.NewNop()), env, clk
}

// ── Reserve 测试 ──

func TestDryingService_Reserve_Success(t *testing.T) {
	svc, _, _ := setupTestDryingService()

	result, err := svc.Reserve(context.Background(), 1, 100, 2.5)
	if err != nil {
		t.Fatalf("期望成功，实际错误: %v", err)
	}
	r := result.Reservation
	if r.ID == 0 {
		t.Error("期望分配 ID")
	}
	if !r.StartTime.Equal(testStart) {
		t.Errorf("期望开始时间=%v，实际=%v", testStart, r.StartTime)
	}
	if want := testStart.Add(150 * time.Minute); !r.FinishTime.Equal(want) {
		t.Errorf("期望结束时间=%v，实际=%v", want, r.FinishTime)
	}
	if result.Event.Type != notify.EventDryingStarted || result.Event.UnitID != 1 || result.Event.UserID != 100 {
		t.Errorf("事件内容不符: %+v", result.Event)
	}
	if result.Event.DurationMinutes != 150 {
		t.Errorf("期望事件时长=150 分钟，实际=%d", result.Event.DurationMinutes)
	}
}

func TestDryingService_Reserve_Busy(t *testing.T) {
	svc, _, clk := setupTestDryingService()
	ctx := context.Background()

	if _, err := svc.Reserve(ctx, 1, 100, 2); err != nil {
		t.Fatalf("首次占用失败: %v", err)
	}
	clk.Advance(30 * time.Minute)

	_, err := svc.Reserve(ctx, 1, 200, 1)
	if !errors.Is(err, ErrUnitBusy) {
		t.Fatalf("期望 ErrUnitBusy，实际: %v", err)
	}
	var busy *UnitBusyError
	if !errors.As(err, &busy) {
		t.Fatalf("期望 *UnitBusyError，实际: %T", err)
	}
	if busy.OwnerID != 100 {
		t.Errorf("期望占用人=100，实际=%d", busy.OwnerID)
	}
	if want := testStart.Add(2 * time.Hour); !busy.Until.Equal(want) {
		t.Errorf("期望占用到 %v，实际 %v", want, busy.Until)
	}

	// 其他烘干机不受影响
	if _, err := svc.Reserve(ctx, 2, 200, 1); err != nil {
		t.Errorf("期望 2 号烘干机可用，实际错误: %v", err)
	}
}

func TestDryingService_Reserve_AfterExpiry(t *testing.T) {
	svc, _, clk := setupTestDryingService()
	ctx := context.Background()

	if _, err := svc.Reserve(ctx, 1, 100, 1); err != nil {
		t.Fatalf("首次占用失败: %v", err)
	}
	// 到期但尚未清扫，结束时刻即视为空闲
	clk.Advance(time.Hour)
	if _, err := svc.Reserve(ctx, 1, 200, 1); err != nil {
		t.Errorf("到期后期望可再次占用，实际错误: %v", err)
	}
}

func TestDryingService_Reserve_InvalidResource(t *testing.T) {
	svc, _, _ := setupTestDryingService()

	for _, unit := range []int{0, 4, -1} {
		if _, err := svc.Reserve(context.Background(), unit, 100, 1); !errors.Is(err, ErrInvalidResource) {
			t.Errorf("烘干机 %d 期望 ErrInvalidResource，实际: %v", unit, err)
		}
	}
}

func TestDryingService_Reserve_InvalidDuration(t *testing.T) {
	svc, env, _ := setupTestDryingService()

	for _, hours := range []float64{0, -1, math.NaN(), math.Inf(1), 73, 1e-12} {
		if _, err := svc.Reserve(context.Background(), 1, 100, hours); !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("时长 %v 期望 ErrInvalidDuration，实际: %v", hours, err)
		}
	}
	if len(env.drying.sessions) != 0 {
		t.Errorf("非法时长不应写入记录，实际 %d 条", len(env.drying.sessions))
	}
}

func TestDryingService_Reserve_UserChecks(t *testing.T) {
	svc, _, _ := setupTestDryingService()
	ctx := context.Background()

	if _, err := svc.Reserve(ctx, 1, 300, 1); !errors.Is(err, ErrUserNotApproved) {
		t.Errorf("期望 ErrUserNotApproved，实际: %v", err)
	}
	if _, err := svc.Reserve(ctx, 1, 999, 1); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

func TestDryingService_Reserve_StorageError(t *testing.T) {
	svc, env, _ := setupTestDryingService()
	env.drying.err = errMockStorage

	_, err := svc.Reserve(context.Background(), 1, 100, 1)
	if !errors.Is(err, pkgerrors.ErrStorage) {
		t.Errorf("期望 ErrStorage，实际: %v", err)
	}
}

// ── ActiveReservation / ListUnits 测试 ──

func TestDryingService_ActiveAndList(t *testing.T) {
	svc, _, clk := setupTestDryingService()
	ctx := context.Background()

	if _, err := svc.Reserve(ctx, 2, 100, 1); err != nil {
		t.Fatalf("占用失败: %v", err)
	}

	active, err := svc.ActiveReservation(ctx, 2)
	if err != nil || active == nil || active.UserID != 100 {
		t.Fatalf("期望 2 号烘干机被 100 占用，实际 %+v, %v", active, err)
	}
	free, err := svc.ActiveReservation(ctx, 1)
	if err != nil || free != nil {
		t.Errorf("期望 1 号烘干机空闲，实际 %+v, %v", free, err)
	}

	units, err := svc.ListUnits(ctx)
	if err != nil {
		t.Fatalf("ListUnits 失败: %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("期望 3 台烘干机，实际 %d", len(units))
	}
	for _, u := range units {
		if (u.UnitID == 2) != (u.Active != nil) {
			t.Errorf("烘干机 %d 状态不符: %+v", u.UnitID, u.Active)
		}
	}

	clk.Advance(time.Hour)
	if active, _ := svc.ActiveReservation(ctx, 2); active != nil {
		t.Error("到期后期望空闲")
	}
}

// ── SweepExpired 测试 ──

func TestDryingService_SweepExpired_OnlyOnce(t *testing.T) {
	svc, env, clk := setupTestDryingService()
	ctx := context.Background()

	_, _ = svc.Reserve(ctx, 1, 100, 1)
	_, _ = svc.Reserve(ctx, 2, 200, 3)

	clk.Advance(time.Hour)
	expired, err := svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired 失败: %v", err)
	}
	if len(expired) != 1 || expired[0].Reservation.DehydratorID != 1 {
		t.Fatalf("期望仅 1 号烘干机到期，实际 %+v", expired)
	}
	ev := expired[0].Event
	if ev.Type != notify.EventDryingFinished || ev.UserID != 100 {
		t.Errorf("事件内容不符: %+v", ev)
	}

	again, err := svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("第二次 SweepExpired 失败: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("同一记录不应被重复清扫，实际 %d 条", len(again))
	}
	if len(env.drying.sessions) != 1 {
		t.Errorf("期望剩余 1 条占用，实际 %d", len(env.drying.sessions))
	}
}

func TestDryingService_SweepExpired_StorageError(t *testing.T) {
	svc, env, _ := setupTestDryingService()
	env.drying.err = errMockStorage

	if _, err := svc.SweepExpired(context.Background()); !errors.Is(err, pkgerrors.ErrStorage) {
		t.Errorf("期望 ErrStorage，实际: %v", err)
	}
}
