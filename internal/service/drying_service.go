package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"dryshift/config"
	"dryshift/internal/model"
	"dryshift/internal/notify"
	"dryshift/internal/repository"
	"dryshift/pkg/clock"
)

// ── 烘干机模块业务错误 ──

var (
	ErrInvalidResource = errors.New("烘干机编号无效")
	ErrInvalidDuration = errors.New("时长无效")
	ErrUnitBusy        = errors.New("烘干机正在使用中")
)

// UnitBusyError 烘干机被占用，携带占用窗口
type UnitBusyError struct {
	UnitID  int
	OwnerID int64
	Start   time.Time
	Until   time.Time
}

func (e *UnitBusyError) Error() string {
	return fmt.Sprintf("烘干机 %d 使用中，预计 %s 结束", e.UnitID, e.Until.Format("15:04"))
}

// Is 使 errors.Is(err, ErrUnitBusy) 成立
func (e *UnitBusyError) Is(target error) bool {
	return target == ErrUnitBusy
}

// ReservationResult 占用成功结果
type ReservationResult struct {
	Reservation model.DryingSession
	Event       notify.Event
}

// UnitStatus 单台烘干机状态，Active 为空表示空闲
type UnitStatus struct {
	UnitID int
	Active *model.DryingSession
}

// ExpiredReservation 已到期并被清扫的占用
type ExpiredReservation struct {
	Reservation model.DryingSession
	Event       notify.Event
}

// DryingService 烘干机占用业务接口
type DryingService interface {
	// Reserve 占用烘干机 hours 小时（可为小数）
	Reserve(ctx context.Context, unitID int, userID int64, hours float64) (*ReservationResult, error)
	// ActiveReservation 当前占用，空闲时返回 nil
	ActiveReservation(ctx context.Context, unitID int) (*model.DryingSession, error)
	ListUnits(ctx context.Context) ([]UnitStatus, error)
	// SweepExpired 删除并返回所有已到期的占用；每条记录只会被返回一次
	SweepExpired(ctx context.Context) ([]ExpiredReservation, error)
}

type dryingService struct {
	units    []int
	maxHours float64
	repo     *repository.Repository
	clock    clock.Clock
	logger   *zap.Logger
}

// NewDryingService 创建 DryingService 实例
func NewDryingService(cfg *config.DryingConfig, repo *repository.Repository, clk clock.Clock, logger *zap.Logger) DryingService {
	return &dryingService{
		units:    append([]int(nil), cfg.Units...),
		maxHours: cfg.MaxHours,
		repo:     repo,
		clock:    clk,
		logger:   logger,
	}
}

// ────────────────────── Reserve ──────────────────────

func (s *dryingService) Reserve(ctx context.Context, unitID int, userID int64, hours float64) (*ReservationResult, error) {
	if !s.validUnit(unitID) {
		return nil, ErrInvalidResource
	}
	d, err := s.hoursToDuration(hours)
	if err != nil {
		return nil, err
	}
	if err := ensureApproved(ctx, s.repo, userID, s.logger); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &model.DryingSession{
		DehydratorID: unitID,
		UserID:       userID,
		StartTime:    now,
		FinishTime:   now.Add(d),
	}

	conflict, err := s.repo.Drying.CreateIfFree(ctx, session)
	if err != nil {
		s.logger.Error("创建烘干记录失败", zap.Int("unit_id", unitID), zap.Int64("user_id", userID), zap.Error(err))
		return nil, storageError(err)
	}
	if conflict != nil {
		return nil, &UnitBusyError{
			UnitID:  unitID,
			OwnerID: conflict.UserID,
			Start:   conflict.StartTime,
			Until:   conflict.FinishTime,
		}
	}

	s.logger.Info("烘干开始",
		zap.Int("unit_id", unitID),
		zap.Int64("user_id", userID),
		zap.Time("finish_time", session.FinishTime),
	)

	return &ReservationResult{
		Reservation: *session,
		Event:       dryingEvent(notify.EventDryingStarted, session, now),
	}, nil
}

// ────────────────────── ActiveReservation ──────────────────────

func (s *dryingService) ActiveReservation(ctx context.Context, unitID int) (*model.DryingSession, error) {
	if !s.validUnit(unitID) {
		return nil, ErrInvalidResource
	}
	active, err := s.repo.Drying.GetActive(ctx, unitID, s.clock.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("查询烘干记录失败", zap.Int("unit_id", unitID), zap.Error(err))
		return nil, storageError(err)
	}
	return active, nil
}

// ────────────────────── ListUnits ──────────────────────

func (s *dryingService) ListUnits(ctx context.Context) ([]UnitStatus, error) {
	active, err := s.repo.Drying.ListActive(ctx, s.clock.Now())
	if err != nil {
		s.logger.Error("列出烘干记录失败", zap.Error(err))
		return nil, storageError(err)
	}

	byUnit := make(map[int]*model.DryingSession, len(active))
	for i := range active {
		a := &active[i]
		if cur, ok := byUnit[a.DehydratorID]; !ok || a.FinishTime.After(cur.FinishTime) {
			byUnit[a.DehydratorID] = a
		}
	}

	statuses := make([]UnitStatus, 0, len(s.units))
	for _, id := range s.units {
		statuses = append(statuses, UnitStatus{UnitID: id, Active: byUnit[id]})
	}
	return statuses, nil
}

// ────────────────────── SweepExpired ──────────────────────

func (s *dryingService) SweepExpired(ctx context.Context) ([]ExpiredReservation, error) {
	now := s.clock.Now()
	expired, err := s.repo.Drying.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Error("清扫到期烘干记录失败", zap.Error(err))
		return nil, storageError(err)
	}

	out := make([]ExpiredReservation, 0, len(expired))
	for i := range expired {
		e := expired[i]
		out = append(out, ExpiredReservation{
			Reservation: e,
			Event:       dryingEvent(notify.EventDryingFinished, &e, now),
		})
	}
	if len(out) > 0 {
		s.logger.Info("烘干结束", zap.Int("count", len(out)))
	}
	return out, nil
}

// ── 辅助函数 ──

func (s *dryingService) validUnit(unitID int) bool {
	for _, id := range s.units {
		if id == unitID {
			return true
		}
	}
	return false
}

// hoursToDuration 校验并换算时长，精度到秒
func (s *dryingService) hoursToDuration(hours float64) (time.Duration, error) {
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours <= 0 {
		return 0, ErrInvalidDuration
	}
	if s.maxHours > 0 && hours > s.maxHours {
		return 0, ErrInvalidDuration
	}
	if hours >= float64(math.MaxInt64)/float64(time.Hour) {
		return 0, ErrInvalidDuration
	}
	d := time.Duration(hours * float64(time.Hour)).Round(time.Second)
	if d <= 0 {
		return 0, ErrInvalidDuration
	}
	return d, nil
}

func dryingEvent(t notify.EventType, s *model.DryingSession, now time.Time) notify.Event {
	start, end := s.StartTime, s.FinishTime
	return notify.Event{
		Type:            t,
		OccurredAt:      now,
		UserID:          s.UserID,
		UnitID:          s.DehydratorID,
		Start:           &start,
		End:             &end,
		DurationMinutes: int64(end.Sub(start) / time.Minute),
	}
}
