package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"dryshift/internal/model"
	"dryshift/internal/notify"
	"dryshift/internal/repository"
	"dryshift/pkg/clock"
)

// ── 班次模块业务错误 ──

var (
	ErrShiftAlreadyActive = errors.New("已有进行中的班次")
	ErrShiftNotFound      = errors.New("班次不存在或已结束")
	ErrInvalidWorkKind    = errors.New("班次类型无效")
)

// ShiftResult 开班结果
type ShiftResult struct {
	Shift model.WorkSession
	Event notify.Event
}

// ClosedShiftSummary 结班结果；时长由起止时间推导
type ClosedShiftSummary struct {
	Shift           model.WorkSession
	Duration        time.Duration
	DurationMinutes int64
	Event           notify.Event
}

// ShiftService 班次状态机：NoShift -> Open -> Closed
type ShiftService interface {
	// Start 开班；用户已有进行中的班次时返回 ErrShiftAlreadyActive
	Start(ctx context.Context, userID int64, kind model.WorkKind, partners []int64) (*ShiftResult, error)
	// ActiveFor 用户进行中的班次，没有时返回 nil
	ActiveFor(ctx context.Context, userID int64) (*model.WorkSession, error)
	// Close 结班，每个班次只能成功一次
	Close(ctx context.Context, shiftID int64, data ClosingData) (*ClosedShiftSummary, error)
}

type shiftService struct {
	repo   *repository.Repository
	clock  clock.Clock
	logger *zap.Logger
}

// NewShiftService 创建 ShiftService 实例
func NewShiftService(repo *repository.Repository, clk clock.Clock, logger *zap.Logger) ShiftService {
	return &shiftService{repo: repo, clock: clk, logger: logger}
}

// ────────────────────── Start ──────────────────────

func (s *shiftService) Start(ctx context.Context, userID int64, kind model.WorkKind, partners []int64) (*ShiftResult, error) {
	if !kind.Valid() {
		return nil, ErrInvalidWorkKind
	}
	ids, err := normalizePartners(userID, partners)
	if err != nil {
		return nil, err
	}
	if err := ensureApproved(ctx, s.repo, userID, s.logger); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	shift := &model.WorkSession{
		UserID:      userID,
		RequestedBy: userID,
		WorkType:    kind,
		StartTime:   now,
		Partners:    make([]model.WorkPartner, 0, len(ids)),
	}
	for i, id := range ids {
		shift.Partners = append(shift.Partners, model.WorkPartner{PartnerID: id, Position: i})
	}

	if err := s.repo.WorkSession.CreateOpen(ctx, shift); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrShiftAlreadyActive
		}
		s.logger.Error("创建班次失败", zap.Int64("user_id", userID), zap.String("kind", string(kind)), zap.Error(err))
		return nil, storageError(err)
	}

	s.logger.Info("班次开始",
		zap.Int64("shift_id", shift.ID),
		zap.Int64("user_id", userID),
		zap.String("kind", string(kind)),
		zap.Int64s("partners", ids),
	)

	start := shift.StartTime
	return &ShiftResult{
		Shift: *shift,
		Event: notify.Event{
			Type:       notify.EventShiftStarted,
			OccurredAt: now,
			UserID:     userID,
			ShiftID:    shift.ID,
			Kind:       kind,
			Partners:   ids,
			Start:      &start,
		},
	}, nil
}

// ────────────────────── ActiveFor ──────────────────────

func (s *shiftService) ActiveFor(ctx context.Context, userID int64) (*model.WorkSession, error) {
	shift, err := s.repo.WorkSession.GetOpenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("查询进行中班次失败", zap.Int64("user_id", userID), zap.Error(err))
		return nil, storageError(err)
	}
	return shift, nil
}

// ────────────────────── Close ──────────────────────

func (s *shiftService) Close(ctx context.Context, shiftID int64, data ClosingData) (*ClosedShiftSummary, error) {
	shift, err := s.repo.WorkSession.GetByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.Int64("shift_id", shiftID), zap.Error(err))
		return nil, storageError(err)
	}
	if !shift.IsOpen() {
		return nil, ErrShiftNotFound
	}
	if err := checkClosingData(shift.WorkType, data); err != nil {
		return nil, err
	}

	end := s.clock.Now()
	if end.Before(shift.StartTime) {
		end = shift.StartTime
	}
	fields := repository.CloseFields{EndTime: end}
	data.apply(&fields)

	if err := s.repo.WorkSession.Close(ctx, shiftID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("结束班次失败", zap.Int64("shift_id", shiftID), zap.Error(err))
		return nil, storageError(err)
	}

	shift.EndTime = &end
	shift.Results = fields.Results
	shift.PackagesCount = fields.PackagesCount
	shift.SalesAmount = fields.SalesAmount

	d := end.Sub(shift.StartTime)
	minutes := int64(d / time.Minute)

	s.logger.Info("班次结束",
		zap.Int64("shift_id", shiftID),
		zap.Int64("user_id", shift.UserID),
		zap.Int64("duration_minutes", minutes),
	)

	start := shift.StartTime
	ev := notify.Event{
		Type:            notify.EventShiftClosed,
		OccurredAt:      end,
		UserID:          shift.UserID,
		ShiftID:         shift.ID,
		Kind:            shift.WorkType,
		Partners:        shift.PartnerIDs(),
		Start:           &start,
		End:             &end,
		DurationMinutes: minutes,
		Results:         shift.Results,
		Packages:        shift.PackagesCount,
	}
	if shift.SalesAmount.Valid {
		amount := shift.SalesAmount.Decimal
		ev.Amount = &amount
	}

	return &ClosedShiftSummary{
		Shift:           *shift,
		Duration:        d,
		DurationMinutes: minutes,
		Event:           ev,
	}, nil
}
