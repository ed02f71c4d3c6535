package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"dryshift/internal/model"
	"dryshift/internal/notify"
	"dryshift/internal/repository"
	"dryshift/pkg/clock"
)

// ── 工作记录模块业务错误 ──

var (
	ErrInvalidDescription = errors.New("工作描述无效")
	ErrInvalidRange       = errors.New("查询区间无效")
)

const maxDescriptionLength = 2000

// AdHocResult 临时工作记录结果
type AdHocResult struct {
	Entry model.OtherWork
	Event notify.Event
}

// WorkRecordService 工作记录（已结束班次与临时工作）业务接口
// 已结束的班次由 ShiftService.Close 产生，本接口只追加临时工作
type WorkRecordService interface {
	// RecordAdHoc 记录临时工作；durationMinutes 可为空
	RecordAdHoc(ctx context.Context, userID int64, partners []int64, description string, durationMinutes *int) (*AdHocResult, error)
	ShiftsInRange(ctx context.Context, from, to time.Time, userID *int64) ([]model.WorkSession, error)
	AdHocInRange(ctx context.Context, from, to time.Time, userID *int64) ([]model.OtherWork, error)
	// MonthsWithData 有数据的月份，从新到旧
	MonthsWithData(ctx context.Context, userID *int64) ([]model.Period, error)
}

type workRecordService struct {
	repo   *repository.Repository
	clock  clock.Clock
	logger *zap.Logger
}

// NewWorkRecordService 创建 WorkRecordService 实例
func NewWorkRecordService(repo *repository.Repository, clk clock.Clock, logger *zap.Logger) WorkRecordService {
	return &workRecordService{repo: repo, clock: clk, logger: logger}
}

// ────────────────────── RecordAdHoc ──────────────────────

func (s *workRecordService) RecordAdHoc(ctx context.Context, userID int64, partners []int64, description string, durationMinutes *int) (*AdHocResult, error) {
	description = strings.TrimSpace(description)
	if description == "" || utf8.RuneCountInString(description) > maxDescriptionLength {
		return nil, ErrInvalidDescription
	}
	if durationMinutes != nil && *durationMinutes < 0 {
		return nil, ErrInvalidDuration
	}
	ids, err := normalizePartners(userID, partners)
	if err != nil {
		return nil, err
	}
	if err := ensureApproved(ctx, s.repo, userID, s.logger); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	entry := &model.OtherWork{
		UserID:      userID,
		Description: description,
		WorkDate:    now,
		Partners:    make([]model.OtherWorkPartner, 0, len(ids)),
	}
	if durationMinutes != nil {
		d := *durationMinutes
		entry.Duration = &d
	}
	for i, id := range ids {
		entry.Partners = append(entry.Partners, model.OtherWorkPartner{PartnerID: id, Position: i})
	}

	if err := s.repo.WorkRecord.CreateOtherWork(ctx, entry); err != nil {
		s.logger.Error("记录临时工作失败", zap.Int64("user_id", userID), zap.Error(err))
		return nil, storageError(err)
	}

	s.logger.Info("临时工作已记录", zap.Int64("entry_id", entry.ID), zap.Int64("user_id", userID))

	ev := notify.Event{
		Type:        notify.EventAdHocRecorded,
		OccurredAt:  now,
		UserID:      userID,
		EntryID:     entry.ID,
		Partners:    ids,
		Description: description,
	}
	if entry.Duration != nil {
		ev.DurationMinutes = int64(*entry.Duration)
	}
	return &AdHocResult{Entry: *entry, Event: ev}, nil
}

// ────────────────────── Queries ──────────────────────

func (s *workRecordService) ShiftsInRange(ctx context.Context, from, to time.Time, userID *int64) ([]model.WorkSession, error) {
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	shifts, err := s.repo.WorkRecord.ShiftsInRange(ctx, from, to, userID)
	if err != nil {
		s.logger.Error("查询班次记录失败", zap.Time("from", from), zap.Time("to", to), zap.Error(err))
		return nil, storageError(err)
	}
	return shifts, nil
}

func (s *workRecordService) AdHocInRange(ctx context.Context, from, to time.Time, userID *int64) ([]model.OtherWork, error) {
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	entries, err := s.repo.WorkRecord.OtherWorkInRange(ctx, from, to, userID)
	if err != nil {
		s.logger.Error("查询临时工作记录失败", zap.Time("from", from), zap.Time("to", to), zap.Error(err))
		return nil, storageError(err)
	}
	return entries, nil
}

func (s *workRecordService) MonthsWithData(ctx context.Context, userID *int64) ([]model.Period, error) {
	periods, err := s.repo.WorkRecord.MonthsWithData(ctx, userID)
	if err != nil {
		s.logger.Error("查询有数据的月份失败", zap.Error(err))
		return nil, storageError(err)
	}
	return periods, nil
}
