package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"dryshift/config"
	"dryshift/internal/model"
	"dryshift/internal/report"
	"dryshift/internal/repository"
)

// ── 报表模块业务错误 ──

var (
	ErrInvalidPeriod = errors.New("报表月份无效")
)

// ReportService 月度报表业务接口
type ReportService interface {
	// Generate 生成月度报表；userID 非空时为个人报表
	Generate(ctx context.Context, year, month int, userID *int64) (*report.Report, error)
	// AvailablePeriods 有数据的月份，从新到旧
	AvailablePeriods(ctx context.Context, userID *int64) ([]model.Period, error)
}

type reportService struct {
	partnerAttribution bool
	loc                *time.Location
	repo               *repository.Repository
	logger             *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(cfg *config.ReportConfig, repo *repository.Repository, loc *time.Location, logger *zap.Logger) ReportService {
	if loc == nil {
		loc = time.Local
	}
	return &reportService{
		partnerAttribution: cfg.PartnerAttribution,
		loc:                loc,
		repo:               repo,
		logger:             logger,
	}
}

// ────────────────────── Generate ──────────────────────

func (s *reportService) Generate(ctx context.Context, year, month int, userID *int64) (*report.Report, error) {
	if !report.ValidPeriod(year, month) {
		return nil, ErrInvalidPeriod
	}
	from, to := report.MonthRange(year, month, s.loc)

	shifts, err := s.repo.WorkRecord.ShiftsInRange(ctx, from, to, userID)
	if err != nil {
		s.logger.Error("查询班次记录失败", zap.Int("year", year), zap.Int("month", month), zap.Error(err))
		return nil, storageError(err)
	}
	entries, err := s.repo.WorkRecord.OtherWorkInRange(ctx, from, to, userID)
	if err != nil {
		s.logger.Error("查询临时工作记录失败", zap.Int("year", year), zap.Int("month", month), zap.Error(err))
		return nil, storageError(err)
	}

	names, err := s.resolveNames(ctx, shifts, entries)
	if err != nil {
		return nil, err
	}

	opts := report.Options{PartnerAttribution: s.partnerAttribution, Subject: userID}
	if userID != nil {
		opts.PartnerAttribution = true
	}

	r := report.Aggregate(report.Input{
		Year:     year,
		Month:    month,
		Location: s.loc,
		Shifts:   shifts,
		Entries:  entries,
		Names:    names,
		Options:  opts,
	})
	if len(r.Skipped) > 0 {
		s.logger.Warn("报表中存在未注册用户", zap.Int64s("user_ids", r.Skipped))
	}
	return &r, nil
}

// resolveNames 查询参与者展示名
func (s *reportService) resolveNames(ctx context.Context, shifts []model.WorkSession, entries []model.OtherWork) (map[int64]string, error) {
	seen := make(map[int64]bool)
	var ids []int64
	add := func(id int64) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for i := range shifts {
		add(shifts[i].UserID)
		for _, p := range shifts[i].Partners {
			add(p.PartnerID)
		}
	}
	for i := range entries {
		add(entries[i].UserID)
		for _, p := range entries[i].Partners {
			add(p.PartnerID)
		}
	}

	users, err := s.repo.User.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, storageError(err)
	}
	names := make(map[int64]string, len(users))
	for i := range users {
		names[users[i].UserID] = users[i].DisplayName()
	}
	return names, nil
}

// ────────────────────── AvailablePeriods ──────────────────────

func (s *reportService) AvailablePeriods(ctx context.Context, userID *int64) ([]model.Period, error) {
	periods, err := s.repo.WorkRecord.MonthsWithData(ctx, userID)
	if err != nil {
		s.logger.Error("查询有数据的月份失败", zap.Error(err))
		return nil, storageError(err)
	}
	return report.SortPeriodsDesc(periods), nil
}
