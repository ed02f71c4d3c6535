package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"dryshift/config"
	"dryshift/internal/repository"
	"dryshift/pkg/clock"
	pkgerrors "dryshift/pkg/errors"
)

// Service 所有 Service 的聚合入口
type Service struct {
	User       UserService
	Drying     DryingService
	Shift      ShiftService
	WorkRecord WorkRecordService
	Report     ReportService
	Export     ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	clk clock.Clock,
	logger *zap.Logger,
) (*Service, error) {
	loc, err := cfg.Database.Location()
	if err != nil {
		return nil, fmt.Errorf("解析时区失败: %w", err)
	}

	users := NewUserService(repo, clk, logger)
	reports := NewReportService(&cfg.Report, repo, loc, logger)
	return &Service{
		User:       users,
		Drying:     NewDryingService(&cfg.Drying, repo, clk, logger),
		Shift:      NewShiftService(repo, clk, logger),
		WorkRecord: NewWorkRecordService(repo, clk, logger),
		Report:     reports,
		Export:     NewExportService(reports, logger),
	}, nil
}

// ── 公共辅助 ──

// ErrInvalidPartner 搭档 ID 非法
var ErrInvalidPartner = errors.New("搭档 ID 无效")

// storageError 将仓储错误包装为 ErrStorage
func storageError(err error) error {
	return fmt.Errorf("%w: %v", pkgerrors.ErrStorage, err)
}

// normalizePartners 去重并保持顺序，移除主办人本人；返回新切片
func normalizePartners(host int64, partners []int64) ([]int64, error) {
	out := make([]int64, 0, len(partners))
	seen := make(map[int64]bool, len(partners))
	for _, id := range partners {
		if id <= 0 {
			return nil, ErrInvalidPartner
		}
		if id == host || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// ensureApproved 校验用户存在且已通过审核
func ensureApproved(ctx context.Context, repo *repository.Repository, userID int64, logger *zap.Logger) error {
	user, err := repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		logger.Error("查询用户失败", zap.Int64("user_id", userID), zap.Error(err))
		return storageError(err)
	}
	if !user.IsApproved {
		return ErrUserNotApproved
	}
	return nil
}
