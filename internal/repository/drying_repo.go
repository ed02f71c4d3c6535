package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dryshift/internal/model"
)

// dryingLockNamespace pg_advisory_xact_lock 的第一个键，用于区分其他咨询锁
const dryingLockNamespace = 0x4452 // "DR"

// DryingRepository 烘干机占用数据访问接口
type DryingRepository interface {
	// CreateIfFree 持有单元级事务锁检查占用后插入；
	// 单元在 s.StartTime 仍被占用时不插入，返回占用中的记录
	CreateIfFree(ctx context.Context, s *model.DryingSession) (conflict *model.DryingSession, err error)
	// GetActive 返回 now 时刻仍占用的记录，空闲时返回 gorm.ErrRecordNotFound
	GetActive(ctx context.Context, unitID int, now time.Time) (*model.DryingSession, error)
	ListActive(ctx context.Context, now time.Time) ([]model.DryingSession, error)
	// DeleteExpired 单条语句删除并返回所有 finish_time <= now 的记录；
	// 并发调用时每条记录只会被其中一次调用返回
	DeleteExpired(ctx context.Context, now time.Time) ([]model.DryingSession, error)
}

type dryingRepo struct {
	db *gorm.DB
}

// NewDryingRepo 创建 DryingRepository 实例
func NewDryingRepo(db *gorm.DB) DryingRepository {
	return &dryingRepo{db: db}
}

func (r *dryingRepo) CreateIfFree(ctx context.Context, s *model.DryingSession) (*model.DryingSession, error) {
	var conflict *model.DryingSession
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?, ?)", dryingLockNamespace, s.DehydratorID).Error; err != nil {
			return err
		}

		var existing model.DryingSession
		err := tx.Where("dehydrator_id = ? AND finish_time > ?", s.DehydratorID, s.StartTime).
			Order("finish_time DESC").
			First(&existing).Error
		switch {
		case err == nil:
			conflict = &existing
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		return tx.Create(s).Error
	})
	if err != nil {
		return nil, err
	}
	return conflict, nil
}

func (r *dryingRepo) GetActive(ctx context.Context, unitID int, now time.Time) (*model.DryingSession, error) {
	var s model.DryingSession
	err := r.db.WithContext(ctx).
		Where("dehydrator_id = ? AND finish_time > ?", unitID, now).
		Order("finish_time DESC").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *dryingRepo) ListActive(ctx context.Context, now time.Time) ([]model.DryingSession, error) {
	var sessions []model.DryingSession
	err := r.db.WithContext(ctx).
		Where("finish_time > ?", now).
		Order("dehydrator_id ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *dryingRepo) DeleteExpired(ctx context.Context, now time.Time) ([]model.DryingSession, error) {
	var expired []model.DryingSession
	err := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("finish_time <= ?", now).
		Delete(&expired).Error
	if err != nil {
		return nil, err
	}
	return expired, nil
}
