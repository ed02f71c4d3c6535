package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"dryshift/internal/model"
)

// CloseFields 结班时写入的类型相关数据
type CloseFields struct {
	EndTime       time.Time
	Results       *string
	PackagesCount *int
	SalesAmount   decimal.NullDecimal
}

// WorkSessionRepository 班次数据访问接口
type WorkSessionRepository interface {
	// CreateOpen 在同一事务内插入班次与搭档快照；
	// 用户已有进行中的班次时返回 gorm.ErrDuplicatedKey
	CreateOpen(ctx context.Context, s *model.WorkSession) error
	// GetOpenByUser 用户进行中的班次，没有时返回 gorm.ErrRecordNotFound
	GetOpenByUser(ctx context.Context, userID int64) (*model.WorkSession, error)
	GetByID(ctx context.Context, id int64) (*model.WorkSession, error)
	// Close 条件更新 end_time IS NULL 的班次，未命中时返回 gorm.ErrRecordNotFound
	Close(ctx context.Context, id int64, f CloseFields) error
}

type workSessionRepo struct {
	db *gorm.DB
}

// NewWorkSessionRepo 创建 WorkSessionRepository 实例
func NewWorkSessionRepo(db *gorm.DB) WorkSessionRepository {
	return &workSessionRepo{db: db}
}

func (r *workSessionRepo) CreateOpen(ctx context.Context, s *model.WorkSession) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		partners := s.Partners
		if err := tx.Omit("Partners").Create(s).Error; err != nil {
			return err
		}
		if len(partners) == 0 {
			return nil
		}
		for i := range partners {
			partners[i].SessionID = s.ID
			partners[i].Position = i
		}
		return tx.Create(&partners).Error
	})
	if isUniqueViolation(err) {
		return gorm.ErrDuplicatedKey
	}
	return err
}

func (r *workSessionRepo) GetOpenByUser(ctx context.Context, userID int64) (*model.WorkSession, error) {
	var s model.WorkSession
	err := r.db.WithContext(ctx).
		Preload("Partners", orderByPosition).
		Where("user_id = ? AND end_time IS NULL", userID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *workSessionRepo) GetByID(ctx context.Context, id int64) (*model.WorkSession, error) {
	var s model.WorkSession
	err := r.db.WithContext(ctx).
		Preload("Partners", orderByPosition).
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *workSessionRepo) Close(ctx context.Context, id int64, f CloseFields) error {
	result := r.db.WithContext(ctx).
		Model(&model.WorkSession{}).
		Where("id = ? AND end_time IS NULL", id).
		Updates(map[string]interface{}{
			"end_time":       f.EndTime,
			"results":        f.Results,
			"packages_count": f.PackagesCount,
			"sales_amount":   f.SalesAmount,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}
