package repository

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"dryshift/internal/model"
)

// WorkRecordRepository 已完成工作记录（结束的班次 + 临时工作）的数据访问接口
// 记录只追加，不修改不删除
type WorkRecordRepository interface {
	// CreateOtherWork 在同一事务内插入临时工作与搭档
	CreateOtherWork(ctx context.Context, w *model.OtherWork) error
	// ShiftsInRange 按 start_time 落在 [from, to] 内的已结束班次，按 start_time、id 升序
	// userID 非空时只返回该用户作为主办人或搭档参与的记录
	ShiftsInRange(ctx context.Context, from, to time.Time, userID *int64) ([]model.WorkSession, error)
	// OtherWorkInRange 按 work_date 落在 [from, to] 内的临时工作，按 work_date、id 升序
	OtherWorkInRange(ctx context.Context, from, to time.Time, userID *int64) ([]model.OtherWork, error)
	// MonthsWithData 有数据的月份（按数据库会话时区），从新到旧
	MonthsWithData(ctx context.Context, userID *int64) ([]model.Period, error)
}

type workRecordRepo struct {
	db *gorm.DB
}

// NewWorkRecordRepo 创建 WorkRecordRepository 实例
func NewWorkRecordRepo(db *gorm.DB) WorkRecordRepository {
	return &workRecordRepo{db: db}
}

func (r *workRecordRepo) CreateOtherWork(ctx context.Context, w *model.OtherWork) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		partners := w.Partners
		if err := tx.Omit("Partners").Create(w).Error; err != nil {
			return err
		}
		if len(partners) == 0 {
			return nil
		}
		for i := range partners {
			partners[i].OtherWorkID = w.ID
			partners[i].Position = i
		}
		return tx.Create(&partners).Error
	})
}

func (r *workRecordRepo) ShiftsInRange(ctx context.Context, from, to time.Time, userID *int64) ([]model.WorkSession, error) {
	var shifts []model.WorkSession
	db := r.db.WithContext(ctx).
		Preload("Partners", orderByPosition).
		Where("end_time IS NOT NULL AND start_time BETWEEN ? AND ?", from, to)
	if userID != nil {
		db = db.Where("(user_id = ? OR id IN (SELECT session_id FROM work_partners WHERE partner_id = ?))", *userID, *userID)
	}
	err := db.Order("start_time ASC, id ASC").Find(&shifts).Error
	return shifts, err
}

func (r *workRecordRepo) OtherWorkInRange(ctx context.Context, from, to time.Time, userID *int64) ([]model.OtherWork, error) {
	var entries []model.OtherWork
	db := r.db.WithContext(ctx).
		Preload("Partners", orderByPosition).
		Where("work_date BETWEEN ? AND ?", from, to)
	if userID != nil {
		db = db.Where("(user_id = ? OR id IN (SELECT other_work_id FROM other_work_partners WHERE partner_id = ?))", *userID, *userID)
	}
	err := db.Order("work_date ASC, id ASC").Find(&entries).Error
	return entries, err
}

const monthsWithDataSQL = `
SELECT DISTINCT p.year, p.month FROM (
	SELECT CAST(EXTRACT(YEAR FROM ws.start_time) AS INTEGER) AS year,
	       CAST(EXTRACT(MONTH FROM ws.start_time) AS INTEGER) AS month
	FROM work_sessions ws
	WHERE ws.end_time IS NOT NULL
	  AND (@all OR ws.user_id = @uid OR EXISTS (
	        SELECT 1 FROM work_partners wp WHERE wp.session_id = ws.id AND wp.partner_id = @uid))
	UNION
	SELECT CAST(EXTRACT(YEAR FROM ow.work_date) AS INTEGER),
	       CAST(EXTRACT(MONTH FROM ow.work_date) AS INTEGER)
	FROM other_work ow
	WHERE (@all OR ow.user_id = @uid OR EXISTS (
	        SELECT 1 FROM other_work_partners owp WHERE owp.other_work_id = ow.id AND owp.partner_id = @uid))
) p
ORDER BY p.year DESC, p.month DESC`

func (r *workRecordRepo) MonthsWithData(ctx context.Context, userID *int64) ([]model.Period, error) {
	all := userID == nil
	var uid int64
	if userID != nil {
		uid = *userID
	}

	var periods []model.Period
	err := r.db.WithContext(ctx).
		Raw(monthsWithDataSQL, sql.Named("all", all), sql.Named("uid", uid)).
		Scan(&periods).Error
	return periods, err
}
