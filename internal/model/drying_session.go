package model

import "time"

// DryingSession 烘干机占用表 — 对应 drying_sessions
// 同一烘干机任一时刻最多一条 finish_time 在未来的记录
type DryingSession struct {
	ID           int64     `gorm:"primaryKey"  json:"id"`
	DehydratorID int       `gorm:"not null"    json:"dehydrator_id"`
	UserID       int64     `gorm:"not null"    json:"user_id"`
	StartTime    time.Time `gorm:"not null"    json:"start_time"`
	FinishTime   time.Time `gorm:"not null"    json:"finish_time"`
}

// TableName 指定表名
func (DryingSession) TableName() string { return "drying_sessions" }

// ActiveAt 在 t 时刻是否仍占用
func (s *DryingSession) ActiveAt(t time.Time) bool {
	return s.FinishTime.After(t)
}
