package model

import "time"

// OtherWork 临时工作记录表 — 对应 other_work
// Duration 单位为分钟，可为空（报表按 0 计）
type OtherWork struct {
	ID          int64     `gorm:"primaryKey"     json:"id"`
	UserID      int64     `gorm:"not null"       json:"user_id"`
	Description string    `gorm:"type:text;not null" json:"description"`
	WorkDate    time.Time `gorm:"not null"       json:"work_date"`
	Duration    *int      `json:"duration,omitempty"`

	Partners []OtherWorkPartner `gorm:"foreignKey:OtherWorkID" json:"partners,omitempty"`
}

// TableName 指定表名
func (OtherWork) TableName() string { return "other_work" }

// PartnerIDs 搭档 ID 列表
func (w *OtherWork) PartnerIDs() []int64 {
	ids := make([]int64, 0, len(w.Partners))
	for _, p := range w.Partners {
		ids = append(ids, p.PartnerID)
	}
	return ids
}

// OtherWorkPartner 临时工作搭档表 — 对应 other_work_partners
type OtherWorkPartner struct {
	ID          int64 `gorm:"primaryKey" json:"-"`
	OtherWorkID int64 `gorm:"not null"   json:"-"`
	PartnerID   int64 `gorm:"not null"   json:"partner_id"`
	Position    int   `gorm:"not null"   json:"position"`
}

// TableName 指定表名
func (OtherWorkPartner) TableName() string { return "other_work_partners" }
