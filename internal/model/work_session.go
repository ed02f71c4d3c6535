package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// WorkKind 班次类型
type WorkKind string

const (
	WorkKindProduction WorkKind = "production"
	WorkKindPackaging  WorkKind = "packaging"
	WorkKindSales      WorkKind = "sales"
)

// WorkKinds 所有班次类型，按报表展示顺序
var WorkKinds = []WorkKind{WorkKindProduction, WorkKindPackaging, WorkKindSales}

// Valid 是否为已知类型
func (k WorkKind) Valid() bool {
	switch k {
	case WorkKindProduction, WorkKindPackaging, WorkKindSales:
		return true
	}
	return false
}

// WorkSession 班次表 — 对应 work_sessions
// end_time 为空表示进行中；每个用户最多一条进行中的班次（部分唯一索引）
type WorkSession struct {
	ID            int64               `gorm:"primaryKey"                         json:"id"`
	UserID        int64               `gorm:"not null"                           json:"user_id"`
	RequestedBy   int64               `gorm:"not null"                           json:"requested_by"`
	WorkType      WorkKind            `gorm:"type:varchar(20);not null"          json:"work_type"`
	StartTime     time.Time           `gorm:"not null"                           json:"start_time"`
	EndTime       *time.Time          `json:"end_time,omitempty"`
	Results       *string             `gorm:"type:text"                          json:"results,omitempty"`
	PackagesCount *int                `json:"packages_count,omitempty"`
	SalesAmount   decimal.NullDecimal `gorm:"type:numeric(14,2)"                 json:"sales_amount"`

	// 关联（开班时的搭档快照，按 position 排序）
	Partners []WorkPartner `gorm:"foreignKey:SessionID" json:"partners,omitempty"`
}

// TableName 指定表名
func (WorkSession) TableName() string { return "work_sessions" }

// IsOpen 是否进行中
func (s *WorkSession) IsOpen() bool { return s.EndTime == nil }

// PartnerIDs 搭档 ID 列表
func (s *WorkSession) PartnerIDs() []int64 {
	ids := make([]int64, 0, len(s.Partners))
	for _, p := range s.Partners {
		ids = append(ids, p.PartnerID)
	}
	return ids
}

// WorkPartner 班次搭档表 — 对应 work_partners
type WorkPartner struct {
	ID        int64 `gorm:"primaryKey" json:"-"`
	SessionID int64 `gorm:"not null"   json:"-"`
	PartnerID int64 `gorm:"not null"   json:"partner_id"`
	Position  int   `gorm:"not null"   json:"position"`
}

// TableName 指定表名
func (WorkPartner) TableName() string { return "work_partners" }
