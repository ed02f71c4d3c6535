package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"dryshift/internal/model"
)

// ── 班次模块 DTO ──

// StartShiftRequest 开班请求
type StartShiftRequest struct {
	UserID   int64   `json:"user_id"   binding:"required,gt=0"`
	WorkType string  `json:"work_type" binding:"required,oneof=production packaging sales"`
	Partners []int64 `json:"partners"  binding:"omitempty,max=20,dive,gt=0"`
}

// CloseShiftRequest 结班请求
// 生产班次填 results；包装班次填 packages_count；销售班次填 packages_count 与 sales_amount
type CloseShiftRequest struct {
	Results       *string          `json:"results"        binding:"omitempty,max=2000"`
	PackagesCount *int             `json:"packages_count" binding:"omitempty,min=0"`
	SalesAmount   *decimal.Decimal `json:"sales_amount"`
}

// ShiftResponse 班次响应
type ShiftResponse struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	WorkType      string     `json:"work_type"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Partners      []int64    `json:"partners"`
	Results       *string    `json:"results,omitempty"`
	PackagesCount *int       `json:"packages_count,omitempty"`
	SalesAmount   *string    `json:"sales_amount,omitempty"`
}

// ClosedShiftResponse 结班响应
type ClosedShiftResponse struct {
	Shift           ShiftResponse `json:"shift"`
	DurationMinutes int64         `json:"duration_minutes"`
	DurationText    string        `json:"duration_text"`
}

// NewShiftResponse 转换班次
func NewShiftResponse(s *model.WorkSession) ShiftResponse {
	resp := ShiftResponse{
		ID:            s.ID,
		UserID:        s.UserID,
		WorkType:      string(s.WorkType),
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		Partners:      s.PartnerIDs(),
		Results:       s.Results,
		PackagesCount: s.PackagesCount,
	}
	if s.SalesAmount.Valid {
		amount := s.SalesAmount.Decimal.StringFixed(2)
		resp.SalesAmount = &amount
	}
	return resp
}
