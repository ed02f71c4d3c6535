package dto

import (
	"time"

	"dryshift/internal/model"
)

// ── 临时工作模块 DTO ──

// AdHocRequest 记录临时工作请求
type AdHocRequest struct {
	UserID          int64   `json:"user_id"          binding:"required,gt=0"`
	Description     string  `json:"description"      binding:"required,max=2000"`
	DurationMinutes *int    `json:"duration_minutes" binding:"omitempty,min=0"`
	Partners        []int64 `json:"partners"         binding:"omitempty,max=20,dive,gt=0"`
}

// AdHocResponse 临时工作响应
type AdHocResponse struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Description     string    `json:"description"`
	WorkDate        time.Time `json:"work_date"`
	DurationMinutes *int      `json:"duration_minutes,omitempty"`
	Partners        []int64   `json:"partners"`
}

// NewAdHocResponse 转换临时工作记录
func NewAdHocResponse(w *model.OtherWork) AdHocResponse {
	return AdHocResponse{
		ID:              w.ID,
		UserID:          w.UserID,
		Description:     w.Description,
		WorkDate:        w.WorkDate,
		DurationMinutes: w.Duration,
		Partners:        w.PartnerIDs(),
	}
}
