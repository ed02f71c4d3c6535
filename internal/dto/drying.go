package dto

import (
	"time"

	"dryshift/internal/model"
)

// ── 烘干机模块 DTO ──

// ReserveRequest 占用烘干机请求
type ReserveRequest struct {
	UserID int64   `json:"user_id" binding:"required,gt=0"`
	Hours  float64 `json:"hours"   binding:"required,gt=0"`
}

// ReservationResponse 占用记录响应
type ReservationResponse struct {
	ID              int64     `json:"id"`
	UnitID          int       `json:"unit_id"`
	UserID          int64     `json:"user_id"`
	StartTime       time.Time `json:"start_time"`
	FinishTime      time.Time `json:"finish_time"`
	DurationMinutes int64     `json:"duration_minutes"`
}

// UnitStatusResponse 烘干机状态响应
type UnitStatusResponse struct {
	UnitID      int                  `json:"unit_id"`
	Busy        bool                 `json:"busy"`
	Reservation *ReservationResponse `json:"reservation,omitempty"`
}

// UnitBusyResponse 占用冲突时附带的数据
type UnitBusyResponse struct {
	UnitID  int       `json:"unit_id"`
	OwnerID int64     `json:"owner_id"`
	Until   time.Time `json:"until"`
}

// SweepResponse 手动清扫结果
type SweepResponse struct {
	Finished []ReservationResponse `json:"finished"`
	Notified int                   `json:"notified"`
}

// NewReservationResponse 转换占用记录
func NewReservationResponse(s *model.DryingSession) ReservationResponse {
	return ReservationResponse{
		ID:              s.ID,
		UnitID:          s.DehydratorID,
		UserID:          s.UserID,
		StartTime:       s.StartTime,
		FinishTime:      s.FinishTime,
		DurationMinutes: int64(s.FinishTime.Sub(s.StartTime) / time.Minute),
	}
}
