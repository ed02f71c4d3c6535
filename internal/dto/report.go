package dto

import (
	"time"

	"dryshift/internal/model"
	"dryshift/internal/report"
)

// ── 报表模块 DTO ──

// ReportQuery 报表查询参数
type ReportQuery struct {
	UserID *int64 `form:"user_id" binding:"omitempty,gt=0"`
	Format string `form:"format"  binding:"omitempty,oneof=json text"`
}

// PeriodsQuery 可选月份查询参数
type PeriodsQuery struct {
	UserID *int64 `form:"user_id" binding:"omitempty,gt=0"`
}

// KindTotalsResponse 单一班次类型汇总；时间单位为分钟
type KindTotalsResponse struct {
	Sessions       int     `json:"sessions"`
	Minutes        float64 `json:"minutes"`
	HostMinutes    float64 `json:"host_minutes"`
	PartnerMinutes float64 `json:"partner_minutes"`
	Packages       int64   `json:"packages"`
	Amount         string  `json:"amount"`
}

// AdHocLineResponse 临时工作明细
type AdHocLineResponse struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Date            time.Time `json:"date"`
	Description     string    `json:"description"`
	DurationMinutes *int      `json:"duration_minutes,omitempty"`
}

// OtherWorkResponse 临时工作汇总
type OtherWorkResponse struct {
	Minutes float64             `json:"minutes"`
	Entries []AdHocLineResponse `json:"entries"`
}

// BucketResponse 总计或个人视图
type BucketResponse struct {
	Production   KindTotalsResponse `json:"production"`
	Packaging    KindTotalsResponse `json:"packaging"`
	Sales        KindTotalsResponse `json:"sales"`
	OtherWork    OtherWorkResponse  `json:"other_work"`
	TotalMinutes float64            `json:"total_minutes"`
}

// UserReportResponse 个人视图
type UserReportResponse struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	BucketResponse
}

// ReportResponse 月度报表响应
type ReportResponse struct {
	Year      int                  `json:"year"`
	Month     int                  `json:"month"`
	MonthName string               `json:"month_name"`
	From      time.Time            `json:"from"`
	To        time.Time            `json:"to"`
	Totals    BucketResponse       `json:"totals"`
	Users     []UserReportResponse `json:"users"`
	Skipped   []int64              `json:"skipped,omitempty"`
}

// PeriodsResponse 有数据的月份
type PeriodsResponse struct {
	Periods []model.Period `json:"periods"`
}

// NewReportResponse 转换报表
func NewReportResponse(r *report.Report) ReportResponse {
	resp := ReportResponse{
		Year:      r.Year,
		Month:     r.Month,
		MonthName: report.MonthName(r.Month),
		From:      r.From,
		To:        r.To,
		Totals:    newBucketResponse(&r.Totals),
		Users:     make([]UserReportResponse, 0, len(r.Users)),
		Skipped:   r.Skipped,
	}
	for i := range r.Users {
		u := &r.Users[i]
		resp.Users = append(resp.Users, UserReportResponse{
			UserID:         u.UserID,
			Name:           u.Name,
			BucketResponse: newBucketResponse(&u.Bucket),
		})
	}
	return resp
}

func newBucketResponse(b *report.Bucket) BucketResponse {
	entries := make([]AdHocLineResponse, 0, len(b.OtherWork.Entries))
	for _, e := range b.OtherWork.Entries {
		entries = append(entries, AdHocLineResponse{
			ID:              e.ID,
			UserID:          e.UserID,
			Date:            e.Date,
			Description:     e.Description,
			DurationMinutes: e.Duration,
		})
	}
	return BucketResponse{
		Production:   newKindTotalsResponse(b.Production),
		Packaging:    newKindTotalsResponse(b.Packaging),
		Sales:        newKindTotalsResponse(b.Sales),
		OtherWork:    OtherWorkResponse{Minutes: b.OtherWork.Time.Minutes(), Entries: entries},
		TotalMinutes: b.TotalTime().Minutes(),
	}
}

func newKindTotalsResponse(k report.KindTotals) KindTotalsResponse {
	return KindTotalsResponse{
		Sessions:       k.Sessions,
		Minutes:        k.Time().Minutes(),
		HostMinutes:    k.HostTime.Minutes(),
		PartnerMinutes: k.PartnerTime.Minutes(),
		Packages:       k.Packages,
		Amount:         k.Amount.StringFixed(2),
	}
}
