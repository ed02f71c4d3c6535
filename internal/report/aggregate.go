// Package report 将已完成的班次与临时工作按月汇总为报表。
// 包内函数均为纯函数，不访问存储。
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"dryshift/internal/model"
)

// KindTotals 某一班次类型的汇总
// Packages 与 Amount 只计入主办人
type KindTotals struct {
	HostTime    time.Duration
	PartnerTime time.Duration
	Sessions    int
	Packages    int64
	Amount      decimal.Decimal
}

// Time 主办与搭档时间之和
func (k KindTotals) Time() time.Duration {
	return k.HostTime + k.PartnerTime
}

// AdHocLine 临时工作明细
type AdHocLine struct {
	ID          int64
	UserID      int64
	Date        time.Time
	Description string
	Duration    *int // 分钟
}

// OtherWorkTotals 临时工作汇总
type OtherWorkTotals struct {
	Time    time.Duration
	Entries []AdHocLine
}

// Bucket 总计与个人视图共用的结构
type Bucket struct {
	Production KindTotals
	Packaging  KindTotals
	Sales      KindTotals
	OtherWork  OtherWorkTotals
}

// Kind 按类型取汇总，未知类型返回 nil
func (b *Bucket) Kind(k model.WorkKind) *KindTotals {
	switch k {
	case model.WorkKindProduction:
		return &b.Production
	case model.WorkKindPackaging:
		return &b.Packaging
	case model.WorkKindSales:
		return &b.Sales
	}
	return nil
}

// TotalTime 所有类型与临时工作的总时长
func (b *Bucket) TotalTime() time.Duration {
	return b.Production.Time() + b.Packaging.Time() + b.Sales.Time() + b.OtherWork.Time
}

// UserReport 个人视图
type UserReport struct {
	UserID int64
	Name   string
	Bucket
}

// Options 汇总选项
type Options struct {
	// PartnerAttribution 搭档在个人视图中累计 PartnerTime
	PartnerAttribution bool
	// Subject 非空时个人视图只保留该用户
	Subject *int64
}

// Input 汇总输入
type Input struct {
	Year     int
	Month    int
	Location *time.Location
	Shifts   []model.WorkSession
	Entries  []model.OtherWork
	// Names 可解析的用户展示名；不在其中的用户不出现在个人视图，但计入总计
	Names   map[int64]string
	Options Options
}

// Report 月度报表
type Report struct {
	Year    int
	Month   int
	From    time.Time
	To      time.Time
	Totals  Bucket
	Users   []UserReport
	Skipped []int64
}

// Aggregate 汇总当月数据
// 只统计已结束且 start_time 落在当月的班次，以及 work_date 落在当月的临时工作
func Aggregate(in Input) Report {
	from, to := MonthRange(in.Year, in.Month, in.Location)
	r := Report{Year: in.Year, Month: in.Month, From: from, To: to}

	users := make(map[int64]*Bucket)
	bucketFor := func(id int64) *Bucket {
		b, ok := users[id]
		if !ok {
			b = &Bucket{}
			users[id] = b
		}
		return b
	}

	for i := range in.Shifts {
		s := &in.Shifts[i]
		if s.EndTime == nil || !inWindow(s.StartTime, from, to) {
			continue
		}
		total := r.Totals.Kind(s.WorkType)
		if total == nil {
			continue
		}
		d := s.EndTime.Sub(s.StartTime)
		if d < 0 {
			d = 0
		}
		isHost := s.RequestedBy == 0 || s.RequestedBy == s.UserID
		packages := int64(0)
		if s.PackagesCount != nil {
			packages = int64(*s.PackagesCount)
		}
		amount := decimal.Zero
		if s.SalesAmount.Valid {
			amount = s.SalesAmount.Decimal
		}

		addTotal(total, d, isHost, packages, amount)
		addShift(bucketFor(s.UserID).Kind(s.WorkType), d, isHost, packages, amount)

		if in.Options.PartnerAttribution {
			for _, p := range s.Partners {
				if p.PartnerID == s.UserID {
					continue
				}
				addShift(bucketFor(p.PartnerID).Kind(s.WorkType), d, false, 0, decimal.Zero)
			}
		}
	}

	for i := range in.Entries {
		e := &in.Entries[i]
		if !inWindow(e.WorkDate, from, to) {
			continue
		}
		line := AdHocLine{
			ID:          e.ID,
			UserID:      e.UserID,
			Date:        e.WorkDate,
			Description: e.Description,
			Duration:    e.Duration,
		}
		addAdHoc(&r.Totals.OtherWork, line)
		addAdHoc(&bucketFor(e.UserID).OtherWork, line)

		if in.Options.PartnerAttribution {
			for _, p := range e.Partners {
				if p.PartnerID == e.UserID {
					continue
				}
				addAdHoc(&bucketFor(p.PartnerID).OtherWork, line)
			}
		}
	}

	ids := make([]int64, 0, len(users))
	for id := range users {
		if in.Options.Subject != nil && id != *in.Options.Subject {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		name, ok := in.Names[id]
		if !ok {
			r.Skipped = append(r.Skipped, id)
			continue
		}
		r.Users = append(r.Users, UserReport{UserID: id, Name: name, Bucket: *users[id]})
	}

	return r
}

// addTotal 总计中的件数与金额不区分主办人
func addTotal(k *KindTotals, d time.Duration, isHost bool, packages int64, amount decimal.Decimal) {
	k.Sessions++
	if isHost {
		k.HostTime += d
	} else {
		k.PartnerTime += d
	}
	k.Packages += packages
	k.Amount = k.Amount.Add(amount)
}

func addShift(k *KindTotals, d time.Duration, isHost bool, packages int64, amount decimal.Decimal) {
	k.Sessions++
	if !isHost {
		k.PartnerTime += d
		return
	}
	k.HostTime += d
	k.Packages += packages
	k.Amount = k.Amount.Add(amount)
}

func addAdHoc(o *OtherWorkTotals, line AdHocLine) {
	if line.Duration != nil && *line.Duration > 0 {
		o.Time += time.Duration(*line.Duration) * time.Minute
	}
	o.Entries = append(o.Entries, line)
}
