package report

import (
	"sort"
	"time"

	"dryshift/internal/model"
)

var monthNames = [...]string{
	"Січень", "Лютий", "Березень", "Квітень", "Травень", "Червень",
	"Липень", "Серпень", "Вересень", "Жовтень", "Листопад", "Грудень",
}

// ValidPeriod 月份 1-12，年份 1-9999
func ValidPeriod(year, month int) bool {
	return year >= 1 && year <= 9999 && month >= 1 && month <= 12
}

// DaysInMonth 当月天数（含闰年二月）
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthRange 返回当月第一个时刻与最后一个时刻（闭区间）
// 最后时刻为下月第一天零点减 1ns，覆盖最后一天 23:59:59 之内的所有时间
func MonthRange(year, month int, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return first, last
}

// MonthName 月份名称
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// SortPeriodsDesc 去重并按从新到旧排序
func SortPeriodsDesc(periods []model.Period) []model.Period {
	seen := make(map[model.Period]bool, len(periods))
	out := make([]model.Period, 0, len(periods))
	for _, p := range periods {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Before(out[i]) })
	return out
}

func inWindow(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}
