package report

import (
	"fmt"
	"strings"
	"time"
)

// FormatDuration 将时长格式化为 "H год. M хв."，不足一小时为 "M хв."
// 小时与分钟均截断取整
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return FormatMinutes(int64(d / time.Minute))
}

// FormatMinutes 将整分钟数格式化
func FormatMinutes(minutes int64) string {
	if minutes < 0 {
		minutes = 0
	}
	hours, mins := minutes/60, minutes%60
	if hours > 0 {
		return fmt.Sprintf("%d год. %d хв.", hours, mins)
	}
	return fmt.Sprintf("%d хв.", mins)
}

// RenderText 渲染纯文本报表：先总计，再按用户 ID 顺序输出个人明细
func RenderText(r Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 Звіт за %s %d\n\n", MonthName(r.Month), r.Year)
	b.WriteString("📋 Загальні підсумки:\n")
	writeBucket(&b, &r.Totals, true)
	b.WriteString("\n")

	for i := range r.Users {
		u := &r.Users[i]
		fmt.Fprintf(&b, "👤 %s\n", u.Name)
		writeBucket(&b, &u.Bucket, false)
		if len(u.OtherWork.Entries) > 0 {
			b.WriteString("   - Виконані завдання:\n")
			for _, e := range u.OtherWork.Entries {
				date := e.Date.In(r.From.Location()).Format("02.01.2006")
				if e.Duration != nil && *e.Duration > 0 {
					fmt.Fprintf(&b, "     • %s (%s) - %s\n", date, FormatMinutes(int64(*e.Duration)), e.Description)
				} else {
					fmt.Fprintf(&b, "     • %s - %s\n", date, e.Description)
				}
			}
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// writeBucket 总计视图输出所有类型，个人视图省略为零的类型
func writeBucket(b *strings.Builder, bk *Bucket, all bool) {
	if t := bk.Production.Time(); all || t > 0 {
		fmt.Fprintf(b, "🏭 Виробництво: %s\n", FormatDuration(t))
	}
	if t := bk.Packaging.Time(); all || t > 0 {
		fmt.Fprintf(b, "📦 Пакування: %s\n", FormatDuration(t))
		if bk.Packaging.Packages > 0 {
			fmt.Fprintf(b, "   - Пакетів: %d\n", bk.Packaging.Packages)
		}
	}
	if t := bk.Sales.Time(); all || t > 0 {
		fmt.Fprintf(b, "💰 Продаж: %s\n", FormatDuration(t))
		if bk.Sales.Packages > 0 {
			fmt.Fprintf(b, "   - Пакетів продано: %d\n", bk.Sales.Packages)
		}
		if bk.Sales.Amount.IsPositive() {
			fmt.Fprintf(b, "   - Сума: %s грн.\n", bk.Sales.Amount.StringFixed(2))
		}
	}
	if t := bk.OtherWork.Time; all || t > 0 || len(bk.OtherWork.Entries) > 0 {
		fmt.Fprintf(b, "📝 Інша робота: %s\n", FormatDuration(t))
	}
	fmt.Fprintf(b, "⏱ Загальний час: %s\n", FormatDuration(bk.TotalTime()))
}
