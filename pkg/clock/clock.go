// Package clock 提供可替换的时间源，业务代码只通过 Clock 获取当前时间。
package clock

import (
	"sync"
	"time"
)

// Clock 当前时间来源
type Clock interface {
	Now() time.Time
}

// System 系统时钟，返回指定时区的当前时间
type System struct {
	loc *time.Location
}

// NewSystem 创建系统时钟；loc 为 nil 时使用本地时区
func NewSystem(loc *time.Location) *System {
	if loc == nil {
		loc = time.Local
	}
	return &System{loc: loc}
}

// Now 当前时间（截断到秒，与数据库 timestamp 精度保持一致）
func (s *System) Now() time.Time {
	return time.Now().In(s.loc).Truncate(time.Second)
}

// Location 时钟所在时区
func (s *System) Location() *time.Location {
	return s.loc
}

// Fake 可控时钟，测试专用
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake 创建固定在 t 的时钟
func NewFake(t time.Time) *Fake {
	return &Fake{now: t}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set 将时钟拨到 t
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// Advance 时钟前进 d
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
