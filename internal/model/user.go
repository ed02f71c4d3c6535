package model

import "strconv"

// User 用户表 — 对应 users
// 以聊天平台的用户 ID 作为主键，首次联系时创建，不删除
type User struct {
	UserID     int64   `gorm:"primaryKey;autoIncrement:false"  json:"user_id"`
	Username   *string `gorm:"type:text"                       json:"username,omitempty"`
	IsApproved bool    `gorm:"not null;default:false"          json:"is_approved"`
	Timestamps
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// DisplayName 展示名：有用户名时为 @username，否则为 "Користувач <id>"
func (u *User) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return "@" + *u.Username
	}
	return "Користувач " + strconv.FormatInt(u.UserID, 10)
}
