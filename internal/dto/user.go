package dto

import "dryshift/internal/model"

// ── 用户模块 DTO ──

// RegisterUserRequest 首次联系时登记用户
type RegisterUserRequest struct {
	UserID   int64   `json:"user_id"  binding:"required,gt=0"`
	Username *string `json:"username" binding:"omitempty,max=64"`
}

// ApprovalRequest 审核请求
type ApprovalRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

// UserResponse 用户信息响应
type UserResponse struct {
	UserID      int64   `json:"user_id"`
	Username    *string `json:"username,omitempty"`
	DisplayName string  `json:"display_name"`
	IsApproved  bool    `json:"is_approved"`
}

// RegisterUserResponse 登记结果
type RegisterUserResponse struct {
	User    UserResponse `json:"user"`
	Created bool         `json:"created"`
}

// NewUserResponse 转换用户
func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		UserID:      u.UserID,
		Username:    u.Username,
		DisplayName: u.DisplayName(),
		IsApproved:  u.IsApproved,
	}
}
