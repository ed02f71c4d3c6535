package handler

import (
	"github.com/gin-gonic/gin"

	"dryshift/internal/dto"
	"dryshift/internal/service"
	"dryshift/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
	events  EventPublisher
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService, events EventPublisher) *UserHandler {
	return &UserHandler{userSvc: userSvc, events: events}
}

// RegisterUser 首次联系时登记用户
// POST /api/v1/users
func (h *UserHandler) RegisterUser(c *gin.Context) {
	var req dto.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.userSvc.Register(c.Request.Context(), req.UserID, req.Username)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	if result.Event != nil {
		publish(c, h.events, *result.Event)
	}
	resp := dto.RegisterUserResponse{User: dto.NewUserResponse(&result.User), Created: result.Created}
	if result.Created {
		response.Created(c, resp)
		return
	}
	response.OK(c, resp)
}

// GetUser 用户详情
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := mustParseInt64Param(c, "id")
	if !ok {
		return
	}

	user, err := h.userSvc.Get(c.Request.Context(), userID)
	if err != nil {
		handleCommonError(c, err)
		return
	}
	response.OK(c, dto.NewUserResponse(user))
}

// ListApproved 已审核用户（选择搭档用）
// GET /api/v1/users
func (h *UserHandler) ListApproved(c *gin.Context) {
	users, err := h.userSvc.ListApproved(c.Request.Context())
	if err != nil {
		handleCommonError(c, err)
		return
	}

	list := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		list = append(list, dto.NewUserResponse(&users[i]))
	}
	response.OK(c, gin.H{"list": list})
}

// SetApproval 审核用户
// PUT /api/v1/users/:id/approval
func (h *UserHandler) SetApproval(c *gin.Context) {
	userID, ok := mustParseInt64Param(c, "id")
	if !ok {
		return
	}

	var req dto.ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.userSvc.SetApproval(c.Request.Context(), userID, *req.Approved)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	publish(c, h.events, result.Event)
	response.OK(c, dto.NewUserResponse(&result.User))
}
