package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"dryshift/internal/dto"
	"dryshift/internal/service"
	"dryshift/pkg/response"
)

// AdHocHandler 临时工作模块 HTTP 处理器
type AdHocHandler struct {
	workSvc service.WorkRecordService
	events  EventPublisher
}

// NewAdHocHandler 创建 AdHocHandler
func NewAdHocHandler(workSvc service.WorkRecordService, events EventPublisher) *AdHocHandler {
	return &AdHocHandler{workSvc: workSvc, events: events}
}

// RecordAdHoc 记录临时工作
// POST /api/v1/adhoc
func (h *AdHocHandler) RecordAdHoc(c *gin.Context) {
	var req dto.AdHocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.workSvc.RecordAdHoc(c.Request.Context(), req.UserID, req.Partners, req.Description, req.DurationMinutes)
	if err != nil {
		h.handleAdHocError(c, err)
		return
	}

	publish(c, h.events, result.Event)
	response.Created(c, dto.NewAdHocResponse(&result.Entry))
}

// handleAdHocError 统一处理临时工作模块业务错误
func (h *AdHocHandler) handleAdHocError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDescription):
		response.BadRequest(c, 22001, "工作描述无效")
	case errors.Is(err, service.ErrInvalidDuration):
		response.BadRequest(c, 22002, "时长无效")
	default:
		handleCommonError(c, err)
	}
}
