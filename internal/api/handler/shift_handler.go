package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"dryshift/internal/dto"
	"dryshift/internal/model"
	"dryshift/internal/report"
	"dryshift/internal/service"
	"dryshift/pkg/response"
)

// ShiftHandler 班次模块 HTTP 处理器
type ShiftHandler struct {
	shiftSvc service.ShiftService
	events   EventPublisher
}

// NewShiftHandler 创建 ShiftHandler
func NewShiftHandler(shiftSvc service.ShiftService, events EventPublisher) *ShiftHandler {
	return &ShiftHandler{shiftSvc: shiftSvc, events: events}
}

// StartShift 开班
// POST /api/v1/shifts
func (h *ShiftHandler) StartShift(c *gin.Context) {
	var req dto.StartShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.shiftSvc.Start(c.Request.Context(), req.UserID, model.WorkKind(req.WorkType), req.Partners)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	publish(c, h.events, result.Event)
	response.Created(c, dto.NewShiftResponse(&result.Shift))
}

// GetActiveShift 用户进行中的班次
// GET /api/v1/users/:id/active-shift
func (h *ShiftHandler) GetActiveShift(c *gin.Context) {
	userID, ok := mustParseInt64Param(c, "id")
	if !ok {
		return
	}

	shift, err := h.shiftSvc.ActiveFor(c.Request.Context(), userID)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}
	if shift == nil {
		response.NotFound(c, 21002, "没有进行中的班次")
		return
	}

	response.OK(c, dto.NewShiftResponse(shift))
}

// CloseShift 结班
// POST /api/v1/shifts/:id/close
func (h *ShiftHandler) CloseShift(c *gin.Context) {
	shiftID, ok := mustParseInt64Param(c, "id")
	if !ok {
		return
	}

	var req dto.CloseShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	data, ok := closingData(&req)
	if !ok {
		response.BadRequest(c, 21004, "结班数据无效")
		return
	}

	summary, err := h.shiftSvc.Close(c.Request.Context(), shiftID, data)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	publish(c, h.events, summary.Event)
	response.OK(c, dto.ClosedShiftResponse{
		Shift:           dto.NewShiftResponse(&summary.Shift),
		DurationMinutes: summary.DurationMinutes,
		DurationText:    report.FormatMinutes(summary.DurationMinutes),
	})
}

// closingData 按请求中出现的字段确定结班数据类型，类型是否与班次匹配由 Service 校验
func closingData(req *dto.CloseShiftRequest) (service.ClosingData, bool) {
	switch {
	case req.SalesAmount != nil:
		if req.PackagesCount == nil || req.Results != nil {
			return nil, false
		}
		return service.SalesResult{Packages: *req.PackagesCount, Amount: *req.SalesAmount}, true
	case req.Results != nil:
		if req.PackagesCount != nil {
			return nil, false
		}
		return service.ProductionResult{Text: *req.Results}, true
	case req.PackagesCount != nil:
		return service.PackagingResult{Packages: *req.PackagesCount}, true
	}
	return nil, false
}

// handleShiftError 统一处理班次模块业务错误
func (h *ShiftHandler) handleShiftError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrShiftAlreadyActive):
		response.Conflict(c, 21001, "已有进行中的班次")
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 21002, "班次不存在或已结束")
	case errors.Is(err, service.ErrInvalidWorkKind):
		response.BadRequest(c, 21003, "班次类型无效")
	case errors.Is(err, service.ErrInvalidClosingData):
		response.BadRequest(c, 21004, "结班数据无效")
	default:
		handleCommonError(c, err)
	}
}
