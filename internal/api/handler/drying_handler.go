package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dryshift/internal/dto"
	"dryshift/internal/service"
	"dryshift/pkg/response"
)

// DryingHandler 烘干机模块 HTTP 处理器
type DryingHandler struct {
	dryingSvc service.DryingService
	events    EventPublisher
}

// NewDryingHandler 创建 DryingHandler
func NewDryingHandler(dryingSvc service.DryingService, events EventPublisher) *DryingHandler {
	return &DryingHandler{dryingSvc: dryingSvc, events: events}
}

// ListUnits 所有烘干机状态
// GET /api/v1/units
func (h *DryingHandler) ListUnits(c *gin.Context) {
	units, err := h.dryingSvc.ListUnits(c.Request.Context())
	if err != nil {
		h.handleDryingError(c, err)
		return
	}

	list := make([]dto.UnitStatusResponse, 0, len(units))
	for _, u := range units {
		item := dto.UnitStatusResponse{UnitID: u.UnitID, Busy: u.Active != nil}
		if u.Active != nil {
			r := dto.NewReservationResponse(u.Active)
			item.Reservation = &r
		}
		list = append(list, item)
	}
	response.OK(c, gin.H{"list": list})
}

// GetReservation 当前占用
// GET /api/v1/units/:id/reservation
func (h *DryingHandler) GetReservation(c *gin.Context) {
	unitID, ok := parseUnitID(c)
	if !ok {
		return
	}

	active, err := h.dryingSvc.ActiveReservation(c.Request.Context(), unitID)
	if err != nil {
		h.handleDryingError(c, err)
		return
	}

	resp := dto.UnitStatusResponse{UnitID: unitID, Busy: active != nil}
	if active != nil {
		r := dto.NewReservationResponse(active)
		resp.Reservation = &r
	}
	response.OK(c, resp)
}

// Reserve 占用烘干机
// POST /api/v1/units/:id/reservations
func (h *DryingHandler) Reserve(c *gin.Context) {
	unitID, ok := parseUnitID(c)
	if !ok {
		return
	}

	var req dto.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.dryingSvc.Reserve(c.Request.Context(), unitID, req.UserID, req.Hours)
	if err != nil {
		h.handleDryingError(c, err)
		return
	}

	publish(c, h.events, result.Event)
	response.Created(c, dto.NewReservationResponse(&result.Reservation))
}

// Sweep 手动触发到期清扫（运维用）
// POST /api/v1/units/sweep
func (h *DryingHandler) Sweep(c *gin.Context) {
	expired, err := h.dryingSvc.SweepExpired(c.Request.Context())
	if err != nil {
		h.handleDryingError(c, err)
		return
	}

	resp := dto.SweepResponse{Finished: make([]dto.ReservationResponse, 0, len(expired))}
	for i := range expired {
		resp.Finished = append(resp.Finished, dto.NewReservationResponse(&expired[i].Reservation))
		publish(c, h.events, expired[i].Event)
		resp.Notified++
	}
	response.OK(c, resp)
}

func parseUnitID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.BadRequest(c, 20001, "烘干机编号无效")
		return 0, false
	}
	return id, true
}

// handleDryingError 统一处理烘干机模块业务错误
func (h *DryingHandler) handleDryingError(c *gin.Context, err error) {
	var busy *service.UnitBusyError
	switch {
	case errors.As(err, &busy):
		response.ErrorWithData(c, http.StatusConflict, 20003, "烘干机正在使用中", dto.UnitBusyResponse{
			UnitID:  busy.UnitID,
			OwnerID: busy.OwnerID,
			Until:   busy.Until,
		})
	case errors.Is(err, service.ErrInvalidResource):
		response.BadRequest(c, 20001, "烘干机编号无效")
	case errors.Is(err, service.ErrInvalidDuration):
		response.BadRequest(c, 20002, "时长无效")
	default:
		handleCommonError(c, err)
	}
}
