package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"dryshift/internal/notify"
	"dryshift/internal/service"
)

// EventPublisher 业务事件外发，由 notify.Dispatcher 实现
type EventPublisher interface {
	Dispatch(ctx context.Context, ev notify.Event) int
}

// Handler 所有 Handler 的聚合入口
type Handler struct {
	User   *UserHandler
	Drying *DryingHandler
	Shift  *ShiftHandler
	AdHoc  *AdHocHandler
	Report *ReportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, events EventPublisher) *Handler {
	return &Handler{
		User:   NewUserHandler(svc.User, events),
		Drying: NewDryingHandler(svc.Drying, events),
		Shift:  NewShiftHandler(svc.Shift, events),
		AdHoc:  NewAdHocHandler(svc.WorkRecord, events),
		Report: NewReportHandler(svc.Report, svc.Export),
	}
}

// publish 在响应之外异步发送事件，不随请求取消
func publish(c *gin.Context, events EventPublisher, ev notify.Event) {
	if events == nil {
		return
	}
	ctx := context.WithoutCancel(c.Request.Context())
	go events.Dispatch(ctx, ev)
}
