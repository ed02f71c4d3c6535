package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"dryshift/internal/dto"
	"dryshift/internal/report"
	"dryshift/internal/service"
	"dryshift/pkg/response"
)

// ReportHandler 报表模块 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
	exportSvc service.ExportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService, exportSvc service.ExportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc, exportSvc: exportSvc}
}

// GetReport 月度报表
// GET /api/v1/reports/:year/:month?user_id=&format=json|text
func (h *ReportHandler) GetReport(c *gin.Context) {
	year, month, ok := parsePeriod(c)
	if !ok {
		return
	}

	var q dto.ReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	r, err := h.reportSvc.Generate(c.Request.Context(), year, month, q.UserID)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	if q.Format == "text" {
		c.String(http.StatusOK, report.RenderText(*r))
		return
	}
	response.OK(c, dto.NewReportResponse(r))
}

// ListPeriods 有数据的月份
// GET /api/v1/reports/periods?user_id=
func (h *ReportHandler) ListPeriods(c *gin.Context) {
	var q dto.PeriodsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	periods, err := h.reportSvc.AvailablePeriods(c.Request.Context(), q.UserID)
	if err != nil {
		h.handleReportError(c, err)
		return
	}
	response.OK(c, dto.PeriodsResponse{Periods: periods})
}

// ExportReport 导出月度报表
// GET /api/v1/reports/:year/:month/export?user_id=
func (h *ReportHandler) ExportReport(c *gin.Context) {
	year, month, ok := parsePeriod(c)
	if !ok {
		return
	}

	var q dto.PeriodsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportMonthly(c.Request.Context(), year, month, q.UserID)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func parsePeriod(c *gin.Context) (int, int, bool) {
	year, err1 := strconv.Atoi(c.Param("year"))
	month, err2 := strconv.Atoi(c.Param("month"))
	if err1 != nil || err2 != nil {
		response.BadRequest(c, 23001, "报表月份无效")
		return 0, 0, false
	}
	return year, month, true
}

// handleReportError 统一处理报表模块业务错误
func (h *ReportHandler) handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPeriod):
		response.BadRequest(c, 23001, "报表月份无效")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		handleCommonError(c, err)
	}
}
