package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"dryshift/internal/service"
	"dryshift/pkg/response"
)

// MustGetClientID 从 Gin 上下文中安全提取调用方 client_id。
// 如果认证中间件未正确注入，返回 false 并写入 401 响应。
func MustGetClientID(c *gin.Context) (string, bool) {
	v, exists := c.Get("client_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// mustParseInt64Param 解析正整数路径参数，失败时写入 400 响应
func mustParseInt64Param(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		response.BadRequest(c, 10001, name+" 参数无效")
		return 0, false
	}
	return v, true
}

// handleCommonError 处理跨模块共用的业务错误
func handleCommonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 24001, "用户不存在")
	case errors.Is(err, service.ErrUserNotApproved):
		response.Forbidden(c, 24002, "用户尚未通过审核")
	case errors.Is(err, service.ErrInvalidUserID):
		response.BadRequest(c, 24003, "用户 ID 无效")
	case errors.Is(err, service.ErrInvalidPartner):
		response.BadRequest(c, 24004, "搭档 ID 无效")
	default:
		// ErrStorage 及未知错误
		_ = c.Error(err)
		response.InternalError(c)
	}
}
