package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"dryshift/pkg/jwt"
	"dryshift/pkg/response"
)

const clientIDKey = "client_id"

// ServiceAuth 服务令牌认证中间件
// 从 Authorization: Bearer <token> 中提取并验证聊天前端的服务令牌
func ServiceAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			msg := "Token 无效"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Token 已过期"
			}
			response.Unauthorized(c, 10002, msg)
			c.Abort()
			return
		}

		c.Set(clientIDKey, claims.ClientID)

		c.Next()
	}
}
