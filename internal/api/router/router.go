package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"dryshift/config"
	"dryshift/internal/api/handler"
	"dryshift/internal/api/middleware"
	"dryshift/pkg/jwt"
)

// Setup 初始化并返回 Gin 路由引擎
// limiter 为 nil 时不限流；db 为 nil 时健康检查不探测数据库
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, limiter middleware.RateLimiter, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request.Context())
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── API v1（全部需要服务令牌） ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.ServiceAuth(jwtMgr))
	v1.Use(middleware.RateLimit(limiter, cfg.Server.RateLimit, time.Minute))
	{
		// 用户模块
		users := v1.Group("/users")
		{
			users.POST("", h.User.RegisterUser)
			users.GET("", h.User.ListApproved)
			users.GET("/:id", h.User.GetUser)
			users.PUT("/:id/approval", h.User.SetApproval)
			users.GET("/:id/active-shift", h.Shift.GetActiveShift)
		}

		// 烘干机模块
		units := v1.Group("/units")
		{
			units.GET("", h.Drying.ListUnits)
			units.POST("/sweep", h.Drying.Sweep)
			units.GET("/:id/reservation", h.Drying.GetReservation)
			units.POST("/:id/reservations", h.Drying.Reserve)
		}

		// 班次模块
		shifts := v1.Group("/shifts")
		{
			shifts.POST("", h.Shift.StartShift)
			shifts.POST("/:id/close", h.Shift.CloseShift)
		}

		// 临时工作模块
		v1.POST("/adhoc", h.AdHoc.RecordAdHoc)

		// 报表模块
		reports := v1.Group("/reports")
		{
			reports.GET("/periods", h.Report.ListPeriods)
			reports.GET("/:year/:month", h.Report.GetReport)
			reports.GET("/:year/:month/export", h.Report.ExportReport)
		}
	}

	return r
}
