package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"umuganda/backend/config"
	"umuganda/backend/internal/api/handler"
	"umuganda/backend/internal/api/middleware"
	"umuganda/backend/internal/model"
	"umuganda/backend/pkg/jwt"
	"umuganda/backend/pkg/metrics"
	"umuganda/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	// ── 证书文件 ──
	if cfg.Storage.MediaURL != "" && cfg.Storage.MediaRoot != "" {
		r.Static(cfg.Storage.MediaURL, cfg.Storage.MediaRoot)
	}

	managers := middleware.RoleAuth(model.RoleLeader, model.RoleAdmin)
	scanLimit := middleware.RateLimit(rdb, cfg.Checkin.RateLimit, cfg.Checkin.RateLimitWindow)

	// ── API v1（全部需要认证） ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	{
		// 项目模块
		projects := v1.Group("/projects/:id")
		{
			projects.GET("", h.Project.GetProject)
			projects.PUT("/status", managers, h.Project.UpdateStatus)
			projects.POST("/checkin-code", managers, h.Checkin.IssueCode)
			projects.GET("/checkin-code", managers, h.Checkin.GetCode)
			projects.GET("/checkin-code/qr.png", managers, h.Checkin.GetQRImage)
			projects.GET("/attendance", managers, h.Checkin.ListAttendance)
			projects.GET("/attendance/export", managers, h.Export.ExportAttendance)
			projects.GET("/calendar.ics", h.Export.ProjectCalendar)
		}

		// 扫码签到 / 签退
		attendance := v1.Group("/attendance")
		attendance.Use(scanLimit)
		{
			attendance.POST("/checkin", h.Checkin.CheckIn)
			attendance.POST("/checkout", h.Checkin.CheckOut)
		}

		// 证书模块
		certificates := v1.Group("/certificates")
		{
			certificates.GET("/me", h.Certificate.ListMine)
			certificates.GET("/:id", h.Certificate.GetCertificate) // 本人或管理员（Service 层鉴权）
			certificates.POST("/generate/:project_id", h.Certificate.Generate)
		}

		// 徽章模块
		v1.GET("/badges", h.Badge.ListCatalog)
		v1.GET("/users/me/badges", h.Badge.ListMine)
		v1.GET("/users/:id/badges", h.Badge.ListForUser)

		// 通知模块
		notifications := v1.Group("/notifications")
		{
			notifications.GET("", h.Notification.ListNotifications)
			notifications.PUT("/:id/read", h.Notification.MarkRead)
		}
	}

	return r
}
