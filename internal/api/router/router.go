package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"notice-board/config"
	"notice-board/internal/api/handler"
	"notice-board/internal/api/middleware"
	"notice-board/internal/policy"
	"notice-board/pkg/jwt"
	"notice-board/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时 Token 黑名单与限流均降级关闭
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// 避免把 nil *redis.Client 装进非 nil 接口
	var (
		blacklist middleware.TokenBlacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authn := middleware.JWTAuth(jwtMgr, blacklist, logger)
	staff := middleware.RoleAuth(policy.RoleTeacher, policy.RoleAdmin)
	adminOnly := middleware.RoleAuth(policy.RoleAdmin)
	limit := middleware.RateLimit(limiter, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window, logger)

	api := r.Group("/api")
	{
		// 认证模块
		auth := api.Group("/auth")
		{
			auth.POST("/register", limit, h.Auth.Register)
			auth.POST("/login", limit, h.Auth.Login)
			auth.POST("/logout", authn, h.Auth.Logout)
			auth.GET("/me", authn, h.Auth.GetCurrentUser)
		}

		// 公告模块（列表与日历公开）
		notices := api.Group("/notices")
		{
			notices.GET("", h.Notice.ListNotices)
			notices.GET("/calendar.ics", h.Export.Calendar)
			notices.GET("/export", authn, staff, h.Export.ExportNotices)
			notices.POST("", authn, staff, h.Notice.CreateNotice)
			notices.DELETE("/:id", authn, h.Notice.DeleteNotice) // 作者本人或管理员（策略层判定）
		}

		// 用户管理模块（仅管理员）
		users := api.Group("/users")
		users.Use(authn, adminOnly)
		{
			users.GET("", h.User.ListUsers)
			users.POST("", h.User.CreateUser)
			users.PUT("/:id/role", h.User.UpdateRole)
			users.DELETE("/:id", h.User.DeleteUser)
		}
	}

	return r
}
