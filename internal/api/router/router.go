package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"berthops/config"
	"berthops/internal/api/handler"
	"berthops/internal/api/middleware"
	"berthops/pkg/jwt"
	"berthops/pkg/metrics"
	"berthops/pkg/redis"
)

const maxBodyBytes = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查与指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})))

	staff := []string{jwt.RoleAdmin, jwt.RoleEngineer, jwt.RoleQualityEngineer}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
	{
		// 作业执行（工人操作自己的作业，工程师与管理员可查看）
		jobs := authorized.Group("/jobs")
		{
			jobs.GET("", h.Job.ListJobs)
			jobs.POST("/:id/start", h.Job.Start)
			jobs.POST("/:id/pause", h.Job.Pause)
			jobs.POST("/:id/resume", h.Job.Resume)
			jobs.POST("/:id/complete", h.Job.Complete)
			jobs.POST("/:id/incomplete", h.Job.MarkIncomplete)
			jobs.GET("/:id/tracking", h.Job.GetTracking)
			jobs.GET("/:id/logs", h.Job.ListLogs)
			jobs.POST("/:id/carry-over", middleware.RoleAuth(staff...), h.CarryOver.Create)
			jobs.GET("/:id/carry-over", h.CarryOver.Get)
		}

		// 暂停审批
		pauses := authorized.Group("/pause-requests", middleware.RoleAuth(staff...))
		{
			pauses.GET("", h.Pause.List)
			pauses.POST("/:id/approve", h.Pause.Approve)
			pauses.POST("/:id/reject", h.Pause.Reject)
		}

		// 日审
		reviews := authorized.Group("/reviews", middleware.RoleAuth(staff...))
		{
			reviews.GET("", h.Review.Get)
			reviews.POST("/:id/ratings", h.Review.Rate)
			reviews.GET("/:id/ratings", h.Review.ListRatings)
			reviews.POST("/:id/materials-reviewed", h.Review.SetMaterialsReviewed)
			reviews.POST("/:id/submit", h.Review.Submit)
		}

		// 评分调整（申诉由工人本人发起，其余由 Service 层按角色鉴权）
		ratings := authorized.Group("/ratings")
		{
			ratings.PUT("/:id/time-override", middleware.RoleAuth(staff...), h.Rating.OverrideTimeRating)
			ratings.POST("/:id/approve-override", middleware.RoleAuth(jwt.RoleAdmin), h.Rating.ApproveOverride)
			ratings.PUT("/:id/bonus", middleware.RoleAuth(jwt.RoleAdmin), h.Rating.SetBonus)
			ratings.POST("/:id/dispute", h.Rating.Dispute)
			ratings.POST("/:id/resolve", middleware.RoleAuth(jwt.RoleAdmin), h.Rating.ResolveDispute)
		}

		// 批处理手动触发
		authorized.POST("/auto-flag",
			middleware.RoleAuth(jwt.RoleAdmin, jwt.RoleEngineer),
			middleware.RateLimit(rdb, 10, time.Minute),
			h.Batch.RunAutoFlag)
		authorized.POST("/performance/compute",
			middleware.RoleAuth(jwt.RoleAdmin),
			middleware.RateLimit(rdb, 10, time.Minute),
			h.Batch.ComputePerformance)
		authorized.GET("/performance", h.Batch.ListPerformance)

		// 导出
		authorized.GET("/export/performance", middleware.RoleAuth(jwt.RoleAdmin), h.Export.ExportPerformance)

		// 通知
		notifications := authorized.Group("/notifications")
		{
			notifications.GET("", h.Notification.List)
			notifications.PUT("/:id/read", h.Notification.MarkRead)
		}
	}

	return r
}
