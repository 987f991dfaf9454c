package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studyflow/backend/config"
	"studyflow/backend/internal/api/handler"
	"studyflow/backend/internal/api/middleware"
	"studyflow/backend/pkg/jwt"
	"studyflow/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(2 << 20)) // 2MB，覆盖批量导入请求体

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，登录/注册限流防爆破）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, 20, time.Minute))
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetMe)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 学习计划模块
			plans := authorized.Group("/plans")
			{
				plans.POST("", h.Plan.CreatePlan)
				plans.GET("", h.Plan.ListPlans)
				plans.GET("/:id", h.Plan.GetPlan)
				plans.PUT("/:id", h.Plan.UpdatePlan)
				plans.DELETE("/:id", h.Plan.DeletePlan)
				plans.GET("/:id/capacity", h.Plan.CheckCapacity)

				// 学习统计模块
				plans.GET("/:id/progress", h.Stats.GetPlanProgress)
				plans.GET("/:id/daily-load", h.Stats.GetDailyLoad)
				plans.GET("/:id/subjects-breakdown", h.Stats.GetSubjectBreakdown)
			}

			// 学习目标模块（目标无删除端点：放弃/完成是终态，行仅随计划级联删除）
			goals := authorized.Group("/goals")
			{
				goals.POST("", h.Goal.CreateGoal)
				goals.GET("", h.Goal.ListGoals)
				goals.GET("/:id", h.Goal.GetGoal)
				goals.POST("/:id/start", h.Goal.StartGoal)
				goals.POST("/:id/pause", h.Goal.PauseGoal)
				goals.POST("/:id/complete", h.Goal.CompleteGoal)
				goals.POST("/:id/request-more-time", h.Goal.RequestMoreTime)
				goals.POST("/:id/omit", h.Goal.OmitGoal)
				goals.PUT("/:id/reschedule", h.Goal.RescheduleGoal)
			}

			// 批量导入模块
			importGroup := authorized.Group("/import")
			{
				importGroup.POST("/goals/parse", h.Import.ParseTemplate)
				importGroup.POST("/goals/validate", h.Import.ValidateBatch)
				importGroup.POST("/goals", h.Import.ImportBatch)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/plans/:id/xlsx", h.Export.ExportPlanXLSX)
				export.GET("/plans/:id/ics", h.Export.ExportPlanICS)
			}

			// 排期规则模块
			rules := authorized.Group("/scheduling-rules")
			{
				rules.GET("", h.Rule.ListRules)
				rules.GET("/:code", h.Rule.GetRule)
				rules.PUT("/:code", middleware.RoleAuth("admin"), h.Rule.UpdateRule)
			}

			// 知识分类模块（只读目录）
			disciplines := authorized.Group("/disciplines")
			{
				disciplines.GET("", h.Taxonomy.ListDisciplines)
				disciplines.GET("/:id/tree", h.Taxonomy.GetDisciplineTree)
			}
		}
	}

	return r
}
