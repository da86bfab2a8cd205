package app

import (
	"time"

	"expert_review_backend/docs"
	"expert_review_backend/internal/config"
	"expert_review_backend/internal/middleware"
	"expert_review_backend/internal/model"
	"expert_review_backend/internal/util"
	"expert_review_backend/pkg/monitoring"
	"expert_review_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// 每个用户每分钟最多导出次数
const exportsPerMinute = 5

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		// 2. 提交者与专家
		a.registerSubmissionRoutes(authGroup, c)

		// 3. 专家评审
		a.registerExpertRoutes(authGroup, c)
	}
}

func (a *App) registerSubmissionRoutes(group *gin.RouterGroup, c *controllers) {
	submissions := group.Group("/submissions/:id")
	{
		submissions.GET("/review", c.review.GetReview)
		submissions.GET("/report", c.report.Download)
		submissions.GET("/report/pages", c.report.Pages)
		submissions.POST("/report/export",
			security.RateLimiter(exportsPerMinute, time.Minute, byUser),
			c.report.Export)
	}
}

func (a *App) registerExpertRoutes(group *gin.RouterGroup, c *controllers) {
	expert := group.Group("/expert")
	expert.Use(middleware.RoleMiddleware(model.Expert))
	{
		expert.GET("/reviews/pending", c.review.ListPending)
		expert.GET("/submissions/:id/review", c.review.OpenForReview)
		expert.PUT("/submissions/:id/review/draft", c.review.SaveDraft)
		expert.POST("/submissions/:id/review/finalize", c.review.Finalize)
	}
}

// byUser 按登录用户限流，未登录时退回客户端 IP
func byUser(c *gin.Context) string {
	if user := util.GetUserFromContext(c); user != nil {
		return "user:" + util.FormatUint(user.UserID)
	}
	return security.ByClientIP(c)
}
