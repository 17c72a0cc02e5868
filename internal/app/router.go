package app

import (
	"questline_backend/docs"
	"questline_backend/internal/config"
	"questline_backend/internal/middleware"
	"questline_backend/internal/model"

	"questline_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的参与者路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerParticipantRoutes(authGroup, c)
		a.registerReviewerRoutes(authGroup, c)
	}

	// 3. 管理员路由
	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// 榜单允许游客围观
		public.GET("/campaigns", c.campaign.ListCampaigns)
		public.GET("/campaigns/:id", c.campaign.GetCampaign)
		public.GET("/campaigns/:id/leaderboard", c.leaderboard.GetLeaderboard)
		public.GET("/campaigns/:id/podium", c.leaderboard.GetPodium)
	}
}

func (a *App) registerParticipantRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)

	rg.POST("/teams", c.team.CreateTeam)
	rg.POST("/teams/:id/join", c.team.JoinTeam)
	rg.GET("/teams/:id", c.team.GetTeam)

	rg.POST("/campaigns/:id/join", c.campaign.JoinCampaign)
	rg.GET("/campaigns/:id/unlocked-tasks", c.campaign.ListUnlockedTasks)
	rg.GET("/campaigns/:id/progress", c.campaign.GetProgress)

	rg.POST("/submissions", c.submission.CreateSubmission)
	rg.GET("/submissions", c.submission.ListMySubmissions)
	rg.POST("/submissions/proof", c.submission.UploadProof)
}

func (a *App) registerReviewerRoutes(rg *gin.RouterGroup, c *controllers) {
	review := rg.Group("/review")
	review.Use(middleware.RoleMiddleware(model.Reviewer))
	{
		review.GET("/queue", c.submission.PendingQueue)
		review.POST("/submissions/:id", c.submission.ReviewSubmission)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/campaigns", c.catalog.CreateCampaign)
		admin.GET("/campaigns", c.catalog.ListAllCampaigns)
		admin.DELETE("/campaigns/:id", c.catalog.DeactivateCampaign)
		admin.POST("/tasks", c.catalog.CreateTask)
		admin.POST("/tasks/attach", c.catalog.AttachTask)
		admin.POST("/dependencies", c.catalog.AddDependency)
		admin.POST("/achievements", c.catalog.AddAchievement)
	}
}
