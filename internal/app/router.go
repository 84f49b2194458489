package app

import (
	"gamified_ds_backend/docs"
	"gamified_ds_backend/internal/config"
	"gamified_ds_backend/internal/middleware"
	"gamified_ds_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)

		// Reading the board needs no login. Entries come from stored
		// progress, so guests see the same ranking as players.
		public.GET("/leaderboard", c.leaderboard.GetLeaderboard)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)
		authGroup.PUT("/user/profile", c.user.UpdateProfile)
		authGroup.POST("/user/avatar/upload", c.user.UploadAvatar)

		authGroup.POST("/leaderboard/update-score", c.leaderboard.UpdateScore)
		authGroup.POST("/leaderboard/update-mission-score", c.leaderboard.UpdateMissionScore)
		authGroup.GET("/leaderboard/my-progress", c.leaderboard.GetMyProgress)
	}
}
