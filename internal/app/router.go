package app

import (
	"learnpulse_backend/docs"
	"learnpulse_backend/internal/config"
	"learnpulse_backend/internal/middleware"
	"learnpulse_backend/internal/model"
	"learnpulse_backend/pkg/monitoring"

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
		public.GET("/health", c.health.Health)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)

		authGroup.GET("/skills", c.skill.ListSkills)
		authGroup.GET("/skills/:id", c.skill.GetSkill)

		assessment := authGroup.Group("/assessment")
		{
			assessment.POST("/sessions", c.assessment.StartSession)
			assessment.GET("/sessions/:id/next", c.assessment.GetNextQuestion)
			assessment.POST("/sessions/:id/answers", c.assessment.SubmitAnswer)
			assessment.GET("/sessions/:id/result", c.assessment.GetSessionResult)
			assessment.GET("/scores", c.assessment.GetMyScores)
		}

		authGroup.GET("/recommendations", c.recommendation.GetRecommendations)
		authGroup.GET("/recommendations/history", c.recommendation.GetHistory)
		authGroup.POST("/recommendations/:id/complete", c.recommendation.MarkCompleted)

		authGroup.GET("/resources", c.resource.ListResources)
		authGroup.GET("/resources/:id", c.resource.GetResource)

		curator := authGroup.Group("/curator")
		curator.Use(middleware.RoleMiddleware(model.Curator))
		{
			curator.POST("/skills", c.skill.CreateSkill)
			curator.PUT("/skills/:id", c.skill.UpdateSkill)
			curator.PATCH("/skills/:id/status", c.skill.SetSkillStatus)

			curator.GET("/questions", c.question.ListQuestions)
			curator.POST("/questions", c.question.CreateQuestion)
			curator.PUT("/questions/:id", c.question.UpdateQuestion)
			curator.PATCH("/questions/:id/status", c.question.SetQuestionStatus)

			curator.POST("/resources", c.resource.CreateResource)
			curator.PUT("/resources/:id", c.resource.UpdateResource)
			curator.DELETE("/resources/:id", c.resource.DeleteResource)
			curator.POST("/resources/:id/file", c.resource.UploadResourceFile)
		}

		admin := authGroup.Group("/admin")
		admin.Use(middleware.RoleMiddleware(model.Admin))
		{
			admin.GET("/ai-metrics", c.recommendation.GetAIMetrics)
		}
	}
}
