package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumeForge/internal/ai"
	"resumeForge/internal/api/middleware"
	"resumeForge/internal/auth"
	"resumeForge/internal/config"
	"resumeForge/internal/resume"
	"resumeForge/internal/storage"
)

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	asynqClient *asynq.Client,
	authService *auth.AuthService,
	redisClient *redis.Client,
	logger *slog.Logger,
	storageClient *storage.Client,
	enhancer ai.Enhancer,
) error {
	sectionService := resume.NewService(db)

	resumeHandler := NewResumeHandler(db, sectionService, cfg.API.MaxResumes)
	sectionHandler := NewSectionHandler(db, sectionService)
	exportHandler, err := NewExportHandler(db, asynqClient, storageClient)
	if err != nil {
		return err
	}
	templateHandler := NewTemplateHandler(db)
	aiHandler := NewAIHandler(db, enhancer, ai.NewRecorder(db, cfg.AI.Model), sectionService)
	authHandler := NewAuthHandler(db, authService, redisClient, logger, cfg.Auth.LoginRateLimitPerHour, cfg.Auth.CookieDomain)
	wsHandler := NewWsHandler(redisClient, authService, logger, cfg.API.AllowedOrigins)
	assetHandler := NewAssetHandler(storageClient, logger, cfg.API.ClamdAddr)
	authMiddleware := middleware.AuthMiddleware(authService)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		}

		templateGroup := v1.Group("/templates")
		templateGroup.Use(authMiddleware)
		{
			templateGroup.GET("", templateHandler.ListTemplates)
			templateGroup.GET("/:id", templateHandler.GetTemplate)
		}

		resumeGroup := v1.Group("/resumes")
		resumeGroup.Use(authMiddleware)
		{
			resumeGroup.GET("", resumeHandler.ListResumes)
			resumeGroup.POST("", resumeHandler.CreateResume)
			resumeGroup.GET("/latest", resumeHandler.GetLatestResume)
			resumeGroup.GET("/:id", resumeHandler.GetResume)
			resumeGroup.PATCH("/:id", resumeHandler.UpdateResume)
			resumeGroup.DELETE("/:id", resumeHandler.DeleteResume)

			resumeGroup.GET("/:id/sections", sectionHandler.ListSections)
			resumeGroup.POST("/:id/sections", sectionHandler.AddSection)
			resumeGroup.PUT("/:id/sections", sectionHandler.ReplaceSections)
			resumeGroup.PUT("/:id/sections/order", sectionHandler.ReorderSections)
			resumeGroup.PATCH("/:id/sections/:sectionID", sectionHandler.UpdateSection)
			resumeGroup.DELETE("/:id/sections/:sectionID", sectionHandler.RemoveSection)

			resumeGroup.POST("/:id/sections/:sectionID/enhance", aiHandler.EnhanceSection)

			resumeGroup.GET("/:id/preview", exportHandler.PreviewResume)
			resumeGroup.POST("/:id/export", exportHandler.ExportResume)
			resumeGroup.GET("/:id/export/download-link", exportHandler.GetDownloadLink)
		}

		assetGroup := v1.Group("/assets")
		assetGroup.Use(authMiddleware)
		{
			assetGroup.POST("/photo", assetHandler.UploadPhoto)
			assetGroup.GET("/photo", assetHandler.GetPhotoURL)
		}
	}

	return nil
}
