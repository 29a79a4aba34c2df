package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"yardcheck/internal/config"
	"yardcheck/internal/delivery/http/handler"
	"yardcheck/internal/events"
	"yardcheck/internal/infrastructure/database/postgres"
	"yardcheck/internal/middleware"
	"yardcheck/internal/realtime"
	"yardcheck/internal/report"
	"yardcheck/internal/storage"
	usecaseInspection "yardcheck/internal/usecase/inspection"
	usecaseInspector "yardcheck/internal/usecase/inspector"
)

func SetupRoutes(cfg *config.Config, db *postgres.DB, photoFs afero.Fs, bus events.Publisher) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))

	router.GET("/health", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "Database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	})

	// Stored photos are served straight off the object store root
	router.StaticFS("/photos", afero.NewHttpFs(photoFs))

	gateway := storage.NewGateway(photoFs, cfg.Server.PublicURL)
	hub := realtime.NewHub()

	inspectionRepository := postgres.NewInspectionRepository(db)
	inspectionService := usecaseInspection.NewService(
		inspectionRepository, gateway, hub, bus, usecaseInspection.DefaultRetryPolicy,
	)
	inspectionHandler := handler.NewInspectionHandler(inspectionService, hub)

	inspectorRepository := postgres.NewInspectorRepository(db)
	inspectorService := usecaseInspector.NewService(inspectorRepository, cfg)
	inspectorHandler := handler.NewInspectorHandler(inspectorService)

	reportService := report.NewService(
		inspectionRepository, gateway,
		report.NewSMTPSender(cfg.SMTP),
		cfg.RateLimit.EmailPerHour,
	)
	reportHandler := handler.NewReportHandler(reportService)

	v1 := router.Group("/api/v1")
	{
		inspectorHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			inspectorHandler.RegisterProtectedRoutes(protected)
			inspectionHandler.RegisterRoutes(protected)
			reportHandler.RegisterRoutes(protected)

			admin := protected.Group("")
			admin.Use(middleware.AdminOnly())
			{
				inspectorHandler.RegisterAdminRoutes(admin)
			}
		}
	}

	return router
}
