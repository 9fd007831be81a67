package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/swiftrelo/backend/internal/config"
	"github.com/swiftrelo/backend/internal/db"
	"github.com/swiftrelo/backend/internal/estimate"
	"github.com/swiftrelo/backend/internal/geocode"
	"github.com/swiftrelo/backend/internal/http/handlers"
	"github.com/swiftrelo/backend/internal/http/middleware"
	"github.com/swiftrelo/backend/internal/schedule"
	"github.com/swiftrelo/backend/internal/service"

	_ "github.com/swiftrelo/backend/docs"
)

func Router(cfg config.Config, store *db.Store, est *estimate.Estimator, scheduler *schedule.Scheduler, batch *service.BatchService, geocoder geocode.Geocoder, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:          store,
		Estimator:      est,
		Scheduler:      scheduler,
		Batch:          batch,
		Geocoder:       geocoder,
		Validator:      validator.New(),
		Logger:         logger,
		CountryDefault: cfg.CountryDefault,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.POST("/estimate", h.Estimate)
		api.GET("/jobs", h.JobsList)
		api.GET("/jobs/:id", h.JobDetails)
		api.GET("/crews", h.CrewsList)
		api.GET("/runs/latest", h.RunsLatest)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/import", h.Import)
		admin.POST("/jobs/:id/schedule", h.ScheduleJob)
		admin.POST("/jobs/:id/reassign", h.Reassign)
		admin.POST("/optimize", h.Optimize)
		admin.GET("/debug/capability", h.DebugCapability)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
