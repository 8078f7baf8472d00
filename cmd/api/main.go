package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/studytrack/planner-api/internal/handler"
	"github.com/studytrack/planner-api/internal/middleware"
	"github.com/studytrack/planner-api/internal/repository"
	"github.com/studytrack/planner-api/internal/service"
	"github.com/studytrack/planner-api/pkg/cache"
	"github.com/studytrack/planner-api/pkg/config"
	"github.com/studytrack/planner-api/pkg/database"
	"github.com/studytrack/planner-api/pkg/logger"
	corsmiddleware "github.com/studytrack/planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/studytrack/planner-api/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Caching is optional: the API degrades to uncached reads.
		logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	eventRepo := repository.NewEventRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	moduleRepo := repository.NewModuleRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsService := service.NewMetricsService()
	tokenService := service.NewTokenService(cfg.JWT.Secret)
	plannerService := service.NewPlannerService(
		eventRepo,
		taskRepo,
		moduleRepo,
		cacheRepo,
		db,
		metricsService,
		validate,
		logr,
		service.PlannerServiceConfig{
			ProposalTTL: cfg.Planner.ProposalTTL,
			HorizonDays: cfg.Planner.HorizonDays,
			BusyWindow:  cfg.Planner.BusyWindow,
		},
	)
	calendarService := service.NewCalendarService(
		eventRepo,
		moduleRepo,
		cacheRepo,
		metricsService,
		validate,
		logr,
		service.CalendarServiceConfig{
			CacheEnabled: cfg.Calendar.CacheEnabled && redisClient != nil,
			CacheTTL:     cfg.Calendar.CacheTTL,
		},
	)

	plannerHandler := handler.NewPlannerHandler(plannerService)
	calendarHandler := handler.NewCalendarHandler(calendarService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenService))
	{
		api.POST("/planner/preview", plannerHandler.Preview)
		api.POST("/planner/commit", plannerHandler.Commit)
		api.GET("/planner/export", plannerHandler.Export)

		api.GET("/calendar/events", calendarHandler.List)
		api.POST("/calendar/events", calendarHandler.Create)
		api.DELETE("/calendar/events/:id", calendarHandler.Delete)

		api.GET("/metrics/summary", metricsHandler.Summary)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
