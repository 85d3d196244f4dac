package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable/api/swagger"
	"github.com/noah-isme/sma-timetable/internal/handler"
	"github.com/noah-isme/sma-timetable/internal/middleware"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/repository"
	"github.com/noah-isme/sma-timetable/internal/service"
	"github.com/noah-isme/sma-timetable/pkg/cache"
	"github.com/noah-isme/sma-timetable/pkg/config"
	"github.com/noah-isme/sma-timetable/pkg/database"
	"github.com/noah-isme/sma-timetable/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable/pkg/middleware/requestid"
)

// @title SMA Timetable API
// @version 1.0.0
// @description Weekly timetable solving, validation, versioned overrides and staffing gap analysis.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	validate := validator.New()

	var archive service.HistoryArchive
	if cfg.Archive.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer db.Close()
		if err := database.EnsureSchema(ctx, db); err != nil {
			logr.Fatal("failed to prepare schema", zap.Error(err))
		}
		archive = newArchive(db, metrics, logr)
	}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, solve cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			cacheRepo = newCacheRepository(client, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cacheRepo != nil)

	timetable := service.NewTimetableService(archive, cacheSvc, metrics, validate, logr, service.TimetableServiceConfig{
		DefaultPolicy: policyFromConfig(cfg.Scheduler),
		CacheTTL:      cfg.Cache.TTL,
		BatchWorkers:  cfg.Scheduler.BatchWorkers,
		BatchRetries:  cfg.Scheduler.BatchRetries,
	})
	tokens := service.NewTokenService(service.TokenConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: cfg.JWT.Expiration,
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Routes{
		Timetable: handler.NewTimetableHandler(timetable, service.NewExportService(nil, nil, logr), validate),
		Metrics:   metricsHandler,
		Tokens:    tokens,
	}.Mount(r.Group(cfg.APIPrefix))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "archive", cfg.Archive.Enabled, "cache", cacheSvc.Enabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func newArchive(db *sqlx.DB, metrics *service.MetricsService, logr *zap.Logger) *service.ScheduleArchiveService {
	return service.NewScheduleArchiveService(
		db,
		repository.NewScheduleVersionRepository(db),
		repository.NewScheduleAssignmentRepository(db),
		metrics,
		logr,
	)
}

func newCacheRepository(client *redis.Client, logr *zap.Logger) *repository.CacheRepository {
	return repository.NewCacheRepository(client, logr)
}

// policyFromConfig builds the default policy for units registered without one.
func policyFromConfig(cfg config.SchedulerConfig) models.Policy {
	return models.Policy{
		SpecializationStrictness: models.SpecializationStrictness(cfg.Strictness),
		MaxHoursDay:              cfg.MaxHoursDay,
		MaxHoursWeek:             cfg.MaxHoursWeek,
		SolverTimeLimitMs:        int(cfg.TimeLimit / time.Millisecond),
		LoadBalanceWeight:        cfg.LoadBalanceWeight,
		GapMinimizeWeight:        cfg.GapMinimizeWeight,
		Strategy:                 models.SolverStrategy(cfg.Strategy),
		MaxIterations:            cfg.MaxIterations,
		Shifts:                   cfg.Shifts,
		AllowDualSpecialization:  cfg.AllowDualSpecialization,
		AllowPartialCommit:       cfg.AllowPartialCommit,
		MinorPenaltyWeight:       cfg.MinorPenaltyWeight,
		MinTeacherLoad:           cfg.MinTeacherLoad,
		NearCeilingRatio:         cfg.NearCeilingRatio,
		LowUtilizationRatio:      cfg.LowUtilizationRatio,
	}.Normalize()
}
