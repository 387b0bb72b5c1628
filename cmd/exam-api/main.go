package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/schoolsuite/exam-engine-api/api/swagger"
	"github.com/schoolsuite/exam-engine-api/internal/handler"
	"github.com/schoolsuite/exam-engine-api/internal/middleware"
	"github.com/schoolsuite/exam-engine-api/internal/repository"
	"github.com/schoolsuite/exam-engine-api/internal/service"
	"github.com/schoolsuite/exam-engine-api/pkg/cache"
	"github.com/schoolsuite/exam-engine-api/pkg/config"
	"github.com/schoolsuite/exam-engine-api/pkg/database"
	"github.com/schoolsuite/exam-engine-api/pkg/jobs"
	"github.com/schoolsuite/exam-engine-api/pkg/lock"
	"github.com/schoolsuite/exam-engine-api/pkg/logger"
	corsmiddleware "github.com/schoolsuite/exam-engine-api/pkg/middleware/cors"
	reqidmiddleware "github.com/schoolsuite/exam-engine-api/pkg/middleware/requestid"
)

// @title Exam Engine API
// @version 1.0.0
// @description Multi-tenant exam lifecycle and scheduling engine
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()
	metrics := service.NewMetricsService()
	locker := lock.NewLocker(redisClient, cfg.Datesheets.LockTTL)

	examRepo := repository.NewExamRepository(db)
	paperRepo := repository.NewExamPaperRepository(db)
	markRepo := repository.NewExamMarkRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	datesheetRepo := repository.NewDatesheetRepository(db)
	resultRepo := repository.NewExamResultRepository(db)
	gradingRepo := repository.NewGradingRuleRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	resultCache := repository.NewResultCacheRepository(redisClient)

	notifications := service.NewNotificationService(notificationRepo, redisClient, jobs.QueueConfig{
		Workers:    cfg.Notifications.WorkerConcurrency,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
	}, metrics, logr)
	notifications.Start(ctx)
	defer notifications.Stop()
	if requeued, err := notifications.RequeuePending(ctx, 500); err != nil {
		logr.Sugar().Warnw("failed to requeue pending notifications", "error", err)
	} else if requeued > 0 {
		logr.Sugar().Infow("requeued pending notifications", "count", requeued)
	}

	examSvc := service.NewExamService(examRepo, validate, logr)
	paperSvc := service.NewPaperService(paperRepo, validate, metrics, logr)
	markSvc := service.NewMarkService(markRepo, rosterRepo, paperRepo, validate, metrics, logr)
	gradingSvc := service.NewGradingService(gradingRepo, validate, logr)
	datesheetSvc := service.NewDatesheetService(datesheetRepo, service.NewConflictDetector(), locker, validate, metrics, logr)
	resultSvc := service.NewResultService(resultRepo, markRepo, paperRepo, gradingSvc, resultCache, cfg.Results.CacheTTL, metrics, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metrics.Handler())
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, cfg.JWT.Secret, handler.Handlers{
		Exams:      handler.NewExamHandler(examSvc),
		Papers:     handler.NewPaperHandler(paperSvc, notifications),
		Marks:      handler.NewMarkHandler(markSvc, notifications),
		Datesheets: handler.NewDatesheetHandler(datesheetSvc),
		Grading:    handler.NewGradingHandler(gradingSvc),
		Results:    handler.NewResultHandler(resultSvc, notifications),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
