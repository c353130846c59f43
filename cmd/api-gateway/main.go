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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/punch-attendance/api/swagger"
	"github.com/noah-isme/punch-attendance/internal/handler"
	internalmiddleware "github.com/noah-isme/punch-attendance/internal/middleware"
	"github.com/noah-isme/punch-attendance/internal/repository"
	"github.com/noah-isme/punch-attendance/internal/service"
	"github.com/noah-isme/punch-attendance/pkg/cache"
	"github.com/noah-isme/punch-attendance/pkg/config"
	"github.com/noah-isme/punch-attendance/pkg/jobs"
	"github.com/noah-isme/punch-attendance/pkg/logger"
	"github.com/noah-isme/punch-attendance/pkg/mailer"
	corsmiddleware "github.com/noah-isme/punch-attendance/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/punch-attendance/pkg/middleware/requestid"
	"github.com/noah-isme/punch-attendance/pkg/storage"
)

// @title Punch Attendance API
// @version 1.0.0
// @description Turns raw time-clock punch exports into per-person daily attendance summaries.
// @BasePath /
// @schemes http

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()
	validate := validator.New()
	service.RegisterValidators(validate)

	checks := map[string]handler.ReadinessCheck{}
	var jobStore repository.ReportJobStore = repository.NewMemoryReportJobRepository()
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		cacheRepo := repository.NewCacheRepository(client, logr)
		defer cacheRepo.Close() //nolint:errcheck
		jobStore = repository.NewRedisReportJobRepository(cacheRepo, 2*cfg.Reports.SignedURLTTL, logr)
		checks["redis"] = cacheRepo.Ping
	}

	attendanceSvc := service.NewAttendanceService(cfg.Attendance.Location(), validate, metricsSvc, logr)

	routes := handler.Routes{
		APIPrefix:  cfg.APIPrefix,
		Metrics:    handler.NewMetricsHandler(metricsSvc, checks),
		Attendance: handler.NewAttendanceHandler(attendanceSvc, cfg.Attendance.MaxUploadBytes),
	}

	var queue *jobs.Queue
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare report storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exporter := service.NewExportService(store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr)
		mail := mailer.New(cfg.SMTP, logr)
		worker := service.NewReportWorker(jobStore, attendanceSvc, exporter, mail, metricsSvc, logr)

		var reportSvc *service.ReportService
		queue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			RetryDelay: 2 * time.Second,
			Logger:     logr,
			OnDiscard: func(ctx context.Context, job jobs.Job, err error) {
				reportSvc.HandleDiscarded(ctx, job, err)
			},
		})
		reportSvc = service.NewReportService(jobStore, attendanceSvc, queue, exporter, validate, metricsSvc, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
		})

		queue.Start(ctx)
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)

		routes.Reports = handler.NewReportHandler(reportSvc, cfg.Attendance.MaxUploadBytes)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	routes.Register(r)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if queue != nil {
		queue.Stop()
	}
}
