package main

import (
	"context"
	"errors"
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
	"go.uber.org/zap"

	_ "github.com/campusgo/tutorias-api/api/swagger"
	"github.com/campusgo/tutorias-api/internal/handler"
	"github.com/campusgo/tutorias-api/internal/middleware"
	"github.com/campusgo/tutorias-api/internal/models"
	"github.com/campusgo/tutorias-api/internal/repository"
	"github.com/campusgo/tutorias-api/internal/service"
	"github.com/campusgo/tutorias-api/pkg/cache"
	"github.com/campusgo/tutorias-api/pkg/config"
	"github.com/campusgo/tutorias-api/pkg/database"
	"github.com/campusgo/tutorias-api/pkg/export"
	"github.com/campusgo/tutorias-api/pkg/jobs"
	"github.com/campusgo/tutorias-api/pkg/logger"
	"github.com/campusgo/tutorias-api/pkg/mailer"
	corsmiddleware "github.com/campusgo/tutorias-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusgo/tutorias-api/pkg/middleware/requestid"
)

// @title Tutorias API
// @version 1.0.0
// @description Backend for academic tutoring: appointments, group sessions, enrollments and reports
// @BasePath /api
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, report caching disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	tutorRepo := repository.NewTutorRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// A nil client turns every cache path into a no-op.
	cacheClient := redisClient
	if !cfg.Reports.CacheEnabled {
		cacheClient = nil
	}
	cacheRepo := repository.NewCacheRepository(cacheClient, logr)

	authSvc := service.NewAuthService(userRepo, studentRepo, tutorRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})

	var notifier *service.NotificationService
	if cfg.Notifications.Enabled {
		smtp, err := mailer.NewSMTP(cfg.SMTP)
		if err != nil {
			logr.Warn("smtp unavailable, notifications disabled", zap.Error(err))
		} else {
			notifier = service.NewNotificationService(smtp, jobs.QueueConfig{
				Workers:    cfg.Notifications.Workers,
				MaxRetries: cfg.Notifications.MaxRetries,
				RetryDelay: cfg.Notifications.RetryDelay,
				Logger:     logr,
			}, logr)
		}
	}

	appointmentSvc := service.NewAppointmentService(appointmentRepo, tutorRepo, studentRepo, userRepo, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, tutorRepo, cacheRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, sessionRepo, studentRepo, tutorRepo, notifier, cacheRepo, validate, logr)
	reportSvc := service.NewReportService(reportRepo, studentRepo, tutorRepo, cacheRepo, cfg.Reports.CacheTTL, logr)
	exportSvc := service.NewExportService(reportSvc, export.NewCSVExporter(), export.NewPDFExporter(), logr)
	metricsSvc := service.NewMetricsService()

	queueCtx, queueCancel := context.WithCancel(context.Background())
	defer queueCancel()
	if notifier != nil {
		notifier.Start(queueCtx)
		defer notifier.Stop()
	}

	authHandler := handler.NewAuthHandler(authSvc)
	appointmentHandler := handler.NewAppointmentHandler(appointmentSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	reportHandler := handler.NewReportHandler(reportSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db, redisClient)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/profile", middleware.JWT(authSvc), authHandler.Profile)
		auth.PUT("/profile", middleware.JWT(authSvc), authHandler.UpdateProfile)
	}

	protected := api.Group("", middleware.JWT(authSvc))
	{
		citas := protected.Group("/citas")
		{
			citas.GET("", appointmentHandler.ListUpcoming)
			citas.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleStudent), appointmentHandler.Create)
			citas.PUT("/:id/confirmar", appointmentHandler.Confirm)
			citas.PUT("/:id/cancelar", appointmentHandler.Cancel)
		}

		tutorias := protected.Group("/tutorias")
		{
			tutorias.GET("", sessionHandler.List)
			tutorias.GET("/:id", sessionHandler.Get)
			tutorias.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleTutor), sessionHandler.Create)
			tutorias.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleTutor), sessionHandler.Update)
			tutorias.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleTutor), sessionHandler.Delete)
			tutorias.GET("/:id/inscripciones", middleware.RequireRoles(models.RoleAdmin, models.RoleTutor), enrollmentHandler.ListBySession)
		}

		inscripciones := protected.Group("/inscripciones")
		{
			inscripciones.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleStudent), enrollmentHandler.Create)
			inscripciones.GET("/mias", middleware.RequireRoles(models.RoleStudent), enrollmentHandler.ListMine)
			inscripciones.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleStudent), enrollmentHandler.Delete)
			inscripciones.PUT("/:id/asistencia", middleware.RequireRoles(models.RoleAdmin, models.RoleTutor), enrollmentHandler.Attendance)
			inscripciones.PUT("/:id/calificar", middleware.RequireRoles(models.RoleStudent), enrollmentHandler.Rate)
		}

		reportes := protected.Group("/reportes")
		{
			reportes.GET("/estudiante/:id", reportHandler.Student)
			reportes.GET("/tutor/:id", reportHandler.Tutor)
			reportes.GET("/semanal", middleware.RequireRoles(models.RoleAdmin), reportHandler.Weekly)
			reportes.GET("/exportar/:tipo", reportHandler.Export)
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
}
