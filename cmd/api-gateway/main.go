package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/medlink-api/api/swagger"
	"github.com/noah-isme/medlink-api/internal/handler"
	"github.com/noah-isme/medlink-api/internal/middleware"
	"github.com/noah-isme/medlink-api/internal/models"
	"github.com/noah-isme/medlink-api/internal/repository"
	"github.com/noah-isme/medlink-api/internal/service"
	"github.com/noah-isme/medlink-api/pkg/cache"
	"github.com/noah-isme/medlink-api/pkg/config"
	"github.com/noah-isme/medlink-api/pkg/database"
	"github.com/noah-isme/medlink-api/pkg/export"
	"github.com/noah-isme/medlink-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/medlink-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/medlink-api/pkg/middleware/requestid"
)

// @title Medlink API
// @version 1.0.0
// @description Patient/doctor marketplace with availability-driven booking
// @BasePath /v1
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

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Booking.AvailabilityCacheTTL, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	doctorSvc := service.NewDoctorService(doctorRepo, cacheSvc, cfg.Directory.SearchCacheTTL, cfg.Booking.AvailabilityCacheTTL, validate, logr)
	slotSvc := service.NewSlotService(doctorRepo, appointmentRepo, cacheSvc, metricsSvc, service.SlotServiceConfig{
		SlotMinutes:          cfg.Booking.SlotMinutes,
		ExpansionTTL:         cfg.Booking.ExpansionTTL,
		AvailabilityCacheTTL: cfg.Booking.AvailabilityCacheTTL,
	}, logr)
	bookingSvc := service.NewBookingService(doctorRepo, appointmentRepo, patientRepo, slotSvc, metricsSvc, validate, logr)
	patientSvc := service.NewPatientService(patientRepo, validate, logr)
	exportSvc := service.NewExportService(appointmentRepo, export.NewCSVExporter(), export.NewPDFExporter(), service.ExportConfig{
		Enabled: cfg.Exports.Enabled,
		MaxRows: cfg.Exports.MaxRows,
	}, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	doctorHandler := handler.NewDoctorHandler(doctorSvc, bookingSvc, exportSvc)
	slotHandler := handler.NewSlotHandler(slotSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	patientHandler := handler.NewPatientHandler(patientSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

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
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group(cfg.APIPrefix)

	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	doctor := v1.Group("/doctor")
	{
		doctor.GET("/list", doctorHandler.List)
		doctor.GET("/profile", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleDoctor), doctorHandler.Profile)
		doctor.PUT("/profile", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleDoctor), doctorHandler.UpsertProfile)
		doctor.GET("/availability", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleDoctor), doctorHandler.Availability)
		doctor.PUT("/availability", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleDoctor), doctorHandler.UpdateAvailability)
		doctor.GET("/appointments", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleDoctor), doctorHandler.Appointments)
		doctor.GET("/appointments/export", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleDoctor), doctorHandler.ExportAppointments)
		doctor.PUT("/appointments/:id/status", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleDoctor), doctorHandler.UpdateAppointmentStatus)
		doctor.GET("/dashboard", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleDoctor), doctorHandler.Dashboard)
		doctor.GET("/:id", doctorHandler.Get)
		doctor.GET("/:id/slots", slotHandler.DaySlots)
	}

	appointments := v1.Group("/appointments", middleware.JWT(authSvc), middleware.RequireRoles(models.RolePatient))
	{
		appointments.POST("", bookingHandler.Book)
		appointments.GET("", bookingHandler.List)
		appointments.DELETE("/:id", bookingHandler.Cancel)
	}

	patient := v1.Group("/patient", middleware.JWT(authSvc), middleware.RequireRoles(models.RolePatient))
	{
		patient.GET("/profile", patientHandler.Profile)
		patient.PUT("/profile", patientHandler.UpsertProfile)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
