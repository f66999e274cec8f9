package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gazify-app/service-membership/internal/application"
	"github.com/gazify-app/service-membership/internal/config"
	"github.com/gazify-app/service-membership/internal/handler"
	"github.com/gazify-app/service-membership/internal/notify"
	"github.com/gazify-app/service-membership/internal/platform/auth"
	"github.com/gazify-app/service-membership/internal/platform/database"
	"github.com/gazify-app/service-membership/internal/platform/kafka"
	"github.com/gazify-app/service-membership/internal/platform/logger"
	"github.com/gazify-app/service-membership/internal/platform/middleware"
	"github.com/gazify-app/service-membership/internal/repository"
	"github.com/gazify-app/service-membership/internal/scheduler"
	"github.com/gazify-app/service-membership/internal/token"
)

const serviceName = "service-membership"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting service-membership",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.SubscriberModel{},
			&repository.SubscriptionModel{},
			&repository.ReadingModel{},
		); err != nil {
			zapLogger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		zapLogger.Info("database migration completed (dev auto-migrate)")
	}

	// Initialize the identifier tokenizer; the key and purpose are fixed for
	// the process lifetime.
	protector, err := token.New(cfg.TokenConfig.Secret, cfg.TokenConfig.Purpose)
	if err != nil {
		zapLogger.Fatal("failed to initialize identifier tokenizer", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, 15*time.Minute)

	// Initialize Kafka producer and notification dispatcher
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, zapLogger)
	defer kafkaProducer.Close()
	dispatcher := notify.NewKafkaDispatcher(kafkaProducer, serviceName, zapLogger)

	// Initialize Redis for the expiration scan guard
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisConfig.Addr,
		Password: cfg.RedisConfig.Password,
	})
	defer redisClient.Close()
	guard := notify.NewScanGuard(redisClient)

	// Initialize repositories and services
	subscriberRepo := repository.NewGormSubscriberRepository(db)
	readingRepo := repository.NewGormReadingRepository(db)

	subscriberService := application.NewSubscriberService(subscriberRepo, protector, dispatcher, time.Now, zapLogger)
	readingService := application.NewReadingService(readingRepo, time.Now, zapLogger)

	// Initialize the expiration notifier and its daily schedule
	notifier := notify.NewExpirationNotifier(subscriberRepo, dispatcher, guard, cfg.ScanConfig.LeadDays, zapLogger)
	daily := scheduler.NewDaily(cfg.ScanConfig.Hour, cfg.ScanConfig.Minute, func(ctx context.Context, today time.Time) {
		if _, err := notifier.Scan(ctx, today); err != nil {
			zapLogger.Error("expiration scan failed", zap.Error(err))
		}
	}, zapLogger)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	go daily.Run(workerCtx)

	// Start the notification delivery worker
	mailer := notify.NewLogMailer(zapLogger)
	worker := notify.NewWorker(
		cfg.KafkaConfig.Brokers,
		cfg.KafkaConfig.GroupPrefix+serviceName,
		mailer,
		zapLogger,
	)
	defer worker.Close()

	go func() {
		zapLogger.Info("starting notification worker")
		if err := worker.Start(workerCtx); err != nil {
			if workerCtx.Err() == nil {
				zapLogger.Error("notification worker failed", zap.Error(err))
			}
		}
	}()

	// Initialize HTTP handlers
	subscriberHandler := handler.NewSubscriberHandler(subscriberService)
	sensorHandler := handler.NewSensorHandler(readingService)
	adminHandler := handler.NewAdminHandler(subscriberService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.LoggerMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := handler.NewHealthHandler(db, serviceName)
	healthHandler.RegisterRoutes(router)

	// Register API routes
	apiV1 := router.Group("/api/v1")
	subscriberHandler.RegisterRoutes(apiV1, jwtManager)
	sensorHandler.RegisterRoutes(apiV1)
	adminHandler.RegisterRoutes(apiV1, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down service-membership...")

	// Stop the scheduler and worker
	workerCancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("service-membership stopped")
}
