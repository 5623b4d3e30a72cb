// Package main runs the room-booking HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/prospero-bookings/backend/config"
	"github.com/prospero-bookings/backend/internal/bookings"
	"github.com/prospero-bookings/backend/internal/emaillogs"
	"github.com/prospero-bookings/backend/internal/middleware"
	"github.com/prospero-bookings/backend/internal/notification"
	"github.com/prospero-bookings/backend/pkg/database"
	"github.com/prospero-bookings/backend/pkg/queue"
	"github.com/prospero-bookings/backend/pkg/redis"
	"github.com/prospero-bookings/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	logRepo := emaillogs.NewRepository(pool)
	mailer := notification.NewMailer(cfg.Mailgun.Domain, cfg.Mailgun.APIKey, cfg.Mailgun.FromName, logger)

	var dispatcher bookings.Dispatcher
	if cfg.Notify.Mode == notification.ModeQueue {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		dispatcher = notification.NewQueueDispatcher(queue.NewQueue(rdb, logger), logRepo, logger)
	} else {
		dispatcher = notification.NewNotifier(mailer, logRepo, logger)
	}

	bookingRepo := bookings.NewRepository(pool)
	bookingSvc := bookings.NewService(bookingRepo, dispatcher, logger)
	bookingHandler := bookings.NewHandler(bookingSvc, logger)
	emailLogHandler := emaillogs.NewHandler(logRepo)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, "Server OK", gin.H{"status": "ok"}) })
	bookingHandler.RegisterRoutes(router)
	emailLogHandler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("port", cfg.Server.Port),
			zap.String("notify_mode", cfg.Notify.Mode),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
