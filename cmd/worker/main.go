// Package main runs the background email worker (queue dispatch mode).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/prospero-bookings/backend/config"
	"github.com/prospero-bookings/backend/internal/emaillogs"
	"github.com/prospero-bookings/backend/internal/notification"
	"github.com/prospero-bookings/backend/internal/worker"
	"github.com/prospero-bookings/backend/pkg/database"
	"github.com/prospero-bookings/backend/pkg/queue"
	"github.com/prospero-bookings/backend/pkg/redis"
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

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	logRepo := emaillogs.NewRepository(pool)
	mailer := notification.NewMailer(cfg.Mailgun.Domain, cfg.Mailgun.APIKey, cfg.Mailgun.FromName, logger)
	jobQueue := queue.NewQueue(rdb, logger)
	processor := worker.NewEmailProcessor(mailer, logRepo, jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("email worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
