// Package main runs the background job worker (transactional email, CRM
// sync and the notification sweeper).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/club-pata-amiga/backend/config"
	"github.com/club-pata-amiga/backend/internal/crm"
	"github.com/club-pata-amiga/backend/internal/emaillogs"
	"github.com/club-pata-amiga/backend/internal/notifications"
	"github.com/club-pata-amiga/backend/internal/worker"
	"github.com/club-pata-amiga/backend/pkg/database"
	"github.com/club-pata-amiga/backend/pkg/mailer"
	"github.com/club-pata-amiga/backend/pkg/queue"
	"github.com/club-pata-amiga/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	mail := mailer.New(mailer.Config{
		APIURL:      cfg.Email.APIURL,
		APIKey:      cfg.Email.APIKey,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
	}, logger)
	crmClient := crm.NewClient(crm.Config{
		WebhookURL: cfg.CRM.WebhookURL,
		APIKey:     cfg.CRM.APIKey,
	}, logger)

	emailLogRepo := emaillogs.NewRepository(pool)
	notifRepo := notifications.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewProcessor(mail, crmClient, emailLogRepo, jobQueue, logger)
	sweeper := worker.NewSweeper(notifRepo, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	go sweeper.Run(workerCtx)
	logger.Info("worker started")

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
