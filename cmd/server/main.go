// Package main runs the Club Pata Amiga membership API with WebSocket
// notification push and graceful shutdown.
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

	"github.com/club-pata-amiga/backend/config"
	"github.com/club-pata-amiga/backend/internal/admin"
	"github.com/club-pata-amiga/backend/internal/ambassadors"
	"github.com/club-pata-amiga/backend/internal/appeals"
	"github.com/club-pata-amiga/backend/internal/auth"
	"github.com/club-pata-amiga/backend/internal/chatbot"
	"github.com/club-pata-amiga/backend/internal/emaillogs"
	"github.com/club-pata-amiga/backend/internal/middleware"
	"github.com/club-pata-amiga/backend/internal/notifications"
	"github.com/club-pata-amiga/backend/internal/pets"
	"github.com/club-pata-amiga/backend/internal/realtime"
	"github.com/club-pata-amiga/backend/internal/referrals"
	"github.com/club-pata-amiga/backend/pkg/database"
	"github.com/club-pata-amiga/backend/pkg/queue"
	"github.com/club-pata-amiga/backend/pkg/redis"
	"github.com/club-pata-amiga/backend/pkg/response"
	"github.com/club-pata-amiga/backend/pkg/storage"
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

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			DocumentsBucket:      cfg.AWS.DocumentsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, jobQueue, logger)

	// Pets and the appeal workflow
	petRepo := pets.NewRepository(pool)
	notifRepo := notifications.NewRepository(pool)
	notifier := notifications.NewNotifier(notifRepo, authRepo, jobQueue, hub, logger)
	appealsSvc := appeals.NewService(petRepo, notifier)
	appealsHandler := appeals.NewHandler(appealsSvc, petRepo.OwnerOf, logger)
	petHandler := pets.NewHandler(petRepo, appealsSvc, s3Client, authRepo, logger)

	// Notifications
	notifHandler := notifications.NewHandler(notifRepo, logger)

	// Ambassador program and referral ledger
	ambRepo := ambassadors.NewRepository(pool)
	ambHandler := ambassadors.NewHandler(ambRepo, notifier, cfg.Referral.DefaultCommissionPercentage, logger)
	refSvc := referrals.NewService(ambRepo, notifier)
	refHandler := referrals.NewHandler(refSvc, logger)

	// Chatbot session tokens
	chatbotRepo := chatbot.NewRepository(pool)
	chatbotHandler := chatbot.NewHandler(chatbotRepo, authRepo, time.Duration(cfg.Chatbot.SessionTTLHours)*time.Hour, logger)

	// Back office
	emailLogsRepo := emaillogs.NewRepository(pool)
	emailLogsHandler := emaillogs.NewHandler(emailLogsRepo)
	adminHandler := admin.NewHandler(pool, authRepo, petRepo, logger)

	jwtValidate := func(token string) (userID, role string, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", "", err
		}
		return claims.UserID.String(), claims.Role, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public
	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/session-token", chatbotHandler.CreateSessionToken)
		authGroup.GET("/session-token/:token/validate", chatbotHandler.ValidateSessionToken)
	}
	// Referral signups are reported by the public signup flow before the
	// referred member has credentials.
	router.POST("/api/referrals", refHandler.Create)

	// Member routes (JWT required)
	user := router.Group("/api/user")
	user.Use(middleware.JWT(jwtService))
	{
		user.GET("/me", petHandler.Profile)
		user.POST("/pets", petHandler.Create)
		user.GET("/pets", petHandler.List)
		user.PATCH("/pets/:petID", petHandler.Update)
		user.POST("/pets/:petID/documents/upload-url", petHandler.GenerateUploadURL)
		user.GET("/pets/:petID/documents", petHandler.ListDocuments)
		user.POST("/appeal", appealsHandler.Submit)
		user.GET("/notifications", notifHandler.List)
		user.GET("/notifications/unread-count", notifHandler.UnreadCount)
		user.PATCH("/notifications/:id/read", notifHandler.MarkRead)
		user.POST("/notifications/read-all", notifHandler.MarkAllRead)
	}

	// Ambassador program (JWT required)
	amb := router.Group("/api/ambassadors")
	amb.Use(middleware.JWT(jwtService))
	{
		amb.POST("", ambHandler.Apply)
		amb.GET("/me", ambHandler.Me)
		amb.POST("/:id/payouts", ambHandler.RequestPayout)
	}

	// Admin back office
	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.JWT(jwtService), middleware.RequireRole("admin"))
	{
		adminGroup.GET("/members", adminHandler.ListMembers)
		adminGroup.GET("/members/:id", adminHandler.GetMember)
		adminGroup.POST("/members/:id/pets/:petID/status", appealsHandler.AdminSetStatus)
		adminGroup.GET("/members/:id/pets/:petID/documents", petHandler.ListDocuments)
		adminGroup.GET("/pets", adminHandler.ListPets)
		adminGroup.GET("/ambassadors", ambHandler.AdminList)
		adminGroup.PATCH("/ambassadors/:id/status", ambHandler.AdminSetStatus)
		adminGroup.GET("/payouts", ambHandler.AdminListPayouts)
		adminGroup.PATCH("/payouts/:id", ambHandler.AdminResolvePayout)
		adminGroup.GET("/email-logs", emailLogsHandler.List)
		adminGroup.GET("/stats", adminHandler.Stats)
	}
	// Ledger corrections come from payment reconciliation tooling.
	router.PATCH("/api/referrals/:id", middleware.JWT(jwtService), middleware.RequireRole("admin"), refHandler.Update)

	// WebSocket (token in query; browsers cannot set headers on the handshake)
	router.GET("/api/user/notifications/ws", realtime.ServeWs(hub, logger, jwtValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
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
