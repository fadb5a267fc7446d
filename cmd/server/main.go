// Package main runs the live audience Q&A server with WebSocket fan-out and
// graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stagetalk/backend/config"
	"github.com/stagetalk/backend/internal/auth"
	"github.com/stagetalk/backend/internal/eventconfig"
	"github.com/stagetalk/backend/internal/middleware"
	"github.com/stagetalk/backend/internal/models"
	"github.com/stagetalk/backend/internal/qna"
	"github.com/stagetalk/backend/internal/questions"
	"github.com/stagetalk/backend/internal/realtime"
	"github.com/stagetalk/backend/internal/timer"
	"github.com/stagetalk/backend/internal/votes"
	"github.com/stagetalk/backend/pkg/database"
	"github.com/stagetalk/backend/pkg/netutil"
	"github.com/stagetalk/backend/pkg/redis"
	"github.com/stagetalk/backend/pkg/response"
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

	// Redis bridges broadcasts across instances; without it the hub stays local.
	var bridge *realtime.RedisPubSub
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		bridge = realtime.NewRedisPubSub(rdb.Client, logger)
	}

	hub := realtime.NewHub(logger, bridgeOrNil(bridge))
	if bridge != nil {
		if err := hub.StartBridge(bridge); err != nil {
			logger.Fatal("redis bridge", zap.Error(err))
		}
		defer hub.StopBridge()
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	moderator, err := auth.NewModerator(cfg.Moderator, jwtService)
	if err != nil {
		logger.Fatal("moderator auth", zap.Error(err))
	}
	authHandler := auth.NewHandler(moderator, logger)

	// Questions
	questionRepo := questions.NewRepository(pool)
	broadcaster := questions.NewBroadcaster(questionRepo, hub, logger)
	questionService := questions.NewService(questionRepo, broadcaster, logger)
	questionHandler := questions.NewHandler(questionService)

	// Votes
	voteRepo := votes.NewRepository(pool)
	voteLedger := votes.NewLedger(voteRepo, broadcaster, logger)

	// Event metadata and speaking timer
	eventStore := eventconfig.NewStore(models.EventConfig{
		Name:     cfg.Event.Name,
		URL:      cfg.Event.URL,
		Datetime: cfg.Event.Datetime,
	})
	speakTimer := timer.New(hub)

	ip := netutil.LocalIP()
	network := qna.NetworkInfo{
		IP:   ip,
		Port: cfg.Server.Port,
		URL:  netutil.JoinURL(ip, cfg.Server.Port),
	}
	eventRouter := qna.NewRouter(
		questionService, voteLedger, broadcaster, eventStore,
		moderator, speakTimer, hub, network, logger,
	)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public snapshot surface
	router.GET("/questions", questionHandler.List)
	router.GET("/questions/approved", questionHandler.ListApproved)

	// Moderator login and protected snapshot surface
	router.POST("/moderator/login", authHandler.Login)
	mod := router.Group("/moderator")
	mod.Use(middleware.JWT(jwtService), middleware.RequireModerator())
	{
		mod.GET("/archived", questionHandler.ListArchived)
		mod.GET("/export", questionHandler.Export)
	}

	// WebSocket channel
	router.GET("/ws", realtime.ServeWs(hub, eventRouter, logger))

	// Display pages
	if cfg.Server.StaticDir != "" {
		router.StaticFile("/", filepath.Join(cfg.Server.StaticDir, "index.html"))
		router.StaticFile("/live", filepath.Join(cfg.Server.StaticDir, "live.html"))
		router.StaticFile("/moderator", filepath.Join(cfg.Server.StaticDir, "moderator.html"))
		router.StaticFile("/presenter", filepath.Join(cfg.Server.StaticDir, "presenter.html"))
		router.Static("/public", cfg.Server.StaticDir)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("port", cfg.Server.Port),
			zap.String("join_url", network.URL),
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

// bridgeOrNil avoids storing a typed nil in the hub's interface field.
func bridgeOrNil(b *realtime.RedisPubSub) realtime.BridgePublisher {
	if b == nil {
		return nil
	}
	return b
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
