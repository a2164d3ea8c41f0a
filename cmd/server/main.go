package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"acadef/backend/config"
	"acadef/backend/internal/api/handler"
	"acadef/backend/internal/api/router"
	"acadef/backend/internal/metrics"
	"acadef/backend/internal/notify"
	"acadef/backend/internal/repository"
	"acadef/backend/internal/service"
	"acadef/backend/pkg/database"
	"acadef/backend/pkg/jwt"
	applogger "acadef/backend/pkg/logger"
	"acadef/backend/pkg/mailer"
	"acadef/backend/pkg/pdf"
	"acadef/backend/pkg/provisioning"
	"acadef/backend/pkg/redis"
	"acadef/backend/pkg/storage"
)

func main() {
	// 1. configuration
	cfg, err := config.Load(os.Getenv("ACADEF_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("legacy_register", cfg.Feature.LegacyRegisterEnabled),
	)

	// 3. database + migrations
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get sql.DB failed", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	// 4. redis is optional: without it tokens cannot be revoked and nothing is rate limited
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, token blacklist and rate limiting disabled", zap.Error(err))
		rdb = nil
	}
	var blacklist service.TokenBlacklist
	if rdb != nil {
		blacklist = rdb
	}

	// 5. storage, documents, mail, remote systems
	store, err := storage.NewResolver(&cfg.Storage)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	notifier := notify.NewMailNotifier(mailer.New(&cfg.Mail, logger), logger, m)
	provisioners := provisioning.NewProvisioners(&cfg.Integration)
	for _, p := range provisioners {
		logger.Info("account provisioning enabled", zap.String("system", p.Name()))
	}

	// 6. repository -> service -> handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, blacklist, store, pdf.NewRenderer(), notifier, provisioners, m, logger)
	h := handler.NewHandler(cfg, svc)

	// 7. routes
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.Setup(cfg, h, router.Deps{
		JWT:      jwtMgr,
		Redis:    rdb,
		DB:       db,
		Registry: registry,
		Metrics:  m,
		Logger:   logger,
	})

	// 8. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("close database failed", zap.Error(err))
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("server stopped")
}
