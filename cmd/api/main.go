// Package main contains the entrypoint for the community web API.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/virevo/virevo/internal/api"
	"github.com/virevo/virevo/internal/auth"
	"github.com/virevo/virevo/internal/cache"
	"github.com/virevo/virevo/internal/config"
	"github.com/virevo/virevo/internal/logger"
	"github.com/virevo/virevo/internal/mailer"
	"github.com/virevo/virevo/internal/metrics"
	"github.com/virevo/virevo/internal/mongodb"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}
	if err := cfg.ValidateAPI(); err != nil {
		slog.Error("Invalid API configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	gin.SetMode(gin.ReleaseMode)

	m := metrics.Registry(cfg.Metrics.Namespace)

	mongo, err := mongodb.Connect(ctx, cfg.Mongo, log)
	if err != nil {
		log.Error("Failed to connect to MongoDB", "error", err)
		return 1
	}
	defer func() {
		if err := mongo.Close(context.Background()); err != nil {
			log.Error("Error closing MongoDB", "error", err)
		}
	}()
	if err := mongo.EnsureIndexes(ctx); err != nil {
		log.Error("Failed to ensure MongoDB indexes", "error", err)
		return 1
	}

	rdb := cache.New(cfg.Redis, log)
	defer func() { _ = rdb.Close() }()

	mail, err := mailer.New(cfg.SMTP, cfg.Auth.OTPTTL, log)
	if err != nil {
		log.Error("Failed to create mailer", "error", err)
		return 1
	}

	router := api.NewRouter(api.Deps{
		Logger:   log,
		Config:   cfg,
		Accounts: mongo.Accounts(),
		Chats:    mongo.Chats(),
		OTP:      cache.NewOTPStore(rdb, cfg.Auth.OTPTTL),
		Refresh:  cache.NewRefreshStore(rdb, cfg.Auth.RefreshTTL),
		Mailer:   mail,
		Tokens:   auth.NewTokens(cfg.Auth),
		Metrics:  m,
	})
	server := api.NewServer(cfg.API.Addr, router, log)

	g, gCtx := errgroup.WithContext(ctx)
	// Redis is not required to start serving; OTP and refresh calls fail until it answers.
	g.Go(func() error {
		if err := rdb.WaitReady(gCtx, cfg.Redis.RetryInterval); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return server.Run(gCtx, cfg.HTTP.ShutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("API stopped due to error", "error", err)
		return 1
	}
	log.Info("API stopped gracefully.")
	return 0
}
