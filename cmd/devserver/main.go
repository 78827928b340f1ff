package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/config"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/devstore"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/logging"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/api"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/api/middleware"
)

func main() {
	configPath := flag.String("config", os.Getenv("BACKOFFICE_CONFIG"), "Path to the YAML config file")
	addr := flag.String("addr", "", "Listen address (overrides server.addr)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		logrus.Fatalf("Failed to configure logging: %v", err)
	}

	if os.Getenv("ENV") != "production" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Infof("Starting backoffice development API v%s", api.Version)

	store := devstore.New()
	if cfg.Server.Seed {
		if err := store.Seed(context.Background(), cfg.Server.AdminUser, cfg.Server.AdminPassword); err != nil {
			logger.Fatalf("Failed to seed store: %v", err)
		}
		logger.WithField("user", cfg.Server.AdminUser).Info("Seeded development data")
	}

	server := api.NewServer(store, api.Config{
		JWT:       middleware.NewJWTConfig(cfg.Server.JWTSecret, cfg.Server.AccessTTL, cfg.Server.RefreshTTL),
		RateLimit: cfg.Server.RateLimit,
		Burst:     cfg.Server.Burst,
		Logger:    logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe(cfg.Server.Addr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-errCh:
		if err != nil {
			logger.Fatalf("Server failed: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}

	logger.Info("Development API stopped")
}
