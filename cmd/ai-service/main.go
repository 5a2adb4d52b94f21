package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/itzzomkar/NavYatra/internal/api"
	"github.com/itzzomkar/NavYatra/internal/config"
	"github.com/itzzomkar/NavYatra/internal/service"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to JSON config file (defaults apply when empty)")
		port       = flag.String("port", "", "Override the API port")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Configuration loading failed: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Logger setup failed: %v", err)
	}
	defer logger.Sync()

	svc, err := service.New(cfg, logger)
	if err != nil {
		logger.Fatal("service assembly failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	server := api.NewServer(api.Deps{
		Repo:      svc.Repo,
		Reader:    svc.Store,
		Assessor:  svc.Assessor,
		Engine:    svc.Engine,
		Scheduler: svc.Scheduler,
		Optimizer: svc.Optimizer,
		Metrics:   svc.Metrics,
		Logger:    logger.Named("api"),
	}, cfg.Server.Port, cfg.Server.AllowOrigins)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("API listening", zap.String("port", cfg.Server.Port))
		serverErr <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Error("API server stopped", zap.Error(err))
	case sig := <-sigChan:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	cancel()
	if err := svc.Wait(); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
	logger.Info("service stopped")
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
