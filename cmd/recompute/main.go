package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"bizit/database"
	"bizit/internal/bootstrap"
	"bizit/internal/config"
	sharedinfra "bizit/internal/shared/infrastructure"
)

func main() {
	configPath := flag.String("config", "config.toml", "chemin du fichier de configuration")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal("❌ Erreur configuration:", err)
	}
	logger, err := sharedinfra.NewLogger(cfg.Server.DevMode)
	if err != nil {
		log.Fatal("❌ Erreur logger:", err)
	}
	defer logger.Sync()

	if err := database.Init(cfg.Database.Driver, cfg.Database.DSN); err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}
	defer database.Close()

	container := bootstrap.Build(cfg, database.DB, logger, bootstrap.Overrides{})
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := bootstrap.RecomputeAll(ctx, container, cfg.Analysis.Workers, logger)
	if err != nil {
		logger.Error("recompute aborted", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("recompute finished",
		zap.Int("merchants", report.Total),
		zap.Int("computed", report.Computed),
		zap.Int("pending", report.Pending),
		zap.Int("failed", report.Failed))
}
