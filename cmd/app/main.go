package main

import (
	"flag"
	"log"
	"os"

	"QuantLab/internal/di"
	"QuantLab/pkg/config"
	"QuantLab/pkg/logger"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	l, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}

	// Wire DI: Initialize all dependencies
	app, cleanup, err := di.InitializeApp(cfg, l)
	if err != nil {
		l.Error("app initialization failed", logger.Error(err))
		os.Exit(1)
	}
	defer cleanup()

	l.Info("config loaded",
		logger.String("cache", cfg.Cache.Type),
		logger.Float("risk_free_fallback", cfg.Analysis.RiskFreeRate),
		logger.Bool("forecaster", cfg.Forecast.URL != ""))

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		l.Error("app error", logger.Error(err))
		cleanup()
		os.Exit(1)
	}
}
