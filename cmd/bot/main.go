// ====================================
// File: cmd/bot/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/dlmm-bot/internal/bot"
	"github.com/rovshanmuradov/dlmm-bot/internal/config"
	"github.com/rovshanmuradov/dlmm-bot/internal/utils/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Development = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	runner := bot.NewRunner(cfg, log)
	if _, err := runner.Run(context.Background()); err != nil {
		log.Error("💥 Bot stopped with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}
