package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"medi-plus/internal/config"
	"medi-plus/internal/knowledge"
	"medi-plus/internal/logging"
	"medi-plus/internal/mcpserver"
	"medi-plus/internal/storage"
)

var version = "dev"

func main() {
	envErr := godotenv.Load(".env")

	cfg := config.New()
	// stdout carries the MCP protocol; the logger writes to stderr.
	log := logging.Must(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()
	if envErr != nil {
		log.Debug(".env file not found", zap.Error(envErr))
	}

	style, err := knowledge.ParseStyle(cfg.ChatStyle)
	if err != nil {
		log.Fatal("bad chat style", zap.Error(err))
	}
	engine, err := knowledge.NewEngine(style, cfg.RulesFile)
	if err != nil {
		log.Fatal("failed to build rule engine", zap.Error(err))
	}

	sinks, err := storage.Open(storage.Paths{EventLog: cfg.EventLogPath, EventDB: cfg.EventDBPath})
	if err != nil {
		log.Fatal("failed to open event log", zap.Error(err))
	}
	defer sinks.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := mcpserver.New(engine, sinks.Recorder, log)
	if err := srv.Run(ctx, version); err != nil && ctx.Err() == nil {
		log.Fatal("mcp server failed", zap.Error(err))
	}
}
