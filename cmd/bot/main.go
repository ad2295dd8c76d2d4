package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"medi-plus/internal/auth"
	"medi-plus/internal/config"
	"medi-plus/internal/knowledge"
	"medi-plus/internal/logging"
	"medi-plus/internal/pending"
	"medi-plus/internal/scheduler"
	"medi-plus/internal/storage"
	"medi-plus/internal/telegram"
)

func main() {
	envErr := godotenv.Load(".env")

	cfg := config.New()
	log := logging.Must(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()
	if envErr != nil {
		log.Warn(".env file not found", zap.Error(envErr))
	}
	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is not set")
	}

	style, err := knowledge.ParseStyle(cfg.ChatStyle)
	if err != nil {
		log.Fatal("bad chat style", zap.Error(err))
	}
	engine, err := knowledge.NewEngine(style, cfg.RulesFile)
	if err != nil {
		log.Fatal("failed to build rule engine", zap.Error(err))
	}

	var allowRepo auth.Repository
	if cfg.AllowlistFilePath != "" {
		repo, err := auth.NewFileRepository(cfg.AllowlistFilePath)
		if err != nil {
			log.Warn("failed to init allowlist repo", zap.Error(err))
		} else {
			allowRepo = repo
		}
	}
	authSvc, err := auth.NewWithRepo(allowRepo, cfg.AllowedUsers, cfg.AdminUserID)
	if err != nil {
		log.Fatal("failed to init auth", zap.Error(err))
	}
	if authSvc.Open() {
		log.Info("allowlist empty, bot is open to everyone")
	}

	var pendingRepo auth.Repository
	if cfg.PendingFilePath != "" {
		repo, err := auth.NewFileRepository(cfg.PendingFilePath)
		if err != nil {
			log.Warn("failed to init pending repo", zap.Error(err))
		} else {
			pendingRepo = repo
		}
	}
	queue, err := pending.New(pendingRepo)
	if err != nil {
		log.Fatal("failed to load pending requests", zap.Error(err))
	}

	// The transcript is a console artefact; the bot records structured events only.
	sinks, err := storage.Open(storage.Paths{EventLog: cfg.EventLogPath, EventDB: cfg.EventDBPath})
	if err != nil {
		log.Fatal("failed to open event log", zap.Error(err))
	}
	defer sinks.Close()

	opts := telegram.Options{
		AdminUserID: cfg.AdminUserID,
		ParseMode:   cfg.MessageParseMode,
		HistorySize: cfg.HistorySize,
		Recorder:    sinks.Recorder,
		Pending:     queue,
	}
	if sinks.Store != nil {
		opts.Events = sinks.Store
	}
	bot, err := telegram.New(cfg.TelegramBotToken, engine, authSvc, opts, log)
	if err != nil {
		log.Fatal("failed to create bot", zap.Error(err))
	}

	sched := scheduler.New(cfg.ReportSchedule, log.Named("scheduler"))
	if cfg.AdminUserID != 0 && sinks.Store != nil {
		sched.SetReportFunction(bot.ScheduledReport)
	}
	if err := sched.Start(); err != nil {
		log.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	bot.Start(ctx)
}
