package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"medi-plus/internal/console"
	"medi-plus/internal/storage"
)

var noDelay bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive first-aid session",
	Long: `Start an interactive first-aid session on the terminal.

Type quit, exit or bye (see EXIT_WORDS) to leave. Every turn is appended to
the session transcript and the event log.

Examples:
  # Chat with the built-in rules
  medibot chat

  # Plain responses, no typing effect
  medibot chat --style plain --no-delay`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&noDelay, "no-delay", false, "print responses at once")
	rootCmd.Flags().BoolVar(&noDelay, "no-delay", false, "print responses at once")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, log, engine, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	sinks, err := storage.Open(storage.Paths{
		Transcript: cfg.SessionLogPath,
		EventLog:   cfg.EventLogPath,
		EventDB:    cfg.EventDBPath,
	})
	if err != nil {
		return err
	}
	defer sinks.Close()

	opts := console.Options{
		ExitWords:   cfg.ExitWords,
		TypingDelay: cfg.TypingDelay,
		ThinkDelay:  cfg.ThinkDelay,
	}
	if noDelay {
		opts.TypingDelay, opts.ThinkDelay = 0, 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := console.New(engine, cmd.InOrStdin(), cmd.OutOrStdout(), sinks.Recorder, log, opts)
	log.Info("session started", zap.String("session", session.ID()))
	err = session.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
