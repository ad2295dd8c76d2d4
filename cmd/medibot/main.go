// Command medibot is the Medi-Plus first-aid assistant for the terminal.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"medi-plus/internal/config"
	"medi-plus/internal/dispatch"
	"medi-plus/internal/knowledge"
	"medi-plus/internal/logging"
)

var (
	version = "dev"

	rulesFile string
	chatStyle string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "medibot",
	Short: "Rule-based first-aid triage assistant",
	Long: `medibot answers short descriptions of emergencies with first-aid
instructions from an ordered rule set.

Without a subcommand it starts an interactive chat session.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runChat,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "custom rules YAML file (overrides RULES_FILE)")
	rootCmd.PersistentFlags().StringVar(&chatStyle, "style", "", "response style: plain or emoji (overrides CHAT_STYLE)")
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(reportCmd)
}

// setup loads .env and the environment, then builds the logger and engine.
// Flags override the environment.
func setup() (*config.Config, *zap.Logger, *dispatch.Engine, error) {
	envErr := godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if rulesFile != "" {
		cfg.RulesFile = rulesFile
	}
	if chatStyle != "" {
		cfg.ChatStyle = chatStyle
	}

	log := logging.Must(cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		log.Debug(".env not loaded", zap.Error(envErr))
	}

	style, err := knowledge.ParseStyle(cfg.ChatStyle)
	if err != nil {
		return nil, nil, nil, err
	}
	engine, err := knowledge.NewEngine(style, cfg.RulesFile)
	if err != nil {
		return nil, nil, nil, err
	}
	log.Debug("engine ready", zap.Strings("rules", engine.Rules()), zap.String("style", string(style)))
	return cfg, log, engine, nil
}
