package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	// Engine
	ChatStyle string `env:"CHAT_STYLE" envDefault:"emoji"`
	RulesFile string `env:"RULES_FILE"`

	// Console presentation
	TypingDelay time.Duration `env:"TYPING_DELAY" envDefault:"10ms"`
	ThinkDelay  time.Duration `env:"THINK_DELAY" envDefault:"500ms"`
	ExitWords   []string      `env:"EXIT_WORDS" envSeparator:":" envDefault:"quit:exit:bye"`

	// Storage
	SessionLogPath    string `env:"SESSION_LOG_PATH" envDefault:"logs/session_log.txt"`
	EventLogPath      string `env:"EVENT_LOG_PATH" envDefault:"logs/events.jsonl"`
	EventDBPath       string `env:"EVENT_DB_PATH"`
	AllowlistFilePath string `env:"ALLOWLIST_FILE_PATH" envDefault:"data/allowlist.json"`
	PendingFilePath   string `env:"PENDING_FILE_PATH" envDefault:"data/pending.json"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// Telegram
	TelegramBotToken string  `env:"TELEGRAM_BOT_TOKEN"`
	AllowedUsers     []int64 `env:"ALLOWED_USERS" envSeparator:":"`
	AdminUserID      int64   `env:"ADMIN_USER"`
	HistorySize      int     `env:"HISTORY_SIZE" envDefault:"10"`
	MessageParseMode string  `env:"MESSAGE_PARSE_MODE"`

	// Reports
	ReportSchedule string `env:"REPORT_SCHEDULE" envDefault:"0 21 * * *"`
}

// Load parses the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.TypingDelay < 0 || cfg.ThinkDelay < 0 {
		return nil, fmt.Errorf("parse config: delays must not be negative")
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 1
	}
	return cfg, nil
}

func New() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
