package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "emoji", cfg.ChatStyle)
	assert.Equal(t, 10*time.Millisecond, cfg.TypingDelay)
	assert.Equal(t, []string{"quit", "exit", "bye"}, cfg.ExitWords)
	assert.Equal(t, "logs/session_log.txt", cfg.SessionLogPath)
	assert.Equal(t, "data/pending.json", cfg.PendingFilePath)
	assert.Equal(t, "0 21 * * *", cfg.ReportSchedule)
	assert.Empty(t, cfg.TelegramBotToken)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CHAT_STYLE", "plain")
	t.Setenv("TYPING_DELAY", "0s")
	t.Setenv("EXIT_WORDS", "stop:done")
	t.Setenv("ALLOWED_USERS", "10:20")
	t.Setenv("ADMIN_USER", "10")
	t.Setenv("HISTORY_SIZE", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "plain", cfg.ChatStyle)
	assert.Zero(t, cfg.TypingDelay)
	assert.Equal(t, []string{"stop", "done"}, cfg.ExitWords)
	assert.Equal(t, []int64{10, 20}, cfg.AllowedUsers)
	assert.Equal(t, int64(10), cfg.AdminUserID)
	assert.Equal(t, 1, cfg.HistorySize)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("TYPING_DELAY", "-5ms")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("TYPING_DELAY", "fast")
	_, err = Load()
	assert.Error(t, err)
}
