package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"medi-plus/internal/analytics"
)

// SendDailyReport builds the usage report for day and sends it to chatID.
func (b *Bot) SendDailyReport(ctx context.Context, chatID int64, day time.Time) error {
	if b.events == nil {
		return errors.New("no event log configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	events, err := b.events.LoadInteractions()
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	stats := analytics.AnalyzeDailyLogs(events, day)
	b.log.Info("daily report", zap.String("date", stats.Date), zap.Int("turns", stats.TotalTurns))
	b.sendMessage(chatID, stats.GenerateReportSummary())
	return nil
}

// ScheduledReport sends today's report (UTC) to the admin.
func (b *Bot) ScheduledReport(ctx context.Context) error {
	if b.adminUserID == 0 {
		b.log.Warn("scheduled report skipped, no admin configured")
		return nil
	}
	return b.SendDailyReport(ctx, b.adminUserID, b.now().UTC())
}
