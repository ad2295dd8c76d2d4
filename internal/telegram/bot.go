package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"medi-plus/internal/auth"
	"medi-plus/internal/dispatch"
	"medi-plus/internal/history"
	"medi-plus/internal/pending"
	"medi-plus/internal/storage"
)

const (
	repeatCmd     = "repeat"
	helpCmd       = "help"
	approvePrefix = "approve:"
	denyPrefix    = "deny:"
)

// EventLoader feeds /report.
type EventLoader interface {
	LoadInteractions() ([]storage.Event, error)
}

type Options struct {
	AdminUserID int64
	ParseMode   string
	HistorySize int
	Recorder    storage.Recorder
	Events      EventLoader
	// Pending dedupes access requests. Nil means an in-memory queue.
	Pending     *pending.Queue
}

type Bot struct {
	api         *tgbotapi.BotAPI
	s           sender
	engine      dispatch.Responder
	authSvc     *auth.Service
	pending     *pending.Queue
	history     *history.Manager
	recorder    storage.Recorder
	events      EventLoader
	adminUserID int64
	parseMode   string
	log         *zap.Logger
	now         func() time.Time
}

func New(botToken string, engine dispatch.Responder, authSvc *auth.Service, opts Options, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	b := newBot(botAPISender{api: api}, engine, authSvc, opts, log)
	b.api = api
	b.log.Info("authorized on telegram", zap.String("account", api.Self.UserName))
	return b, nil
}

func newBot(s sender, engine dispatch.Responder, authSvc *auth.Service, opts Options, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	queue := opts.Pending
	if queue == nil {
		queue, _ = pending.New(nil)
	}
	return &Bot{
		s:           s,
		engine:      engine,
		authSvc:     authSvc,
		pending:     queue,
		history:     history.NewManager(opts.HistorySize),
		recorder:    opts.Recorder,
		events:      opts.Events,
		adminUserID: opts.AdminUserID,
		parseMode:   opts.ParseMode,
		log:         log,
		now:         time.Now,
	}
}

// Start long-polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("polling for updates")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("update loop stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		if update.Message.IsCommand() {
			b.handleCommand(ctx, update.Message)
			return
		}
		b.handleIncomingMessage(update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	}
}

func (b *Bot) replyKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Repeat instructions", repeatCmd),
			tgbotapi.NewInlineKeyboardButtonData("Help", helpCmd),
		),
	)
}

func (b *Bot) escape(text string) string {
	if b.parseMode == "" {
		return text
	}
	return tgbotapi.EscapeText(b.parseMode, text)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, b.escape(text))
	msg.ParseMode = b.parseMode
	if _, err := b.s.Send(msg); err != nil {
		b.log.Warn("send message", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (b *Bot) sendWithKeyboard(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, b.escape(text))
	msg.ParseMode = b.parseMode
	msg.ReplyMarkup = b.replyKeyboard()
	if _, err := b.s.Send(msg); err != nil {
		b.log.Warn("send message", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (b *Bot) notifyAdminRequest(user *tgbotapi.User) {
	if b.adminUserID == 0 || user == nil {
		return
	}
	id := strconv.FormatInt(user.ID, 10)
	text := fmt.Sprintf("User @%s (id %d) asked for access", user.UserName, user.ID)
	msg := tgbotapi.NewMessage(b.adminUserID, b.escape(text))
	msg.ParseMode = b.parseMode
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("allow", approvePrefix+id),
			tgbotapi.NewInlineKeyboardButtonData("deny", denyPrefix+id),
		),
	)
	if _, err := b.s.Send(msg); err != nil {
		b.log.Warn("notify admin", zap.Error(err))
	}
}
