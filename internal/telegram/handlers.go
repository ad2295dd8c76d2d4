package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"medi-plus/internal/auth"
	"medi-plus/internal/history"
	"medi-plus/internal/storage"
)

const (
	restrictedText  = "Access to this bot is restricted. Your request was sent to the administrator.\nFor life-threatening emergencies, call 911/112 immediately."
	nothingToRepeat = "Nothing to repeat yet. Describe the emergency in a few words."
	adminOnlyText   = "This command is available to the administrator only."
	helpText        = "Describe what is happening in a few words, for example:\n" +
		"- my friend is choking\n" +
		"- deep cut on the arm, bleeding\n" +
		"- burned my hand\n" +
		"- chest pain\n\n" +
		"/repeat repeats the last instructions.\n" +
		"For life-threatening emergencies, call 911/112 immediately."
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if !b.authSvc.IsAllowed(msg.From.ID) {
		b.refuse(msg)
		return
	}

	switch msg.Command() {
	case "start":
		b.history.Reset(msg.From.ID)
		b.respond(msg.Chat.ID, msg.From.ID, "hello")
		return
	case "repeat":
		b.repeat(msg.Chat.ID, msg.From.ID)
		return
	case "help":
		b.sendMessage(msg.Chat.ID, helpText)
		return
	}

	// admin-only commands
	if !b.authSvc.IsAdmin(msg.From.ID) {
		b.sendMessage(msg.Chat.ID, adminOnlyText)
		return
	}
	switch msg.Command() {
	case "allowlist":
		var bld strings.Builder
		if b.authSvc.Open() {
			bld.WriteString("Allowlist is empty, the bot is open to everyone.")
		} else {
			bld.WriteString("Allowlist:\n")
			if len(b.authSvc.List()) == 0 {
				bld.WriteString("(empty, only the admin can chat)\n")
			}
			for _, u := range b.authSvc.List() {
				fmt.Fprintf(&bld, "- id=%d @%s %s\n", u.ID, u.Username, u.FirstName)
			}
		}
		if reqs := b.pending.List(); len(reqs) > 0 {
			bld.WriteString("\nPending requests:\n")
			for _, u := range reqs {
				fmt.Fprintf(&bld, "- id=%d @%s %s\n", u.ID, u.Username, u.FirstName)
			}
		}
		b.sendMessage(msg.Chat.ID, bld.String())
	case "allow":
		uid, ok := b.userIDArg(msg)
		if ok {
			b.approveUser(msg.Chat.ID, uid)
		}
	case "deny":
		uid, ok := b.userIDArg(msg)
		if ok {
			b.denyUser(msg.Chat.ID, uid)
		}
	case "report":
		day := b.now().UTC()
		if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
			d, err := time.Parse("2006-01-02", arg)
			if err != nil {
				b.sendMessage(msg.Chat.ID, "Usage: /report [YYYY-MM-DD]")
				return
			}
			day = d
		}
		if err := b.SendDailyReport(ctx, msg.Chat.ID, day); err != nil {
			b.log.Error("report failed", zap.Error(err))
			b.sendMessage(msg.Chat.ID, fmt.Sprintf("Report failed: %v", err))
		}
	default:
		b.sendMessage(msg.Chat.ID, "Unknown command. Try /help.")
	}
}

func (b *Bot) userIDArg(msg *tgbotapi.Message) (int64, bool) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("Usage: /%s <user_id>", msg.Command()))
		return 0, false
	}
	uid, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.sendMessage(msg.Chat.ID, "Invalid user_id")
		return 0, false
	}
	return uid, true
}

func (b *Bot) handleIncomingMessage(msg *tgbotapi.Message) {
	if !b.authSvc.IsAllowed(msg.From.ID) {
		b.refuse(msg)
		return
	}
	b.log.Debug("incoming message", zap.Int64("user", msg.From.ID))
	b.respond(msg.Chat.ID, msg.From.ID, msg.Text)
}

// respond dispatches one utterance, replies and records the turn.
func (b *Bot) respond(chatID, userID int64, utterance string) {
	reply := b.engine.Dispatch(utterance)
	b.history.Append(userID, history.Turn{Utterance: utterance, Reply: reply})
	b.sendWithKeyboard(chatID, reply.Text)

	if b.recorder != nil {
		ev := storage.Event{
			Timestamp: b.now().UTC(),
			SessionID: "tg-" + strconv.FormatInt(chatID, 10),
			UserID:    userID,
			Utterance: utterance,
			Response:  reply.Text,
			RuleID:    reply.RuleID,
			Fallback:  reply.Fallback,
		}
		if err := b.recorder.AppendInteraction(ev); err != nil {
			b.log.Warn("record interaction", zap.Error(err))
		}
	}
}

func (b *Bot) repeat(chatID, userID int64) {
	turn, ok := b.history.LastMatched(userID)
	if !ok {
		b.sendMessage(chatID, nothingToRepeat)
		return
	}
	b.sendWithKeyboard(chatID, turn.Reply.Text)
}

func (b *Bot) refuse(msg *tgbotapi.Message) {
	b.log.Info("unauthorized access attempt", zap.Int64("user", msg.From.ID), zap.String("username", msg.From.UserName))
	b.sendMessage(msg.Chat.ID, restrictedText)
	added, err := b.pending.Add(auth.User{ID: msg.From.ID, Username: msg.From.UserName, FirstName: msg.From.FirstName})
	if err != nil {
		b.log.Warn("persist pending request", zap.Error(err))
	}
	if added {
		b.notifyAdminRequest(msg.From)
	}
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil {
		return
	}
	if _, err := b.s.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Debug("answer callback", zap.Error(err))
	}
	chatID := cb.Message.Chat.ID

	switch {
	case cb.Data == repeatCmd:
		if b.authSvc.IsAllowed(cb.From.ID) {
			b.repeat(chatID, cb.From.ID)
		}
	case cb.Data == helpCmd:
		b.sendMessage(chatID, helpText)
	case strings.HasPrefix(cb.Data, approvePrefix), strings.HasPrefix(cb.Data, denyPrefix):
		if !b.authSvc.IsAdmin(cb.From.ID) {
			return
		}
		approve := strings.HasPrefix(cb.Data, approvePrefix)
		raw := strings.TrimPrefix(strings.TrimPrefix(cb.Data, approvePrefix), denyPrefix)
		uid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			b.log.Warn("bad callback payload", zap.String("data", cb.Data))
			return
		}
		if approve {
			b.approveUser(chatID, uid)
		} else {
			b.denyUser(chatID, uid)
		}
	}
}

func (b *Bot) approveUser(adminChat, uid int64) {
	if err := b.authSvc.Upsert(auth.User{ID: uid}); err != nil {
		b.sendMessage(adminChat, fmt.Sprintf("Could not allow %d: %v", uid, err))
		return
	}
	if err := b.pending.Remove(uid); err != nil {
		b.log.Warn("clear pending request", zap.Error(err))
	}
	b.log.Info("user allowed", zap.Int64("user", uid))
	b.sendMessage(adminChat, fmt.Sprintf("User %d allowed", uid))
	b.sendMessage(uid, "Access granted. Describe the emergency in a few words.")
}

func (b *Bot) denyUser(adminChat, uid int64) {
	if err := b.authSvc.Remove(uid); err != nil {
		b.sendMessage(adminChat, fmt.Sprintf("Could not deny %d: %v", uid, err))
		return
	}
	if err := b.pending.Remove(uid); err != nil {
		b.log.Warn("clear pending request", zap.Error(err))
	}
	b.history.Reset(uid)
	b.log.Info("user denied", zap.Int64("user", uid))
	b.sendMessage(adminChat, fmt.Sprintf("User %d removed from the allowlist", uid))
}
