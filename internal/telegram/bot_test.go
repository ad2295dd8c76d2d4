package telegram

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medi-plus/internal/auth"
	"medi-plus/internal/dispatch"
	"medi-plus/internal/knowledge"
	"medi-plus/internal/storage"
)

type sentMessage struct {
	chatID   int64
	text     string
	keyboard bool
}

type fakeSender struct {
	sent     []sentMessage
	requests int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m := c.(tgbotapi.MessageConfig)
	_, kb := m.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	f.sent = append(f.sent, sentMessage{chatID: m.ChatID, text: m.Text, keyboard: kb})
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) sentMessage {
	t.Helper()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type memStore struct{ events []storage.Event }

func (m *memStore) AppendInteraction(ev storage.Event) error {
	m.events = append(m.events, ev)
	return nil
}

func (m *memStore) LoadInteractions() ([]storage.Event, error) { return m.events, nil }

const adminID = 999

func newTestBot(t *testing.T, allowed []int64, parseMode string) (*Bot, *fakeSender, *memStore) {
	t.Helper()
	eng, err := knowledge.NewEngine(knowledge.StylePlain, "", dispatch.WithSelector(dispatch.FirstSelector()))
	require.NoError(t, err)
	svc, err := auth.NewWithRepo(nil, allowed, adminID)
	require.NoError(t, err)

	fs := &fakeSender{}
	store := &memStore{}
	b := newBot(fs, eng, svc, Options{
		AdminUserID: adminID,
		ParseMode:   parseMode,
		HistorySize: 5,
		Recorder:    store,
		Events:      store,
	}, nil)
	b.now = func() time.Time { return time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC) }
	return b, fs, store
}

func textMsg(from int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{From: &tgbotapi.User{ID: from, UserName: "u"}, Chat: &tgbotapi.Chat{ID: from}, Text: text}
}

func cmdMsg(from int64, text string) *tgbotapi.Message {
	m := textMsg(from, text)
	m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(strings.Fields(text)[0])}}
	return m
}

func TestIncomingMessage_DispatchesAndRecords(t *testing.T) {
	b, fs, store := newTestBot(t, nil, "")

	b.handleUpdate(context.Background(), tgbotapi.Update{Message: textMsg(42, "My friend is BLEEDING")})

	out := fs.last(t)
	assert.Equal(t, int64(42), out.chatID)
	assert.Contains(t, out.text, "[HEMORRHAGE CONTROL PROTOCOL]")
	assert.True(t, out.keyboard, "reply carries repeat/help keyboard")

	require.Len(t, store.events, 1)
	ev := store.events[0]
	assert.Equal(t, "tg-42", ev.SessionID)
	assert.Equal(t, int64(42), ev.UserID)
	assert.Equal(t, knowledge.RuleBleeding, ev.RuleID)
	assert.False(t, ev.Fallback)
}

func TestStartCommand_Greets(t *testing.T) {
	b, fs, _ := newTestBot(t, nil, "")
	b.handleUpdate(context.Background(), tgbotapi.Update{Message: cmdMsg(1, "/start")})
	assert.Contains(t, fs.last(t).text, "I am Medi-Plus Pro")
}

func TestRepeat_SkipsFallbacks(t *testing.T) {
	b, fs, _ := newTestBot(t, nil, "")
	ctx := context.Background()

	b.handleUpdate(ctx, tgbotapi.Update{Message: cmdMsg(7, "/repeat")})
	assert.Equal(t, nothingToRepeat, fs.last(t).text)

	b.handleUpdate(ctx, tgbotapi.Update{Message: textMsg(7, "burned my arm")})
	b.handleUpdate(ctx, tgbotapi.Update{Message: textMsg(7, "qwerty")})
	b.handleUpdate(ctx, tgbotapi.Update{Message: cmdMsg(7, "/repeat")})
	assert.Contains(t, fs.last(t).text, "[BURN TREATMENT PROTOCOL]")

	// inline button does the same and answers the callback
	b.handleUpdate(ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: 7},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 7}},
		Data:    repeatCmd,
	}})
	assert.Contains(t, fs.last(t).text, "[BURN TREATMENT PROTOCOL]")
	assert.Equal(t, 1, fs.requests)
}

func TestUnauthorized_RefusedAndAdminNotifiedOnce(t *testing.T) {
	b, fs, store := newTestBot(t, []int64{10}, "")
	ctx := context.Background()

	b.handleUpdate(ctx, tgbotapi.Update{Message: textMsg(123, "choking")})
	b.handleUpdate(ctx, tgbotapi.Update{Message: textMsg(123, "choking!!")})

	var toUser, toAdmin int
	for _, m := range fs.sent {
		switch m.chatID {
		case 123:
			toUser++
			assert.Contains(t, m.text, "911/112")
		case adminID:
			toAdmin++
			assert.Contains(t, m.text, "id 123")
			assert.True(t, m.keyboard)
		}
	}
	assert.Equal(t, 2, toUser)
	assert.Equal(t, 1, toAdmin)
	assert.Empty(t, store.events)
	assert.Len(t, b.pending.List(), 1)
}

func TestAdminCallback_ApprovesPendingUser(t *testing.T) {
	b, fs, _ := newTestBot(t, []int64{10}, "")
	ctx := context.Background()
	b.handleUpdate(ctx, tgbotapi.Update{Message: textMsg(123, "hi")})

	b.handleUpdate(ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: adminID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: adminID}},
		Data:    approvePrefix + "123",
	}})
	assert.True(t, b.authSvc.IsAllowed(123))
	assert.Empty(t, b.pending.List())
	assert.Equal(t, int64(123), fs.last(t).chatID)

	// non-admin callbacks are ignored
	b.handleUpdate(ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb2",
		From:    &tgbotapi.User{ID: 10},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 10}},
		Data:    denyPrefix + "123",
	}})
	assert.True(t, b.authSvc.IsAllowed(123))
}

func TestAdminCommands(t *testing.T) {
	b, fs, _ := newTestBot(t, []int64{10}, "")
	ctx := context.Background()

	b.handleUpdate(ctx, tgbotapi.Update{Message: cmdMsg(10, "/allow 55")})
	assert.Equal(t, adminOnlyText, fs.last(t).text)

	b.handleUpdate(ctx, tgbotapi.Update{Message: cmdMsg(adminID, "/allow 55")})
	assert.True(t, b.authSvc.IsAllowed(55))

	b.handleUpdate(ctx, tgbotapi.Update{Message: cmdMsg(adminID, "/allow abc")})
	assert.Equal(t, "Invalid user_id", fs.last(t).text)

	b.handleUpdate(ctx, tgbotapi.Update{Message: cmdMsg(adminID, "/deny")})
	assert.Equal(t, "Usage: /deny <user_id>", fs.last(t).text)

	b.handleUpdate(ctx, tgbotapi.Update{Message: cmdMsg(adminID, "/deny 55")})
	assert.False(t, b.authSvc.IsAllowed(55))

	b.handleUpdate(ctx, tgbotapi.Update{Message: cmdMsg(adminID, "/allowlist")})
	assert.Contains(t, fs.last(t).text, "- id=10")
}

func TestDenyLastUser_KeepsBotClosed(t *testing.T) {
	b, fs, store := newTestBot(t, []int64{42}, "")
	ctx := context.Background()

	b.handleUpdate(ctx, tgbotapi.Update{Message: cmdMsg(adminID, "/deny 42")})
	assert.False(t, b.authSvc.IsAllowed(42))

	b.handleUpdate(ctx, tgbotapi.Update{Message: textMsg(7, "choking")})
	assert.False(t, b.authSvc.IsAllowed(7))
	for _, m := range fs.sent {
		assert.NotContains(t, m.text, "[AIRWAY OBSTRUCTION DETECTED]")
	}
	assert.Empty(t, store.events)

	b.handleUpdate(ctx, tgbotapi.Update{Message: cmdMsg(adminID, "/allowlist")})
	assert.Contains(t, fs.last(t).text, "only the admin can chat")
	assert.Contains(t, fs.last(t).text, "- id=7")
}

func TestReportCommand(t *testing.T) {
	b, fs, _ := newTestBot(t, nil, "")
	ctx := context.Background()

	b.handleUpdate(ctx, tgbotapi.Update{Message: textMsg(1, "chest pain")})
	b.handleUpdate(ctx, tgbotapi.Update{Message: textMsg(2, "zzz")})

	b.handleUpdate(ctx, tgbotapi.Update{Message: cmdMsg(adminID, "/report")})
	out := fs.last(t)
	assert.Equal(t, int64(adminID), out.chatID)
	assert.Contains(t, out.text, "Medi-Plus usage for 2024-01-15")
	assert.Contains(t, out.text, "- Turns: 2")
	assert.Contains(t, out.text, "- cardiac: 1")

	b.handleUpdate(ctx, tgbotapi.Update{Message: cmdMsg(adminID, "/report yesterday")})
	assert.Equal(t, "Usage: /report [YYYY-MM-DD]", fs.last(t).text)

	b.handleUpdate(ctx, tgbotapi.Update{Message: cmdMsg(adminID, "/report 2024-01-14")})
	assert.Contains(t, fs.last(t).text, "- Turns: 0")

	require.NoError(t, b.ScheduledReport(ctx))
	assert.Contains(t, fs.last(t).text, "- Turns: 2")
}

func TestSendMessage_EscapesForParseMode(t *testing.T) {
	b, fs, _ := newTestBot(t, nil, tgbotapi.ModeHTML)
	b.sendMessage(1, "a < b & c")
	assert.Equal(t, "a &lt; b &amp; c", fs.last(t).text)
}
