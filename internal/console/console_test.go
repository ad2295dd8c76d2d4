package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medi-plus/internal/dispatch"
	"medi-plus/internal/knowledge"
	"medi-plus/internal/storage"
)

type memRecorder struct {
	mu     sync.Mutex
	events []storage.Event
	err    error
}

func (m *memRecorder) AppendInteraction(ev storage.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.err
}

func newEngine(t *testing.T) *dispatch.Engine {
	t.Helper()
	eng, err := knowledge.NewEngine(knowledge.StylePlain, "", dispatch.WithSelector(dispatch.FirstSelector()))
	require.NoError(t, err)
	return eng
}

func TestSession_Conversation(t *testing.T) {
	in := strings.NewReader("My name is Sam\n\n  he is CHOKING  \nasdf\nBYE\nnever read\n")
	var out bytes.Buffer
	rec := &memRecorder{}

	s := New(newEngine(t), in, &out, rec, nil, Options{ExitWords: []string{"quit", "bye"}, SessionID: "s-1"})
	require.NoError(t, s.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "EMERGENCY TRIAGE & FIRST AID SYSTEM")
	assert.Contains(t, text, disclaimer)
	assert.Contains(t, text, "SYSTEM READY.")
	assert.Contains(t, text, "Hello Sam. I am Medi-Plus Pro.")
	assert.Contains(t, text, "[AIRWAY OBSTRUCTION DETECTED]")
	assert.Contains(t, text, "I did not understand that medical term.")
	assert.True(t, strings.HasSuffix(text, goodbye+"\n"), "ends with goodbye: %q", text[len(text)-40:])
	assert.NotContains(t, text, "\x1b[", "no escape codes for a non-terminal writer")

	require.Len(t, rec.events, 3)
	assert.Equal(t, "My name is Sam", rec.events[0].Utterance)
	assert.Equal(t, knowledge.RuleName, rec.events[0].RuleID)
	assert.Equal(t, "he is CHOKING", rec.events[1].Utterance)
	assert.Equal(t, knowledge.RuleChoking, rec.events[1].RuleID)
	assert.True(t, rec.events[2].Fallback)
	for _, ev := range rec.events {
		assert.Equal(t, "s-1", ev.SessionID)
		assert.False(t, ev.Timestamp.IsZero())
	}
}

func TestSession_EndOfInput(t *testing.T) {
	var out bytes.Buffer
	s := New(newEngine(t), strings.NewReader("burn"), &out, nil, nil, Options{})
	require.NoError(t, s.Run(context.Background()))
	assert.Contains(t, out.String(), "[BURN TREATMENT PROTOCOL]")
	assert.NotEmpty(t, s.ID(), "session id generated")
}

func TestSession_RecorderErrorDoesNotStopSession(t *testing.T) {
	var out bytes.Buffer
	rec := &memRecorder{err: errors.New("disk full")}
	s := New(newEngine(t), strings.NewReader("hello\nbleeding\n"), &out, rec, nil, Options{})
	require.NoError(t, s.Run(context.Background()))
	assert.Len(t, rec.events, 2)
	assert.Contains(t, out.String(), "[HEMORRHAGE CONTROL PROTOCOL]")
}

func TestSession_ContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	s := New(newEngine(t), pr, io.Discard, nil, nil, Options{})
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSession_ReaderStopsAfterExitWord(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	before := runtime.NumGoroutine()

	s := New(newEngine(t), pr, io.Discard, nil, nil, Options{ExitWords: []string{"bye"}})
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	_, err := io.WriteString(pw, "bye\n")
	require.NoError(t, err)
	require.NoError(t, <-done)

	// the reader picks up one more line, then must give up instead of
	// waiting for a receiver that is gone
	_, err = io.WriteString(pw, "anyone there?\nstill here\n")
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.LessOrEqual(t, runtime.NumGoroutine(), before)
}

func TestTypewrite_WithDelay(t *testing.T) {
	var out bytes.Buffer
	s := New(newEngine(t), strings.NewReader(""), &out, nil, nil, Options{TypingDelay: time.Microsecond})
	require.NoError(t, s.typewrite(context.Background(), s.st.reply, "ab\ncd"))
	assert.Equal(t, "ab\ncd\n", out.String())
}

func TestPause_HonoursCancel(t *testing.T) {
	s := New(newEngine(t), strings.NewReader(""), io.Discard, nil, nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.pause(ctx, time.Hour), context.Canceled)
	assert.NoError(t, s.pause(context.Background(), 0))
}
