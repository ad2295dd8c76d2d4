// Package console runs an interactive first-aid session on a terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"medi-plus/internal/dispatch"
	"medi-plus/internal/storage"
)

const (
	disclaimer = "[DISCLAIMER]: I am a rule-based assistant. For life-threatening emergencies, call 911/112 immediately."
	goodbye    = "Stay safe. Goodbye."
	prompt     = "> "
)

var logo = []string{
	"  __  __          _ _       ____  _           ",
	" |  \\/  | ___  __| (_)     |  _ \\| |_   _ ___ ",
	" | |\\/| |/ _ \\/ _` | |_____| |_) | | | | / __|",
	" | |  | |  __/ (_| | |_____|  __/| | |_| \\__ \\",
	" |_|  |_|\\___|\\__,_|_|     |_|   |_|\\__,_|___/",
}

var bootLines = []string{
	"LOADING FIRST AID PROTOCOLS...",
	"ACCESSING MEDICAL DATABASE...",
}

type Options struct {
	ExitWords   []string
	TypingDelay time.Duration
	ThinkDelay  time.Duration
	// SessionID is generated when empty.
	SessionID string
}

type styles struct {
	logo, header, warn, boot, ready, reply lipgloss.Style
}

// Session reads utterances line by line and prints the engine's replies.
type Session struct {
	engine dispatch.Responder
	in     io.Reader
	out    io.Writer
	rec    storage.Recorder
	log    *zap.Logger
	opts   Options
	exit   map[string]struct{}
	st     styles
	now    func() time.Time
}

// New binds a session to in/out. Colors follow the capabilities of out,
// so a pipe or buffer gets plain text.
func New(engine dispatch.Responder, in io.Reader, out io.Writer, rec storage.Recorder, log *zap.Logger, opts Options) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}
	exit := make(map[string]struct{}, len(opts.ExitWords))
	for _, w := range opts.ExitWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			exit[w] = struct{}{}
		}
	}

	r := lipgloss.NewRenderer(out)
	return &Session{
		engine: engine,
		in:     in,
		out:    out,
		rec:    rec,
		log:    log.With(zap.String("session", opts.SessionID)),
		opts:   opts,
		exit:   exit,
		st: styles{
			logo:   r.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
			header: r.NewStyle().Foreground(lipgloss.Color("13")),
			warn:   r.NewStyle().Foreground(lipgloss.Color("11")),
			boot:   r.NewStyle().Foreground(lipgloss.Color("14")),
			ready:  r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
			reply:  r.NewStyle().Foreground(lipgloss.Color("10")),
		},
		now: time.Now,
	}
}

func (s *Session) ID() string { return s.opts.SessionID }

// Run prints the banner and converses until an exit word, end of input or
// ctx cancellation. Cancellation is reported as ctx.Err().
func (s *Session) Run(ctx context.Context) error {
	if err := s.banner(ctx); err != nil {
		return err
	}

	// The reader exits on the next line or EOF after Run returns. A Scan
	// already blocked on s.in cannot be interrupted.
	readCtx, stop := context.WithCancel(ctx)
	defer stop()
	lines := make(chan string, 1)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(s.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-readCtx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		if _, err := io.WriteString(s.out, prompt); err != nil {
			return err
		}
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			s.log.Debug("input closed")
			select {
			case err := <-readErr:
				if err != nil {
					return fmt.Errorf("read input: %w", err)
				}
			default:
			}
			return nil
		}

		utterance := strings.TrimSpace(line)
		if utterance == "" {
			continue
		}
		if _, quit := s.exit[strings.ToLower(utterance)]; quit {
			return s.typewrite(ctx, s.st.reply, goodbye)
		}
		if err := s.turn(ctx, utterance); err != nil {
			return err
		}
	}
}

func (s *Session) turn(ctx context.Context, utterance string) error {
	reply := s.engine.Dispatch(utterance)
	s.log.Debug("dispatched", zap.String("rule", reply.RuleID), zap.Bool("fallback", reply.Fallback))

	if err := s.pause(ctx, s.opts.ThinkDelay); err != nil {
		return err
	}
	if err := s.typewrite(ctx, s.st.reply, reply.Text); err != nil {
		return err
	}

	if s.rec != nil {
		ev := storage.Event{
			Timestamp: s.now(),
			SessionID: s.opts.SessionID,
			Utterance: utterance,
			Response:  reply.Text,
			RuleID:    reply.RuleID,
			Fallback:  reply.Fallback,
		}
		if err := s.rec.AppendInteraction(ev); err != nil {
			s.log.Warn("record interaction", zap.Error(err))
		}
	}
	return nil
}

func (s *Session) banner(ctx context.Context) error {
	var b strings.Builder
	for _, l := range logo {
		b.WriteString(s.st.logo.Render(l))
		b.WriteByte('\n')
	}
	b.WriteString(s.st.header.Render("     >>> EMERGENCY TRIAGE & FIRST AID SYSTEM <<<"))
	b.WriteString("\n\n")
	b.WriteString(s.st.warn.Render(disclaimer))
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("-", 80))
	b.WriteByte('\n')
	if _, err := io.WriteString(s.out, b.String()); err != nil {
		return err
	}

	for _, l := range bootLines {
		if err := s.typewrite(ctx, s.st.boot, l); err != nil {
			return err
		}
		if err := s.pause(ctx, s.opts.ThinkDelay); err != nil {
			return err
		}
	}
	_, err := io.WriteString(s.out, s.st.ready.Render("SYSTEM READY.")+"\n\n")
	return err
}

// typewrite prints text one rune at a time with TypingDelay between runes,
// followed by a newline. A zero delay prints each line at once.
func (s *Session) typewrite(ctx context.Context, st lipgloss.Style, text string) error {
	for _, line := range strings.Split(text, "\n") {
		if s.opts.TypingDelay <= 0 {
			if _, err := io.WriteString(s.out, st.Render(line)+"\n"); err != nil {
				return err
			}
			continue
		}
		for _, r := range line {
			if _, err := io.WriteString(s.out, st.Render(string(r))); err != nil {
				return err
			}
			if err := s.pause(ctx, s.opts.TypingDelay); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(s.out, "\n"); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
