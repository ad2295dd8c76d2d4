package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	transcriptTimeLayout = "2006-01-02 15:04:05"
	transcriptSeparator  = "--------------------------------------------------"
)

// TranscriptRecorder appends a human readable session log:
//
//	[2006-01-02 15:04:05] USER: my hand is burned
//	[2006-01-02 15:04:05] BOT:  [BURN TREATMENT PROTOCOL] ...
//	--------------------------------------------------
type TranscriptRecorder struct {
	path string
	mu   sync.Mutex
}

func NewTranscriptRecorder(path string) (*TranscriptRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure transcript dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to init transcript: %w", err)
	}
	_ = f.Close()
	return &TranscriptRecorder{path: path}, nil
}

func (r *TranscriptRecorder) AppendInteraction(event Event) error {
	ts := event.Timestamp.Format(transcriptTimeLayout)
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] USER: %s\n", ts, event.Utterance)
	fmt.Fprintf(&b, "[%s] BOT:  %s\n", ts, event.Response)
	b.WriteString(transcriptSeparator + "\n")

	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}
