package storage

import (
	"errors"
	"io"
)

// Paths names the sinks to open. Empty paths are skipped.
type Paths struct {
	Transcript string
	EventLog   string
	EventDB    string
}

// Sinks is the set of recorders opened from Paths.
type Sinks struct {
	// Recorder fans out to every opened sink.
	Recorder Multi
	// Store reads events back: the SQLite database when configured,
	// otherwise the JSONL log. Nil when neither is configured.
	Store   Store
	closers []io.Closer
}

// Open opens every configured sink. On error the already opened ones are
// closed.
func Open(p Paths) (*Sinks, error) {
	s := &Sinks{}
	if p.Transcript != "" {
		t, err := NewTranscriptRecorder(p.Transcript)
		if err != nil {
			return nil, err
		}
		s.Recorder = append(s.Recorder, t)
	}
	if p.EventLog != "" {
		f, err := NewFileRecorder(p.EventLog)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Recorder = append(s.Recorder, f)
		s.Store = f
		s.closers = append(s.closers, f)
	}
	if p.EventDB != "" {
		db, err := NewSQLiteRecorder(p.EventDB)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Recorder = append(s.Recorder, db)
		s.Store = db
		s.closers = append(s.closers, db)
	}
	return s, nil
}

func (s *Sinks) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
