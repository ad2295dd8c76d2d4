package storage

import "time"

// Event is one dispatched turn: what the user said and what the engine
// answered. SessionID identifies a console session; UserID a chat user.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id,omitempty"`
	UserID    int64     `json:"user_id,omitempty"`
	Utterance string    `json:"utterance"`
	Response  string    `json:"response"`
	RuleID    string    `json:"rule_id"`
	Fallback  bool      `json:"fallback,omitempty"`
}

// Recorder is an append-only sink for turns.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendInteraction(event Event) error
}

// Store is a Recorder that can also read back what it wrote, in
// chronological order.
type Store interface {
	Recorder
	LoadInteractions() ([]Event, error)
}
