package models

import "time"

// Session event types persisted in the event log.
const (
	EventTypeConnect    = "CONNECT"
	EventTypeDisconnect = "DISCONNECT"
	EventTypeStart      = "START"
	EventTypeStop       = "STOP"
	EventTypeError      = "ERROR"
	EventTypeExport     = "EXPORT"
)

// SessionEvent is a single persisted log entry.
type SessionEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // CONNECT | DISCONNECT | START | STOP | ERROR | EXPORT
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

// RunRecord is the persisted summary of one finished acquisition run.
type RunRecord struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	State      string    `json:"state"` // DONE | ERROR
	Samples    int       `json:"samples"`
	Message    string    `json:"message,omitempty"`
}
