package models

import "time"

// RunState is the acquisition engine lifecycle state. Stored as an int32 so
// the engine can keep it in an atomic cell observable from other goroutines.
type RunState int32

const (
	StateIdle RunState = iota
	StateRunning
	StateStopping
	StateDone
	StateError
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateDone:
		return "DONE"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (s RunState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Active reports whether the engine loop is (or is about to be) running.
func (s RunState) Active() bool {
	return s == StateRunning || s == StateStopping
}

// ConnectionInfo describes the current instrument link.
type ConnectionInfo struct {
	Connected bool   `json:"connected"`
	Address   string `json:"address,omitempty"`
	Identity  string `json:"identity,omitempty"`
}

// AcquisitionState is the snapshot served to monitoring consumers.
type AcquisitionState struct {
	Connected   bool      `json:"connected"`
	Address     string    `json:"address,omitempty"`
	Identity    string    `json:"identity,omitempty"`
	State       RunState  `json:"state"`
	ChunkSize   int       `json:"chunk_size"`
	Samples     int       `json:"samples"`
	LastMessage string    `json:"last_message,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
