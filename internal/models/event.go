package models

// EventKind tags entries on the engine-to-consumer event queue.
type EventKind int

const (
	EventData EventKind = iota
	EventLog
	EventError
	EventDone
)

// Event is one tagged entry on the queue between the acquisition engine and
// the recorder. Sample is meaningful only for EventData, Message only for
// EventLog and EventError.
type Event struct {
	Kind    EventKind
	Sample  Sample
	Message string
}
