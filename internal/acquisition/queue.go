package acquisition

import (
	"sync"

	"electrometer_acquisition/internal/models"
)

// Queue is an unbounded in-memory FIFO of engine events. The producer never
// blocks; the consumer drains everything currently available on its own
// cadence. An empty drain is not an error.
type Queue struct {
	mu     sync.Mutex
	events []models.Event
}

func NewQueue() *Queue {
	return &Queue{events: make([]models.Event, 0, 256)}
}

func (q *Queue) Push(e models.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, e)
}

// Drain takes every queued event, preserving order. Returns nil when empty.
func (q *Queue) Drain() []models.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return nil
	}
	out := q.events
	q.events = make([]models.Event, 0, 256)
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
