package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"electrometer_acquisition/internal/acquisition"
	"electrometer_acquisition/internal/logger"
	"electrometer_acquisition/internal/models"
	"electrometer_acquisition/internal/repository"

	"github.com/google/uuid"
)

// DefaultPollInterval matches the 100 ms consumer cadence of the GUI this
// service replaces.
const DefaultPollInterval = 100 * time.Millisecond

// ErrBufferBusy rejects a buffer clear while a run is active.
var ErrBufferBusy = errors.New("acquisition is running: stop first")

// RecorderService is the consumer of the engine's event queue. It drains on
// a ticker, appends data events to the session buffer in arrival order, and
// persists the outcome of each run. It never performs instrument I/O.
type RecorderService struct {
	queue  *acquisition.Queue
	engine *acquisition.Engine
	events repository.EventRepo
	runs   repository.RunRepo
	log    *logger.Logger

	mu         sync.Mutex
	buf        []models.Sample
	lastMsg    string
	runID      string
	runStart   time.Time
	runSamples int
}

func NewRecorderService(queue *acquisition.Queue, engine *acquisition.Engine, events repository.EventRepo, runs repository.RunRepo, log *logger.Logger) *RecorderService {
	return &RecorderService{queue: queue, engine: engine, events: events, runs: runs, log: log}
}

// BeginRun marks the start of a new run for outcome bookkeeping.
func (r *RecorderService) BeginRun() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runID = uuid.NewString()
	r.runStart = time.Now().UTC()
	r.runSamples = 0
	r.lastMsg = "Running..."
}

// Run drains the queue at the given interval until ctx is canceled. A final
// drain on shutdown picks up anything the engine emitted while stopping.
func (r *RecorderService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = DefaultPollInterval
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			r.drain(context.Background())
			return
		case <-t.C:
			r.drain(ctx)
		}
	}
}

func (r *RecorderService) drain(ctx context.Context) {
	for _, ev := range r.queue.Drain() {
		switch ev.Kind {
		case models.EventData:
			r.mu.Lock()
			r.buf = append(r.buf, ev.Sample)
			r.runSamples++
			r.mu.Unlock()
		case models.EventLog:
			r.mu.Lock()
			r.lastMsg = ev.Message
			r.mu.Unlock()
			r.log.Warnw("acquisition_log", "msg", ev.Message)
		case models.EventError:
			r.finishRun(ctx, models.StateError.String(), ev.Message)
		case models.EventDone:
			r.finishRun(ctx, models.StateDone.String(), "")
		}
	}
}

// finishRun persists the run summary and an event-log entry. Both writes are
// best-effort: a dead database must not take the recorder down with it.
func (r *RecorderService) finishRun(ctx context.Context, state, errMsg string) {
	r.mu.Lock()
	rec := models.RunRecord{
		RunID:      r.runID,
		StartedAt:  r.runStart,
		FinishedAt: time.Now().UTC(),
		State:      state,
		Samples:    r.runSamples,
		Message:    errMsg,
	}
	if errMsg != "" {
		r.lastMsg = "Error: " + errMsg
	} else {
		r.lastMsg = fmt.Sprintf("Done. Points=%d", len(r.buf))
	}
	r.mu.Unlock()

	if rec.RunID == "" {
		rec.RunID = uuid.NewString()
	}
	if err := r.runs.Append(ctx, rec); err != nil {
		r.log.Errorw("run_append_failed", "run_id", rec.RunID, "err", err)
	}

	evType := models.EventTypeStop
	desc := fmt.Sprintf("Acquisition finished: %d samples", rec.Samples)
	if errMsg != "" {
		evType = models.EventTypeError
		desc = errMsg
	}
	if err := r.events.Append(ctx, models.SessionEvent{Type: evType, Description: desc, Metadata: map[string]any{"run_id": rec.RunID, "samples": rec.Samples}}); err != nil {
		r.log.Errorw("event_append_failed", "type", evType, "err", err)
	}
}

// Snapshot returns a copy of the session buffer in append order.
func (r *RecorderService) Snapshot() []models.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Sample, len(r.buf))
	copy(out, r.buf)
	return out
}

// SamplesSince returns the samples appended after cursor and the new cursor,
// for incremental consumers like the websocket stream. A cursor beyond the
// buffer (after a clear) snaps back to the current length.
func (r *RecorderService) SamplesSince(cursor int) ([]models.Sample, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cursor < 0 || cursor > len(r.buf) {
		cursor = len(r.buf)
	}
	if cursor == len(r.buf) {
		return nil, cursor
	}
	out := make([]models.Sample, len(r.buf)-cursor)
	copy(out, r.buf[cursor:])
	return out, len(r.buf)
}

func (r *RecorderService) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}

func (r *RecorderService) LastMessage() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastMsg
}

// Clear empties the session buffer. Rejected while the engine is active.
func (r *RecorderService) Clear() error {
	if r.engine.State().Active() {
		return ErrBufferBusy
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf = nil
	r.lastMsg = "Cleared."
	return nil
}
