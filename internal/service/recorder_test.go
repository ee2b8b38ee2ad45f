package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"electrometer_acquisition/internal/acquisition"
	"electrometer_acquisition/internal/instrument"
	"electrometer_acquisition/internal/logger"
	"electrometer_acquisition/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventRepo struct {
	mu     sync.Mutex
	events []models.SessionEvent
	err    error
}

func (f *fakeEventRepo) Append(_ context.Context, e models.SessionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

func (f *fakeEventRepo) List(context.Context, time.Time, time.Time, string) ([]models.SessionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.SessionEvent, len(f.events))
	copy(out, f.events)
	return out, nil
}

func (f *fakeEventRepo) all() []models.SessionEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.SessionEvent, len(f.events))
	copy(out, f.events)
	return out
}

type fakeRunRepo struct {
	mu   sync.Mutex
	runs []models.RunRecord
	err  error
}

func (f *fakeRunRepo) Append(_ context.Context, r models.RunRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.runs = append(f.runs, r)
	return nil
}

func (f *fakeRunRepo) List(context.Context) ([]models.RunRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.RunRecord, len(f.runs))
	copy(out, f.runs)
	return out, nil
}

func (f *fakeRunRepo) all() []models.RunRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.RunRecord, len(f.runs))
	copy(out, f.runs)
	return out
}

type recorderFixture struct {
	queue    *acquisition.Queue
	engine   *acquisition.Engine
	session  *instrument.Session
	events   *fakeEventRepo
	runs     *fakeRunRepo
	recorder *RecorderService
}

func newRecorderFixture(t *testing.T) *recorderFixture {
	t.Helper()
	log := logger.Get(logger.ErrorLevel)
	queue := acquisition.NewQueue()
	session := instrument.NewSession(instrument.DialSim, log)
	engine := acquisition.NewEngine(session, queue, log)
	events := &fakeEventRepo{}
	runs := &fakeRunRepo{}
	return &recorderFixture{
		queue:    queue,
		engine:   engine,
		session:  session,
		events:   events,
		runs:     runs,
		recorder: NewRecorderService(queue, engine, events, runs, log),
	}
}

func sample(reading float64) models.Event {
	return models.Event{Kind: models.EventData, Sample: models.Sample{Reading: reading}}
}

func TestRecorder_DrainAppendsDataInOrder(t *testing.T) {
	fx := newRecorderFixture(t)
	fx.recorder.BeginRun()

	for _, v := range []float64{1, 2, 3} {
		fx.queue.Push(sample(v))
	}
	fx.recorder.drain(context.Background())

	got := fx.recorder.Snapshot()
	require.Len(t, got, 3)
	for i, s := range got {
		assert.Equal(t, float64(i+1), s.Reading)
	}
	assert.Equal(t, 3, fx.recorder.Count())
}

func TestRecorder_DoneEventFinishesRun(t *testing.T) {
	fx := newRecorderFixture(t)
	fx.recorder.BeginRun()

	fx.queue.Push(sample(1))
	fx.queue.Push(sample(2))
	fx.queue.Push(models.Event{Kind: models.EventDone})
	fx.recorder.drain(context.Background())

	runs := fx.runs.all()
	require.Len(t, runs, 1)
	assert.Equal(t, "DONE", runs[0].State)
	assert.Equal(t, 2, runs[0].Samples)
	assert.NotEmpty(t, runs[0].RunID)
	assert.Empty(t, runs[0].Message)

	events := fx.events.all()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventTypeStop, events[0].Type)

	assert.Equal(t, "Done. Points=2", fx.recorder.LastMessage())
}

func TestRecorder_ErrorEventFinishesRun(t *testing.T) {
	fx := newRecorderFixture(t)
	fx.recorder.BeginRun()

	fx.queue.Push(sample(1))
	fx.queue.Push(models.Event{Kind: models.EventError, Message: "query timeout"})
	fx.recorder.drain(context.Background())

	runs := fx.runs.all()
	require.Len(t, runs, 1)
	assert.Equal(t, "ERROR", runs[0].State)
	assert.Equal(t, "query timeout", runs[0].Message)
	assert.Equal(t, 1, runs[0].Samples)

	events := fx.events.all()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventTypeError, events[0].Type)

	assert.Equal(t, "Error: query timeout", fx.recorder.LastMessage())
}

func TestRecorder_LogEventUpdatesLastMessage(t *testing.T) {
	fx := newRecorderFixture(t)
	fx.recorder.BeginRun()

	fx.queue.Push(models.Event{Kind: models.EventLog, Message: "unexpected response shape"})
	fx.recorder.drain(context.Background())

	assert.Equal(t, "unexpected response shape", fx.recorder.LastMessage())
	assert.Zero(t, fx.recorder.Count(), "diagnostics do not enter the buffer")
}

func TestRecorder_RepositoryFailuresAreSwallowed(t *testing.T) {
	fx := newRecorderFixture(t)
	fx.events.err = errors.New("db closed")
	fx.runs.err = errors.New("db closed")
	fx.recorder.BeginRun()

	fx.queue.Push(sample(1))
	fx.queue.Push(models.Event{Kind: models.EventDone})
	fx.recorder.drain(context.Background())

	// persistence failed, but the in-memory outcome is intact
	assert.Equal(t, 1, fx.recorder.Count())
	assert.Equal(t, "Done. Points=1", fx.recorder.LastMessage())
}

func TestRecorder_SamplesSinceCursor(t *testing.T) {
	fx := newRecorderFixture(t)
	fx.recorder.BeginRun()

	fx.queue.Push(sample(1))
	fx.queue.Push(sample(2))
	fx.recorder.drain(context.Background())

	got, cur := fx.recorder.SamplesSince(0)
	require.Len(t, got, 2)
	assert.Equal(t, 2, cur)

	got, cur = fx.recorder.SamplesSince(cur)
	assert.Nil(t, got)
	assert.Equal(t, 2, cur)

	fx.queue.Push(sample(3))
	fx.recorder.drain(context.Background())

	got, cur = fx.recorder.SamplesSince(cur)
	require.Len(t, got, 1)
	assert.Equal(t, 3.0, got[0].Reading)
	assert.Equal(t, 3, cur)

	// after a clear the stale cursor snaps back instead of panicking
	require.NoError(t, fx.recorder.Clear())
	got, cur = fx.recorder.SamplesSince(cur)
	assert.Nil(t, got)
	assert.Zero(t, cur)
}

func TestRecorder_ClearWhileIdle(t *testing.T) {
	fx := newRecorderFixture(t)
	fx.queue.Push(sample(1))
	fx.recorder.drain(context.Background())
	require.Equal(t, 1, fx.recorder.Count())

	require.NoError(t, fx.recorder.Clear())
	assert.Zero(t, fx.recorder.Count())
	assert.Equal(t, "Cleared.", fx.recorder.LastMessage())
}

func TestRecorder_ClearRejectedWhileRunning(t *testing.T) {
	fx := newRecorderFixture(t)
	_, err := fx.session.Open("sim", time.Second)
	require.NoError(t, err)

	cfg := models.DefaultConfig()
	cfg.DurationS = 60
	cfg.ChunkSize = 1
	require.NoError(t, fx.engine.Start(cfg))
	defer func() {
		fx.engine.Stop()
		fx.engine.Wait()
	}()

	assert.ErrorIs(t, fx.recorder.Clear(), ErrBufferBusy)
}

func TestRecorder_RunDrainsOnTicker(t *testing.T) {
	fx := newRecorderFixture(t)
	fx.recorder.BeginRun()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fx.recorder.Run(ctx, 2*time.Millisecond)

	fx.queue.Push(sample(1))
	require.Eventually(t, func() bool { return fx.recorder.Count() == 1 },
		time.Second, time.Millisecond)

	fx.queue.Push(models.Event{Kind: models.EventDone})
	require.Eventually(t, func() bool { return len(fx.runs.all()) == 1 },
		time.Second, time.Millisecond)
}
