package acquisition

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"electrometer_acquisition/internal/instrument"
	"electrometer_acquisition/internal/logger"
	"electrometer_acquisition/internal/models"
)

var (
	// ErrAlreadyRunning is returned by Start while a run is active.
	ErrAlreadyRunning = errors.New("acquisition already running")
	// ErrInvalidChunk rejects chunk sizes below 1.
	ErrInvalidChunk = errors.New("chunk size must be >= 1")
)

// Engine drives the instrument through one acquisition run: the ordered
// configuration phase, the chunked read loop and the best-effort restore.
// It owns the run state; the consumer side only ever observes it.
type Engine struct {
	session *instrument.Session
	queue   *Queue
	log     *logger.Logger

	state atomic.Int32
	chunk atomic.Int64
	stop  atomic.Bool

	mu   sync.Mutex
	done chan struct{} // closed when the loop goroutine exits
}

func NewEngine(session *instrument.Session, queue *Queue, log *logger.Logger) *Engine {
	e := &Engine{session: session, queue: queue, log: log}
	e.chunk.Store(int64(models.DefaultConfig().ChunkSize))
	return e
}

func (e *Engine) State() models.RunState {
	return models.RunState(e.state.Load())
}

func (e *Engine) ChunkSize() int {
	return int(e.chunk.Load())
}

// SetChunkSize updates the live chunk size. The engine re-reads it at the
// top of every loop iteration, so a change takes effect on the next chunk.
// A stale read for one iteration is acceptable.
func (e *Engine) SetChunkSize(n int) error {
	if n < 1 {
		return ErrInvalidChunk
	}
	e.chunk.Store(int64(n))
	return nil
}

// Start validates the config and launches the run goroutine. Rejected while
// a run is active or with no instrument session connected. Restart from
// Done/Error is allowed.
func (e *Engine) Start(cfg models.AcquisitionConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.State().Active() {
		return ErrAlreadyRunning
	}
	if !e.session.Connected() {
		return instrument.ErrNotConnected
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.chunk.Store(int64(cfg.ChunkSize))
	e.stop.Store(false)
	e.state.Store(int32(models.StateRunning))
	e.done = make(chan struct{})
	go e.run(cfg, e.done)
	return nil
}

// Stop requests a cooperative stop. The flag is observed at the top of the
// next loop iteration; an in-flight query is never aborted. No-op when no
// run is active.
func (e *Engine) Stop() {
	if e.state.CompareAndSwap(int32(models.StateRunning), int32(models.StateStopping)) {
		e.stop.Store(true)
	}
}

// Wait blocks until the current run goroutine exits. Returns immediately if
// none was started.
func (e *Engine) Wait() {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Reset forces the state back to Idle after a disconnect. Must only be
// called once the loop has exited (see Wait).
func (e *Engine) Reset() {
	if !e.State().Active() {
		e.state.Store(int32(models.StateIdle))
	}
}

func (e *Engine) run(cfg models.AcquisitionConfig, done chan struct{}) {
	defer close(done)

	t0 := time.Now()
	err := e.configure(cfg)
	if err == nil {
		err = e.loop(cfg, t0)
	}

	// Restore the instrument even on failure, so the operator does not get
	// a dark display or a drifting reading on the front panel.
	e.restore(cfg)

	if err != nil {
		e.state.Store(int32(models.StateError))
		e.queue.Push(models.Event{Kind: models.EventError, Message: err.Error()})
		e.log.Errorw("acquisition_failed", "err", err)
		return
	}
	e.state.Store(int32(models.StateDone))
	e.queue.Push(models.Event{Kind: models.EventDone})
	e.log.Infow("acquisition_done", "elapsed_s", time.Since(t0).Seconds())
}

// configure applies the measurement setup in the documented order. Later
// commands depend on the mode selected by earlier ones, so the order is not
// negotiable. Any failure aborts the run before the loop begins.
func (e *Engine) configure(cfg models.AcquisitionConfig) error {
	if err := e.session.Write("*CLS"); err != nil {
		return err
	}
	if err := e.session.Write("SENS:FUNC 'VOLT'"); err != nil {
		return err
	}

	if cfg.Autorange {
		if err := e.session.Write("SENS:VOLT:RANG:AUTO ON"); err != nil {
			return err
		}
	} else {
		if err := e.session.Write(fmt.Sprintf("SENS:VOLT:RANG %g", cfg.FixedRangeV)); err != nil {
			return err
		}
	}

	if err := e.session.Write(fmt.Sprintf("SENS:VOLT:NPLC %g", cfg.NPLC)); err != nil {
		return err
	}

	for _, cmd := range []string{
		"TRIG:SOUR IMM",
		"TRIG:DEL 0",
		fmt.Sprintf("TRIG:COUN %d", cfg.ChunkSize),
		"FORM:DATA ASC",
		"FORM:ELEM READ,TIME,STAT",
	} {
		if err := e.session.Write(cmd); err != nil {
			return err
		}
	}

	if cfg.SuppressAveraging {
		if err := e.session.Write("AVER OFF"); err != nil {
			return err
		}
	}
	if cfg.SuppressAutozero {
		if err := e.session.Write("SYST:AZER OFF"); err != nil {
			return err
		}
	}
	if cfg.SuppressDisplay {
		if err := e.session.Write("DISP:ENAB OFF"); err != nil {
			return err
		}
	}

	if cfg.ZeroCorrect {
		// Zero-correct acquire sequence per the instrument manual. Must run
		// in exactly this order, never partially.
		for _, cmd := range []string{
			"SYST:ZCOR OFF",
			"SYST:ZCH ON",
			"INIT",
			"SYST:ZCOR:ACQ",
			"SYST:ZCH OFF",
			"SYST:ZCOR ON",
		} {
			if err := e.session.Write(cmd); err != nil {
				return err
			}
		}
	}

	return nil
}

// loop issues chunked triggered reads until the time budget is exhausted or
// a stop is observed. Parse failures are diagnostic only; transport
// failures end the run.
func (e *Engine) loop(cfg models.AcquisitionConfig, t0 time.Time) error {
	for time.Since(t0).Seconds() < cfg.DurationS && !e.stop.Load() {
		chunk := int(e.chunk.Load())
		if err := e.session.Write(fmt.Sprintf("TRIG:COUN %d", chunk)); err != nil {
			return err
		}

		resp, err := e.session.Query(":READ?")
		if err != nil {
			return err
		}

		rows, perr := parseResponse(resp, chunk)
		if perr != nil {
			e.queue.Push(models.Event{Kind: models.EventLog, Message: perr.Error()})
			continue
		}

		// One timestamp per chunk: the bus round trip dominates intra-chunk
		// timing resolution anyway.
		now := time.Since(t0).Seconds()
		for _, row := range rows {
			e.queue.Push(models.Event{Kind: models.EventData, Sample: models.Sample{
				PCTime:   now,
				Reading:  row.Reading,
				InstTime: row.InstTime,
				Status:   row.Status,
			}})
		}
	}
	return nil
}

// restore re-enables what the run suppressed. Each write is attempted
// independently; failures are logged and swallowed.
func (e *Engine) restore(cfg models.AcquisitionConfig) {
	if cfg.SuppressDisplay {
		if err := e.session.Write("DISP:ENAB ON"); err != nil {
			e.log.Warnw("restore_display_failed", "err", err)
		}
	}
	if cfg.SuppressAutozero {
		if err := e.session.Write("SYST:AZER ON"); err != nil {
			e.log.Warnw("restore_autozero_failed", "err", err)
		}
	}
}
