package service

import (
	"context"
	"fmt"

	"electrometer_acquisition/internal/acquisition"
	"electrometer_acquisition/internal/logger"
	"electrometer_acquisition/internal/models"
	"electrometer_acquisition/internal/repository"
)

type AcquisitionService struct {
	engine   *acquisition.Engine
	recorder *RecorderService
	events   repository.EventRepo
	log      *logger.Logger
}

func NewAcquisitionService(engine *acquisition.Engine, recorder *RecorderService, events repository.EventRepo, log *logger.Logger) *AcquisitionService {
	return &AcquisitionService{engine: engine, recorder: recorder, events: events, log: log}
}

// Start snapshots the config and launches a run. Returns
// acquisition.ErrAlreadyRunning while a run is active and
// instrument.ErrNotConnected with no open session.
func (s *AcquisitionService) Start(ctx context.Context, cfg models.AcquisitionConfig) error {
	if err := s.engine.Start(cfg); err != nil {
		return err
	}
	s.recorder.BeginRun()

	desc := fmt.Sprintf("Acquisition started: duration=%gs chunk=%d nplc=%g", cfg.DurationS, cfg.ChunkSize, cfg.NPLC)
	if err := s.events.Append(ctx, models.SessionEvent{Type: models.EventTypeStart, Description: desc, Metadata: cfg}); err != nil {
		s.log.Errorw("event_append_failed", "type", models.EventTypeStart, "err", err)
	}
	s.log.Infow("acquisition_started", "duration_s", cfg.DurationS, "chunk", cfg.ChunkSize, "nplc", cfg.NPLC)
	return nil
}

// Stop requests a cooperative stop. A no-op when nothing is running.
func (s *AcquisitionService) Stop(ctx context.Context) error {
	if !s.engine.State().Active() {
		return nil
	}
	s.engine.Stop()

	if err := s.events.Append(ctx, models.SessionEvent{Type: models.EventTypeStop, Description: "Stop requested"}); err != nil {
		s.log.Errorw("event_append_failed", "type", models.EventTypeStop, "err", err)
	}
	s.log.Infow("acquisition_stop_requested")
	return nil
}

func (s *AcquisitionService) SetChunkSize(n int) error {
	return s.engine.SetChunkSize(n)
}

func (s *AcquisitionService) State() models.RunState {
	return s.engine.State()
}
