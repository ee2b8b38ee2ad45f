package service

import (
	"context"
	"time"

	"electrometer_acquisition/internal/acquisition"
	"electrometer_acquisition/internal/instrument"
	"electrometer_acquisition/internal/models"
)

type MonitoringService struct {
	session  *instrument.Session
	engine   *acquisition.Engine
	recorder *RecorderService
}

func NewMonitoringService(session *instrument.Session, engine *acquisition.Engine, recorder *RecorderService) *MonitoringService {
	return &MonitoringService{session: session, engine: engine, recorder: recorder}
}

// GetState assembles the monitoring snapshot from the session, the engine's
// atomic state and the recorder's buffer. Purely in-memory, never touches
// the bus.
func (s *MonitoringService) GetState(ctx context.Context) (models.AcquisitionState, error) {
	address, identity, connected := s.session.Info()
	return models.AcquisitionState{
		Connected:   connected,
		Address:     address,
		Identity:    identity,
		State:       s.engine.State(),
		ChunkSize:   s.engine.ChunkSize(),
		Samples:     s.recorder.Count(),
		LastMessage: s.recorder.LastMessage(),
		UpdatedAt:   time.Now().UTC(),
	}, nil
}
