package service

import (
	"context"
	"time"

	"electrometer_acquisition/internal/acquisition"
	"electrometer_acquisition/internal/instrument"
	"electrometer_acquisition/internal/logger"
	"electrometer_acquisition/internal/models"
	"electrometer_acquisition/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Instrument exposes session lifecycle: connect/disconnect and link info.
type Instrument interface {
	Connect(ctx context.Context, address string) (string, error)
	Disconnect(ctx context.Context) error
	Info() models.ConnectionInfo
}

// Acquisition exposes run control: start/stop and the live chunk size.
type Acquisition interface {
	Start(ctx context.Context, cfg models.AcquisitionConfig) error
	Stop(ctx context.Context) error
	SetChunkSize(n int) error
	State() models.RunState
}

// Recorder is the consumer side of the event queue: it drains on a fixed
// cadence, owns the session buffer, and records run outcomes.
// Stop via context cancellation in main() for graceful shutdown.
type Recorder interface {
	Run(ctx context.Context, tick time.Duration)
	Snapshot() []models.Sample
	SamplesSince(cursor int) ([]models.Sample, int)
	Count() int
	LastMessage() string
	Clear() error
}

// Monitoring exposes the read-only acquisition state snapshot.
type Monitoring interface {
	GetState(ctx context.Context) (models.AcquisitionState, error)
}

// EventLog exposes the persisted session events and run summaries.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.SessionEvent, error)
	ListRuns(ctx context.Context) ([]models.RunRecord, error)
}

// Export serializes the session buffer to a file and returns the path.
type Export interface {
	Export(ctx context.Context, format, path string) (string, error)
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "CONNECT", "DISCONNECT", "START", "STOP", "ERROR", "EXPORT"
}

// Options carry instrument defaults from configuration.
type Options struct {
	DefaultAddress string
	ConnectTimeout time.Duration
}

//
// Root Service aggregates all sub-services.
//

type Service struct {
	Instrument
	Acquisition
	Recorder
	Monitoring
	EventLog
	Export
	Authorization
}

// NewService wires the instrument session, the engine/queue pair and the
// repository layer into concrete services.
func NewService(repos *repository.Repository, session *instrument.Session, opts Options, log *logger.Logger) *Service {
	queue := acquisition.NewQueue()
	engine := acquisition.NewEngine(session, queue, log)
	recorder := NewRecorderService(queue, engine, repos.Events, repos.Runs, log)

	return &Service{
		Instrument:    NewInstrumentService(session, engine, repos.Events, opts, log),
		Acquisition:   NewAcquisitionService(engine, recorder, repos.Events, log),
		Recorder:      recorder,
		Monitoring:    NewMonitoringService(session, engine, recorder),
		EventLog:      NewEventLogService(repos.Events, repos.Runs),
		Export:        NewExportService(recorder, repos.Events, log),
		Authorization: NewAuthService(repos.Auth),
	}
}
