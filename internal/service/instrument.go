package service

import (
	"context"
	"errors"
	"time"

	"electrometer_acquisition/internal/acquisition"
	"electrometer_acquisition/internal/instrument"
	"electrometer_acquisition/internal/logger"
	"electrometer_acquisition/internal/models"
	"electrometer_acquisition/internal/repository"
)

var (
	// ErrAlreadyConnected makes a repeated connect an informational no-op.
	ErrAlreadyConnected = errors.New("already connected")
	// ErrNoAddress means neither the request nor the config named an instrument.
	ErrNoAddress = errors.New("no instrument address configured")
)

const defaultConnectTimeout = 10 * time.Second

type InstrumentService struct {
	session *instrument.Session
	engine  *acquisition.Engine
	events  repository.EventRepo
	opts    Options
	log     *logger.Logger
}

func NewInstrumentService(session *instrument.Session, engine *acquisition.Engine, events repository.EventRepo, opts Options, log *logger.Logger) *InstrumentService {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	return &InstrumentService{session: session, engine: engine, events: events, opts: opts, log: log}
}

// Connect opens the session and returns the instrument identity string.
// An empty address falls back to the configured default.
func (s *InstrumentService) Connect(ctx context.Context, address string) (string, error) {
	if s.session.Connected() {
		_, idn, _ := s.session.Info()
		return idn, ErrAlreadyConnected
	}
	if address == "" {
		address = s.opts.DefaultAddress
	}
	if address == "" {
		return "", ErrNoAddress
	}

	idn, err := s.session.Open(address, s.opts.ConnectTimeout)
	if err != nil {
		return "", err
	}

	s.appendEvent(ctx, models.EventTypeConnect, "Connected to "+address, map[string]any{"identity": idn})
	s.log.Infow("instrument_connected", "address", address, "identity", idn)
	return idn, nil
}

// Disconnect stops a running acquisition, waits for the loop to release the
// bus, then closes the transport. Safe to call when not connected.
func (s *InstrumentService) Disconnect(ctx context.Context) error {
	if !s.session.Connected() {
		return nil
	}

	// Never close the transport under an in-flight query.
	s.engine.Stop()
	s.engine.Wait()
	s.session.Close()
	s.engine.Reset()

	s.appendEvent(ctx, models.EventTypeDisconnect, "Disconnected", nil)
	s.log.Infow("instrument_disconnected")
	return nil
}

func (s *InstrumentService) Info() models.ConnectionInfo {
	address, identity, connected := s.session.Info()
	return models.ConnectionInfo{Connected: connected, Address: address, Identity: identity}
}

// appendEvent persists a session event; failures are logged, not propagated.
func (s *InstrumentService) appendEvent(ctx context.Context, typ, desc string, meta any) {
	err := s.events.Append(ctx, models.SessionEvent{Type: typ, Description: desc, Metadata: meta})
	if err != nil && s.log != nil {
		s.log.Errorw("event_append_failed", "type", typ, "err", err)
	}
}
