package instrument

import (
	"strings"
	"sync"
	"time"

	"electrometer_acquisition/internal/logger"
)

// Session owns the transport handle to one instrument and translates
// acquisition intents into bus commands. All bus failures surface as
// ConnectError/TransportError; teardown failures are swallowed because a
// closing session is being discarded regardless.
type Session struct {
	mu       sync.Mutex
	dial     Dialer
	tr       Transport
	address  string
	identity string
	log      *logger.Logger
}

func NewSession(dial Dialer, log *logger.Logger) *Session {
	return &Session{dial: dial, log: log}
}

// Open closes any prior session, opens the transport, flushes stale input
// and queries the identification string.
func (s *Session) Open(address string, timeout time.Duration) (string, error) {
	s.Close()

	tr, err := s.dial(address, timeout)
	if err != nil {
		return "", err
	}

	// Best-effort drain of anything left over from a previous client.
	_ = tr.Clear()

	idn, err := tr.Query("*IDN?")
	if err != nil {
		_ = tr.Close()
		return "", &ConnectError{Address: address, Err: err}
	}
	idn = strings.TrimSpace(idn)

	s.mu.Lock()
	s.tr = tr
	s.address = address
	s.identity = idn
	s.mu.Unlock()

	return idn, nil
}

// Close flushes and closes the transport. Never fails and is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	tr := s.tr
	s.tr = nil
	s.address = ""
	s.identity = ""
	s.mu.Unlock()

	if tr == nil {
		return
	}
	if err := tr.Clear(); err != nil && s.log != nil {
		s.log.Debugw("session_flush_on_close_failed", "err", err)
	}
	if err := tr.Close(); err != nil && s.log != nil {
		s.log.Debugw("session_close_failed", "err", err)
	}
}

// Connected reports whether a transport is currently open.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tr != nil
}

// Info returns the current connection snapshot.
func (s *Session) Info() (address, identity string, connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.address, s.identity, s.tr != nil
}

// transport fetches the handle without holding the lock across bus I/O, so
// Connected/Info stay responsive while a query is in flight.
func (s *Session) transport() (Transport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tr == nil {
		return nil, ErrNotConnected
	}
	return s.tr, nil
}

func (s *Session) Write(cmd string) error {
	tr, err := s.transport()
	if err != nil {
		return err
	}
	return tr.Write(cmd)
}

func (s *Session) Query(cmd string) (string, error) {
	tr, err := s.transport()
	if err != nil {
		return "", err
	}
	return tr.Query(cmd)
}

// Flush clears pending input. Failures are diagnostic, not fatal.
func (s *Session) Flush() {
	tr, err := s.transport()
	if err != nil {
		return
	}
	if err := tr.Clear(); err != nil && s.log != nil {
		s.log.Debugw("session_flush_failed", "err", err)
	}
}
