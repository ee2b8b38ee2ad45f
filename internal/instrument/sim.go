package instrument

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

const simIdentity = "KEITHLEY INSTRUMENTS INC.,MODEL 6514,0000000,SIM1.0"

// Sim is an in-process stand-in for the electrometer, used when no hardware
// is attached and by the test suites. It understands the SCPI subset the
// acquisition engine issues: configuration writes are accepted and
// TRIG:COUN / FORM:ELEM are tracked so :READ? answers with the right shape.
type Sim struct {
	mu        sync.Mutex
	trigCount int
	elements  string
	started   time.Time
	seq       int
	closed    bool

	// ReadingAt supplies the n-th simulated reading. Defaults to a slow
	// sine around 1 V.
	ReadingAt func(n int) float64
}

func NewSim() *Sim {
	return &Sim{
		trigCount: 1,
		elements:  "READ,TIME,STAT",
		started:   time.Now(),
		ReadingAt: func(n int) float64 {
			return 1.0 + 0.05*math.Sin(float64(n)/25.0)
		},
	}
}

// DialSim satisfies Dialer; address and timeout are ignored.
func DialSim(_ string, _ time.Duration) (Transport, error) {
	return NewSim(), nil
}

func (s *Sim) Write(cmd string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &TransportError{Op: "write", Cmd: cmd, Err: errClosed}
	}
	cmd = strings.TrimSpace(cmd)
	switch {
	case strings.HasPrefix(cmd, "TRIG:COUN "):
		if n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(cmd, "TRIG:COUN "))); err == nil && n >= 1 {
			s.trigCount = n
		}
	case strings.HasPrefix(cmd, "FORM:ELEM "):
		s.elements = strings.TrimSpace(strings.TrimPrefix(cmd, "FORM:ELEM "))
	}
	// Every other configuration command is accepted silently.
	return nil
}

func (s *Sim) Read() (string, error) {
	return "", &TransportError{Op: "read", Err: errNoPending}
}

func (s *Sim) Query(cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", &TransportError{Op: "query", Cmd: cmd, Err: errClosed}
	}
	switch strings.TrimSpace(cmd) {
	case "*IDN?":
		return simIdentity, nil
	case ":READ?":
		return s.readChunk(), nil
	default:
		return "", &TransportError{Op: "query", Cmd: cmd, Err: errUnknownQuery}
	}
}

func (s *Sim) readChunk() string {
	triples := strings.Contains(s.elements, "TIME")
	parts := make([]string, 0, 3*s.trigCount)
	for i := 0; i < s.trigCount; i++ {
		s.seq++
		parts = append(parts, strconv.FormatFloat(s.ReadingAt(s.seq), 'g', -1, 64))
		if triples {
			elapsed := time.Since(s.started).Seconds()
			parts = append(parts, strconv.FormatFloat(elapsed, 'g', -1, 64), "0")
		}
	}
	return strings.Join(parts, ",")
}

func (s *Sim) Clear() error { return nil }

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
