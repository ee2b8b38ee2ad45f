package instrument

import (
	"errors"
	"fmt"
	"time"
)

// Transport is a bidirectional command channel to one instrument. Write and
// Query append line termination; Read strips it. Implementations must honor
// the timeout they were dialed with and return a TransportError on I/O
// failure or timeout.
type Transport interface {
	Write(cmd string) error
	Read() (string, error)
	Query(cmd string) (string, error)
	Clear() error
	Close() error
}

// Dialer opens a Transport to the instrument at the given address.
type Dialer func(address string, timeout time.Duration) (Transport, error)

// ErrNotConnected is returned when a bus operation is attempted with no open
// session. This is a usage error surfaced to the caller, not a bus fault.
var ErrNotConnected = errors.New("instrument not connected")

// ConnectError means the transport could not be opened or the instrument
// failed to identify itself. Fatal to the connect attempt only.
type ConnectError struct {
	Address string
	Err     error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Address, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// TransportError means a write/read/query failed on an open session. During
// a run this is fatal to the run but not to the process.
type TransportError struct {
	Op  string // "write", "read" or "query"
	Cmd string
	Err error
}

func (e *TransportError) Error() string {
	if e.Cmd != "" {
		return fmt.Sprintf("%s %q: %v", e.Op, e.Cmd, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
