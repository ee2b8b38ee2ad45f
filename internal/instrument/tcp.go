package instrument

import (
	"bufio"
	"net"
	"strings"
	"time"
)

// Line termination for SCPI over a socket. LF is what the 6514 expects on
// GPIB-LAN gateways; switch to "\r\n" if a gateway requires it.
const lineTerminator = "\n"

// drainDeadline bounds how long Clear waits for stale bytes.
const drainDeadline = 50 * time.Millisecond

// TCPTransport talks SCPI over a raw TCP socket (e.g. a GPIB-LAN gateway or
// the instrument's own socket server), one line-terminated command or
// response at a time.
type TCPTransport struct {
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

// DialTCP opens a TCP transport to addr ("host:port") with the given
// response timeout.
func DialTCP(address string, timeout time.Duration) (Transport, error) {
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return nil, &ConnectError{Address: address, Err: err}
	}
	return &TCPTransport{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: timeout,
	}, nil
}

func (t *TCPTransport) Write(cmd string) error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.timeout)); err != nil {
		return &TransportError{Op: "write", Cmd: cmd, Err: err}
	}
	if _, err := t.conn.Write([]byte(cmd + lineTerminator)); err != nil {
		return &TransportError{Op: "write", Cmd: cmd, Err: err}
	}
	return nil
}

func (t *TCPTransport) Read() (string, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(t.timeout)); err != nil {
		return "", &TransportError{Op: "read", Err: err}
	}
	line, err := t.reader.ReadString('\n')
	if err != nil {
		return "", &TransportError{Op: "read", Err: err}
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (t *TCPTransport) Query(cmd string) (string, error) {
	if err := t.Write(cmd); err != nil {
		return "", err
	}
	return t.Read()
}

// Clear discards any pending input so the next query is not answered by a
// stale response. Timing out here is the expected outcome.
func (t *TCPTransport) Clear() error {
	if err := t.conn.SetReadDeadline(time.Now().Add(drainDeadline)); err != nil {
		return err
	}
	buf := make([]byte, 512)
	for {
		if _, err := t.conn.Read(buf); err != nil {
			break
		}
	}
	t.reader.Reset(t.conn)
	return nil
}

func (t *TCPTransport) Close() error {
	return t.conn.Close()
}
