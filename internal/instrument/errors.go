package instrument

import "errors"

var (
	errClosed       = errors.New("transport closed")
	errNoPending    = errors.New("no pending response")
	errUnknownQuery = errors.New("unknown query")
)
