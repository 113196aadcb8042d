package transport

import (
	"time"
)

// Transport owns one raw byte stream to a GPIB adapter. Write sends a single
// line-terminated payload synchronously. Read blocks until maxBytes are
// collected, a terminator is observed, or the timeout elapses, and returns
// whatever arrived; it fails with ErrReadTimeout only when zero bytes arrived
// within the deadline. A partial read is a success, callers decide whether it
// is enough.
type Transport interface {
	Write(payload []byte) error
	Read(maxBytes int, timeout time.Duration) ([]byte, error)
	Close() error
}
