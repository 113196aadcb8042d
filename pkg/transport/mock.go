package transport

import (
	"strings"
	"sync"
	"time"
)

// MockTransport records every written line and serves queued responses in
// FIFO order. It stands in for a Prologix adapter in tests.
type MockTransport struct {
	mu        sync.Mutex
	writes    []string
	responses [][]byte
	closed    bool

	// Respond, when set, overrides the queue: it is asked for the response
	// to the most recently written line.
	Respond func(lastWrite string) ([]byte, error)
}

var _ Transport = (*MockTransport)(nil)

func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

func (mt *MockTransport) Write(payload []byte) error {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.closed {
		return ErrPortClosed
	}
	mt.writes = append(mt.writes, strings.TrimRight(string(payload), "\n"))
	return nil
}

func (mt *MockTransport) Read(maxBytes int, timeout time.Duration) ([]byte, error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.closed {
		return nil, ErrPortClosed
	}
	if mt.Respond != nil {
		var last string
		if len(mt.writes) > 0 {
			last = mt.writes[len(mt.writes)-1]
		}
		return mt.Respond(last)
	}
	if len(mt.responses) == 0 {
		return nil, ErrReadTimeout
	}
	resp := mt.responses[0]
	mt.responses = mt.responses[1:]
	if len(resp) > maxBytes {
		resp = resp[:maxBytes]
	}
	return resp, nil
}

func (mt *MockTransport) Close() error {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.closed = true
	return nil
}

// EnqueueResponse queues bytes to be returned by the next unanswered Read.
func (mt *MockTransport) EnqueueResponse(resp []byte) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.responses = append(mt.responses, resp)
}

// Writes returns the log of written lines, terminators stripped.
func (mt *MockTransport) Writes() []string {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append(make([]string, 0, len(mt.writes)), mt.writes...)
}
