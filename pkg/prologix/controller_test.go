package prologix

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpibgateway/pkg/transport"
)

const testVersion = "Prologix GPIB USB version 3.4.5"

// handshakeTransport answers the startup queries the way a real adapter
// does: controller mode, address 12, a fixed version string.
func handshakeTransport(t *testing.T) (*transport.MockTransport, *Controller) {
	t.Helper()
	mt := transport.NewMockTransport()
	mt.EnqueueResponse([]byte("1\n"))
	mt.EnqueueResponse([]byte("12\n"))
	mt.EnqueueResponse([]byte(testVersion + "\n"))
	c, err := NewController(mt)
	require.NoError(t, err)
	return mt, c
}

func TestHandshake(t *testing.T) {
	mt, c := handshakeTransport(t)

	assert.Equal(t, ModeController, c.Mode())
	assert.Equal(t, testVersion, c.Version())
	addr, ok := c.CurrentAddress()
	assert.True(t, ok)
	assert.Equal(t, uint8(12), addr)
	assert.Equal(t, []string{"++mode", "++addr", "++ver"}, mt.Writes())
}

func TestHandshakeUnresponsiveAdapter(t *testing.T) {
	mt := transport.NewMockTransport()
	// empty queue, every read times out
	_, err := NewController(mt)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnect)
}

func TestAddressCaching(t *testing.T) {
	mt, c := handshakeTransport(t)
	handshakeLen := len(mt.Writes())

	// 12 is already addressed after the handshake
	require.NoError(t, c.RawWrite(12, []byte("*CLS")))
	assert.Equal(t, []string{"*CLS"}, mt.Writes()[handshakeLen:])

	// switching targets issues exactly one ++addr
	require.NoError(t, c.RawWrite(5, []byte("*RST")))
	require.NoError(t, c.RawWrite(5, []byte("*WAI")))
	assert.Equal(t, []string{"*CLS", "++addr 5", "*RST", "*WAI"}, mt.Writes()[handshakeLen:])
}

func TestRawReadIssuesReadEOI(t *testing.T) {
	mt, c := handshakeTransport(t)
	handshakeLen := len(mt.Writes())

	mt.EnqueueResponse([]byte("Lab Corp. XJ324\n"))
	resp, err := c.RawRead(12, 100, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Lab Corp. XJ324\n", string(resp))
	assert.Equal(t, []string{"++read eoi"}, mt.Writes()[handshakeLen:])
}

func TestRawReadSkipsReadEOIWhenAuto(t *testing.T) {
	mt, c := handshakeTransport(t)
	require.NoError(t, c.SetReadAfterWrite(true))
	handshakeLen := len(mt.Writes())

	mt.EnqueueResponse([]byte("+1.234E+0\n"))
	_, err := c.RawRead(12, 100, time.Second)
	require.NoError(t, err)
	assert.Empty(t, mt.Writes()[handshakeLen:])
}

func TestRawReadSurfacesFirmwareError(t *testing.T) {
	mt, c := handshakeTransport(t)

	mt.EnqueueResponse([]byte("Unrecognized Command\n"))
	_, err := c.RawRead(12, 100, time.Second)
	assert.ErrorIs(t, err, ErrUnrecognizedCommand)
}

// failingTransport fails writes on demand while delegating everything else.
type failingTransport struct {
	*transport.MockTransport
	failWrites bool
}

func (ft *failingTransport) Write(payload []byte) error {
	if ft.failWrites {
		return ErrNotConnected
	}
	return ft.MockTransport.Write(payload)
}

func TestFailedAddressingInvalidatesCache(t *testing.T) {
	mt := transport.NewMockTransport()
	mt.EnqueueResponse([]byte("1\n"))
	mt.EnqueueResponse([]byte("12\n"))
	mt.EnqueueResponse([]byte(testVersion + "\n"))
	ft := &failingTransport{MockTransport: mt}
	c, err := NewController(ft)
	require.NoError(t, err)

	ft.failWrites = true
	require.Error(t, c.RawWrite(5, []byte("*RST")))
	_, ok := c.CurrentAddress()
	assert.False(t, ok)

	// recovery must re-address even the previously cached target
	ft.failWrites = false
	handshakeLen := len(mt.Writes())
	require.NoError(t, c.RawWrite(12, []byte("*CLS")))
	assert.Equal(t, []string{"++addr 12", "*CLS"}, mt.Writes()[handshakeLen:])
}

type testEndpoint struct {
	addr     uint8
	attached bool
}

func (e *testEndpoint) Address() uint8             { return e.addr }
func (e *testEndpoint) Attach(c *Controller) error { e.attached = true; return nil }
func (e *testEndpoint) Detach()                    { e.attached = false }

func TestDuplicateAddressRejected(t *testing.T) {
	_, c := handshakeTransport(t)

	first := &testEndpoint{addr: 7}
	require.NoError(t, c.AddInstrument(first))
	assert.True(t, first.attached)

	second := &testEndpoint{addr: 7}
	err := c.AddInstrument(second)
	assert.ErrorIs(t, err, ErrAddressInUse)
	assert.False(t, second.attached)
	assert.Equal(t, 1, c.Registry().Len())
}

func TestRemoveInstrumentDetaches(t *testing.T) {
	_, c := handshakeTransport(t)

	e := &testEndpoint{addr: 7}
	require.NoError(t, c.AddInstrument(e))
	require.NoError(t, c.RemoveInstrument(7))
	assert.False(t, e.attached)

	assert.ErrorIs(t, c.RemoveInstrument(7), ErrInstrumentNotFound)
}

func TestRegistryAddressBounds(t *testing.T) {
	r := NewRegistry()
	assert.ErrorIs(t, r.Add(&testEndpoint{addr: 0}), ErrAddressOutOfRange)
	assert.ErrorIs(t, r.Add(&testEndpoint{addr: 31}), ErrAddressOutOfRange)
	require.NoError(t, r.Add(&testEndpoint{addr: 30}))
	require.NoError(t, r.Add(&testEndpoint{addr: 1}))
	assert.Equal(t, []uint8{1, 30}, r.Addresses())
}

// TestConcurrentTransactionsNeverInterleave drives two instruments through
// the shared session from separate goroutines and then replays the write
// log: every query must execute while its own address is the active one.
func TestConcurrentTransactionsNeverInterleave(t *testing.T) {
	mt := transport.NewMockTransport()
	mt.Respond = func(lastWrite string) ([]byte, error) {
		switch lastWrite {
		case "++mode":
			return []byte("1\n"), nil
		case "++addr":
			return []byte("12\n"), nil
		case "++ver":
			return []byte(testVersion + "\n"), nil
		default:
			return []byte("0\n"), nil
		}
	}
	c, err := NewController(mt)
	require.NoError(t, err)

	const rounds = 50
	var wg sync.WaitGroup
	for _, addr := range []uint8{5, 12} {
		wg.Add(1)
		go func(addr uint8) {
			defer wg.Done()
			query := fmt.Sprintf("MEAS%d?", addr)
			for n := 0; n < rounds; n++ {
				if err := c.RawWrite(addr, []byte(query)); err != nil {
					t.Error(err)
					return
				}
				if _, err := c.RawRead(addr, 16, time.Second); err != nil {
					t.Error(err)
					return
				}
			}
		}(addr)
	}
	wg.Wait()

	active := 12 // addressed by the handshake
	for i, w := range mt.Writes()[3:] {
		switch {
		case strings.HasPrefix(w, "++addr "):
			active, err = strconv.Atoi(strings.TrimPrefix(w, "++addr "))
			require.NoError(t, err)
		case strings.HasPrefix(w, "MEAS"):
			want := fmt.Sprintf("MEAS%d?", active)
			assert.Equal(t, want, w, "write %d ran under foreign address", i)
		}
	}
}
