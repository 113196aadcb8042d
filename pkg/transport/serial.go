package transport

import (
	"bytes"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"go.uber.org/atomic"
	"k8s.io/klog/v2"

	"gpibgateway/pkg/runtime"
)

var stopBitsToStopBits = map[runtime.StopBits]serial.StopBits{
	runtime.OneStopBit:           serial.OneStopBit,
	runtime.OnePointFiveStopBits: serial.OnePointFiveStopBits,
	runtime.TwoStopBits:          serial.TwoStopBits,
}

var parityToParity = map[runtime.Parity]serial.Parity{
	runtime.NoParity:   serial.NoParity,
	runtime.OddParity:  serial.OddParity,
	runtime.EvenParity: serial.EvenParity,
}

type SerialOption func(*SerialTransport)

func WithBaudRate(baudRate int) SerialOption {
	return func(st *SerialTransport) { st.baudRate = baudRate }
}

func WithParity(parity runtime.Parity) SerialOption {
	return func(st *SerialTransport) { st.parity = parity }
}

func WithStopBits(stopBits runtime.StopBits) SerialOption {
	return func(st *SerialTransport) { st.stopBits = stopBits }
}

func WithTerminator(terminator byte) SerialOption {
	return func(st *SerialTransport) { st.terminator = terminator }
}

// SerialTransport is the Transport over a local serial device file.
type SerialTransport struct {
	port       serial.Port
	location   string
	baudRate   int
	parity     runtime.Parity
	stopBits   runtime.StopBits
	terminator byte
	closed     *atomic.Bool
}

var _ Transport = (*SerialTransport)(nil)

func OpenSerial(location string, opts ...SerialOption) (*SerialTransport, error) {
	st := &SerialTransport{
		location:   location,
		baudRate:   DefaultBaudRate,
		parity:     runtime.NoParity,
		stopBits:   runtime.OneStopBit,
		terminator: DefaultTerminator,
		closed:     atomic.NewBool(false),
	}
	for _, opt := range opts {
		opt(st)
	}

	mode := &serial.Mode{
		BaudRate: st.baudRate,
		DataBits: DefaultDataBits,
		Parity:   parityToParity[st.parity],
		StopBits: stopBitsToStopBits[st.stopBits],
	}
	port, err := serial.Open(location, mode)
	if err != nil {
		klog.V(2).InfoS("Failed to open serial port", "location", location, "err", err)
		return nil, errors.Wrapf(err, "open serial port %s", location)
	}
	st.port = port
	return st, nil
}

func (st *SerialTransport) Write(payload []byte) error {
	if st.closed.Load() {
		return ErrPortClosed
	}
	line := payload
	if len(line) == 0 || line[len(line)-1] != st.terminator {
		line = append(append(make([]byte, 0, len(payload)+1), payload...), st.terminator)
	}
	for len(line) > 0 {
		n, err := st.port.Write(line)
		if err != nil {
			klog.V(2).InfoS("Failed to write to serial port", "location", st.location, "err", err)
			return ErrBadConn
		}
		line = line[n:]
	}
	klog.V(5).InfoS("Succeed to write to serial port", "location", st.location, "bytes", payload)
	return nil
}

func (st *SerialTransport) Read(maxBytes int, timeout time.Duration) ([]byte, error) {
	if st.closed.Load() {
		return nil, ErrPortClosed
	}
	deadline := time.Now().Add(timeout)
	collected := make([]byte, 0, maxBytes)
	buf := make([]byte, maxBytes)

	for len(collected) < maxBytes {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		if err := st.port.SetReadTimeout(remaining); err != nil {
			klog.V(2).InfoS("Failed to set serial read timeout", "location", st.location, "err", err)
			return nil, ErrBadConn
		}
		n, err := st.port.Read(buf[:maxBytes-len(collected)])
		if err != nil {
			klog.V(2).InfoS("Failed to read from serial port", "location", st.location, "err", err)
			return nil, ErrBadConn
		}
		if n == 0 {
			// library signals an expired read timeout with a zero-length read
			break
		}
		collected = append(collected, buf[:n]...)
		if bytes.IndexByte(collected, st.terminator) >= 0 {
			break
		}
	}

	if len(collected) == 0 {
		return nil, ErrReadTimeout
	}
	klog.V(5).InfoS("Succeed to read from serial port", "location", st.location, "bytes", collected)
	return collected, nil
}

func (st *SerialTransport) Close() error {
	if !st.closed.CAS(false, true) {
		return nil
	}
	return st.port.Close()
}
