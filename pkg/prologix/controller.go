package prologix

import (
	"bytes"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"gpibgateway/pkg/transport"
)

// Controller multiplexes one Prologix-style adapter session across many
// registered instruments. The adapter keeps a single "currently addressed"
// GPIB target as session state, so every bus transaction must run as an
// atomic address-then-transact unit; the controller mutex is that critical
// section, shared by all instruments on the bus.
type Controller struct {
	mu        sync.Mutex
	transport transport.Transport
	registry  *Registry

	// addressed is the last address successfully sent to the adapter, or
	// addressNone when unknown. Guarded by mu.
	addressed int16

	mode    Mode
	version string
	auto    bool
}

// Connect opens the serial device and performs the startup handshake.
func Connect(port string, opts ...transport.SerialOption) (*Controller, error) {
	t, err := transport.OpenSerial(port, opts...)
	if err != nil {
		return nil, err
	}
	c, err := NewController(t)
	if err != nil {
		_ = t.Close()
		return nil, err
	}
	return c, nil
}

// NewController performs the startup handshake over an already opened
// transport: query operating mode, current address, and version string. A
// handshake query with no response within the bounded timeout fails with
// ErrConnect, the adapter is either unresponsive or not a Prologix bridge.
func NewController(t transport.Transport) (*Controller, error) {
	c := &Controller{
		transport: t,
		registry:  NewRegistry(),
		addressed: addressNone,
	}

	mode, err := c.QueryMode()
	if err != nil {
		return nil, errors.Wrap(ErrConnect, err.Error())
	}
	addr, err := c.QueryAddress()
	if err != nil {
		return nil, errors.Wrap(ErrConnect, err.Error())
	}
	version, err := c.QueryVersion()
	if err != nil {
		return nil, errors.Wrap(ErrConnect, err.Error())
	}
	klog.V(2).InfoS("Connected adapter", "mode", ModeToString[mode], "address", addr, "version", version)
	return c, nil
}

// Mode returns the cached operating mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Version returns the version string cached at connect time.
func (c *Controller) Version() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// ReadAfterWrite returns the cached ++auto flag.
func (c *Controller) ReadAfterWrite() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.auto
}

// CurrentAddress returns the cached addressed instrument, or false when the
// adapter target is unknown.
func (c *Controller) CurrentAddress() (uint8, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.addressed == addressNone {
		return 0, false
	}
	return uint8(c.addressed), true
}

// QueryMode asks the adapter for its operating mode and refreshes the cache.
func (c *Controller) QueryMode() (Mode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := c.queryAdapterLocked(cmdMode, modeReadBytes)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(string(bytes.TrimSpace(resp)))
	if err != nil {
		return 0, errors.Wrapf(err, "parse mode %q", resp)
	}
	c.mode = Mode(v)
	return c.mode, nil
}

// SetMode switches the adapter between device and controller roles. The
// cache is updated after a successful write only; adapters of this class do
// not echo mode changes, so no read-back happens.
func (c *Controller) SetMode(mode Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.transport.Write([]byte(fmt.Sprintf("%s %d", cmdMode, mode))); err != nil {
		return err
	}
	c.mode = mode
	return nil
}

// QueryAddress asks the adapter which GPIB address it currently targets and
// refreshes the cache.
func (c *Controller) QueryAddress() (uint8, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := c.queryAdapterLocked(cmdAddress, addressReadBytes)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(string(bytes.TrimSpace(resp)))
	if err != nil {
		return 0, errors.Wrapf(err, "parse address %q", resp)
	}
	c.addressed = int16(v)
	return uint8(v), nil
}

// QueryVersion asks the adapter for its version string and refreshes the
// cache.
func (c *Controller) QueryVersion() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := c.queryAdapterLocked(cmdVersion, versionReadBytes)
	if err != nil {
		return "", err
	}
	c.version = string(bytes.TrimSpace(resp))
	return c.version, nil
}

// QueryReadAfterWrite asks the adapter for the ++auto flag and refreshes the
// cache.
func (c *Controller) QueryReadAfterWrite() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := c.queryAdapterLocked(cmdAuto, modeReadBytes)
	if err != nil {
		return false, err
	}
	v, err := strconv.Atoi(string(bytes.TrimSpace(resp)))
	if err != nil {
		return false, errors.Wrapf(err, "parse auto %q", resp)
	}
	c.auto = v == 1
	return c.auto, nil
}

// SetReadAfterWrite sets the adapter ++auto flag.
func (c *Controller) SetReadAfterWrite(auto bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := 0
	if auto {
		v = 1
	}
	if err := c.transport.Write([]byte(fmt.Sprintf("%s %d", cmdAuto, v))); err != nil {
		return err
	}
	c.auto = auto
	return nil
}

// AddressInstrument makes addr the adapter's active GPIB target. Calling it
// twice in a row with the same address issues exactly one ++addr command.
func (c *Controller) AddressInstrument(addr uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addressLocked(addr)
}

// addressLocked is THE addressing protocol step. It must execute before
// every raw write/read performed on behalf of an instrument, with c.mu held
// across both so no other instrument's operation interleaves in between.
func (c *Controller) addressLocked(addr uint8) error {
	if c.addressed != addressNone && uint8(c.addressed) == addr {
		return nil
	}
	if err := c.transport.Write([]byte(fmt.Sprintf("%s %d", cmdAddress, addr))); err != nil {
		// The adapter may or may not have applied the address; force the
		// next transaction to re-address instead of trusting stale state.
		c.addressed = addressNone
		return err
	}
	c.addressed = int16(addr)
	return nil
}

// AddInstrument registers an endpoint and binds its back-reference.
func (c *Controller) AddInstrument(e Endpoint) error {
	if err := c.registry.Add(e); err != nil {
		return err
	}
	if err := e.Attach(c); err != nil {
		_, _ = c.registry.Remove(e.Address())
		return err
	}
	klog.V(3).InfoS("Registered instrument", "address", e.Address())
	return nil
}

// RemoveInstrument detaches the endpoint bound to addr.
func (c *Controller) RemoveInstrument(addr uint8) error {
	e, err := c.registry.Remove(addr)
	if err != nil {
		return err
	}
	e.Detach()
	klog.V(3).InfoS("Removed instrument", "address", addr)
	return nil
}

// Registry exposes the address book, read-mostly.
func (c *Controller) Registry() *Registry {
	return c.registry
}

// RawWrite addresses addr and relays payload to it. Together with RawRead
// it is the sole privileged bus entry point instruments may use.
func (c *Controller) RawWrite(addr uint8, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.addressLocked(addr); err != nil {
		return err
	}
	return c.transport.Write(payload)
}

// RawRead addresses addr, asks the adapter to read the instrument's output
// (++read eoi, required while read-after-write is off), and collects up to
// maxBytes within timeout. In-band adapter error strings surface as errors.
func (c *Controller) RawRead(addr uint8, maxBytes int, timeout time.Duration) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.addressLocked(addr); err != nil {
		return nil, err
	}
	if !c.auto {
		if err := c.transport.Write([]byte(cmdReadEOI)); err != nil {
			return nil, err
		}
	}
	resp, err := c.transport.Read(maxBytes, timeout)
	if err != nil {
		return nil, err
	}
	if err := adapterError(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Close tears the session down. Pending instrument operations fail with
// transport errors; a GPIB transaction cannot be aborted mid-flight, so
// closing the shared transport is the only cancellation this layer offers.
func (c *Controller) Close() error {
	return c.transport.Close()
}

// queryAdapterLocked round-trips one ++ control command. Adapter control
// responses come back directly, no ++read is involved.
func (c *Controller) queryAdapterLocked(cmd string, maxBytes int) ([]byte, error) {
	if err := c.transport.Write([]byte(cmd)); err != nil {
		return nil, err
	}
	resp, err := c.transport.Read(maxBytes, connectTimeout)
	if err != nil {
		return nil, err
	}
	if err := adapterError(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func adapterError(resp []byte) error {
	if err, ok := errorStrings[string(bytes.TrimSpace(resp))]; ok {
		return err
	}
	return nil
}
