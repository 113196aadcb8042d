package instrument

import (
	"sync"
	"time"

	"gpibgateway/pkg/prologix"
)

// Instrument represents one physical device on the GPIB bus. It is
// constructed standalone and is meaningless for I/O until attached to a
// controller via Controller.AddInstrument; the back-reference is non-owning
// and cleared again on removal.
type Instrument struct {
	name    string
	address uint8

	mu   sync.RWMutex
	ctrl *prologix.Controller

	commands *CommandSet
	queries  *QuerySet
}

var _ prologix.Endpoint = (*Instrument)(nil)

type Option func(*Instrument)

func WithName(name string) Option {
	return func(i *Instrument) { i.name = name }
}

// WithCommands extends the built-in command table.
func WithCommands(ds ...Descriptor) Option {
	return func(i *Instrument) {
		i.commands = &CommandSet{newSet(append(builtinCommands(), ds...)...)}
	}
}

// WithQueries extends the built-in query table.
func WithQueries(ds ...Descriptor) Option {
	return func(i *Instrument) {
		i.queries = &QuerySet{newSet(append(builtinQueries(), ds...)...)}
	}
}

func New(address uint8, opts ...Option) (*Instrument, error) {
	if address < prologix.MinAddress || address > prologix.MaxAddress {
		return nil, prologix.ErrAddressOutOfRange
	}
	i := &Instrument{
		address:  address,
		commands: &CommandSet{newSet(builtinCommands()...)},
		queries:  &QuerySet{newSet(builtinQueries()...)},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

func (i *Instrument) Name() string {
	return i.name
}

// Address returns the immutable GPIB address.
func (i *Instrument) Address() uint8 {
	return i.address
}

// Attach binds the controller back-reference. Called by the controller on
// registration.
func (i *Instrument) Attach(c *prologix.Controller) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.ctrl = c
	return nil
}

// Detach clears the back-reference.
func (i *Instrument) Detach() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.ctrl = nil
}

func (i *Instrument) Attached() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.ctrl != nil
}

func (i *Instrument) controller() (*prologix.Controller, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.ctrl == nil {
		return nil, ErrNotAttached
	}
	return i.ctrl, nil
}

// Write relays a raw payload to this instrument through the controller's
// privileged entry point, which addresses the bus first.
func (i *Instrument) Write(payload []byte) error {
	c, err := i.controller()
	if err != nil {
		return err
	}
	return c.RawWrite(i.address, payload)
}

// Read collects up to maxBytes from this instrument; the bytes come back
// unparsed. Transport errors propagate unchanged, never retried here.
func (i *Instrument) Read(maxBytes int, timeout time.Duration) ([]byte, error) {
	c, err := i.controller()
	if err != nil {
		return nil, err
	}
	return c.RawRead(i.address, maxBytes, timeout)
}

// Commands is the command namespace.
func (i *Instrument) Commands() *CommandSet {
	return i.commands
}

// Queries is the query namespace.
func (i *Instrument) Queries() *QuerySet {
	return i.queries
}

// Exec resolves a named command, substitutes args, and writes the literal
// protocol string. Resolution failures issue no bus traffic.
func (i *Instrument) Exec(name string, args ...interface{}) error {
	payload, err := i.commands.Resolve(name, args...)
	if err != nil {
		return err
	}
	return i.Write([]byte(payload))
}

// Ask resolves a named query, writes it, and performs the timed read. A
// registered decoder yields a structured value; without one the raw bytes
// come back. Decode failure surfaces as *ParseError with the raw bytes kept.
func (i *Instrument) Ask(name string, args ...interface{}) (interface{}, error) {
	d, ok := i.queries.Lookup(name)
	if !ok {
		return nil, ErrUnknownOperation
	}
	payload, err := d.Render(args...)
	if err != nil {
		return nil, err
	}
	if err := i.Write([]byte(payload)); err != nil {
		return nil, err
	}
	raw, err := i.Read(d.ReadBytes, d.Timeout)
	if err != nil {
		return nil, err
	}
	if d.Decode == nil {
		return raw, nil
	}
	v, err := d.Decode(raw)
	if err != nil {
		return nil, &ParseError{Operation: name, Raw: raw, Err: err}
	}
	return v, nil
}

// Ident resolves the instrument's identification string.
func (i *Instrument) Ident() (string, error) {
	raw, err := i.Ask("ident")
	if err != nil {
		return "", err
	}
	v, _ := DecodeString(raw.([]byte))
	return v.(string), nil
}
