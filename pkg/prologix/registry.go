package prologix

import (
	"sort"
	"sync"
)

// Endpoint is one addressable device on the GPIB bus. Anything exposing an
// address and attach/detach hooks can be registered; the registry never
// depends on a concrete instrument type.
type Endpoint interface {
	Address() uint8
	Attach(c *Controller) error
	Detach()
}

// Registry maps a GPIB address to the single endpoint bound to it.
type Registry struct {
	mu        sync.Mutex
	endpoints map[uint8]Endpoint
}

func NewRegistry() *Registry {
	return &Registry{
		endpoints: make(map[uint8]Endpoint),
	}
}

func (r *Registry) Add(e Endpoint) error {
	addr := e.Address()
	if addr < MinAddress || addr > MaxAddress {
		return ErrAddressOutOfRange
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exist := r.endpoints[addr]; exist {
		return ErrAddressInUse
	}
	r.endpoints[addr] = e
	return nil
}

func (r *Registry) Remove(addr uint8) (Endpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, exist := r.endpoints[addr]
	if !exist {
		return nil, ErrInstrumentNotFound
	}
	delete(r.endpoints, addr)
	return e, nil
}

func (r *Registry) Get(addr uint8) (Endpoint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, exist := r.endpoints[addr]
	return e, exist
}

// Addresses returns the bound GPIB addresses in ascending order.
func (r *Registry) Addresses() []uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	addrs := make([]uint8, 0, len(r.endpoints))
	for addr := range r.endpoints {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.endpoints)
}
