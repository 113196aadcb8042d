package monitor

import (
	"context"
	"time"

	"go.uber.org/atomic"
	"k8s.io/klog/v2"

	"gpibgateway/pkg/instrument"
	"gpibgateway/pkg/runtime"
)

var _ runtime.Poller = (*GpibPoller)(nil)

// GpibPoller walks an instrument's poll queries once per cycle and hands
// the decoded readings back on ResultCh.
type GpibPoller struct {
	ExitCh   chan struct{}
	ResultCh chan *runtime.PollResult
	handle   *instrument.Instrument
	queries  []string
	cycle    time.Duration
	polling  *atomic.Bool
}

func NewPoller(stored *runtime.GpibInstrument, handle *instrument.Instrument) (runtime.Poller, chan *runtime.PollResult, error) {
	if len(stored.PollQueries) == 0 {
		return nil, nil, ErrEmptyPollQueries
	}

	cycle := stored.PollCycle
	if cycle == 0 {
		cycle = defaultPollCycle
	}

	p := &GpibPoller{
		ExitCh:   make(chan struct{}),
		ResultCh: make(chan *runtime.PollResult, 1),
		handle:   handle,
		queries:  append(make([]string, 0, len(stored.PollQueries)), stored.PollQueries...),
		cycle:    time.Duration(cycle) * time.Second,
		polling:  atomic.NewBool(false),
	}
	return p, p.ResultCh, nil
}

func (p *GpibPoller) Poll(ctx context.Context) {
	p.polling.Store(true)
	go func() {
		for {
			start := time.Now()
			if !p.round(ctx) {
				p.polling.Store(false)
				return
			}
			if elapsed := time.Since(start); elapsed < p.cycle {
				time.Sleep(p.cycle - elapsed)
			}
		}
	}()
}

func (p *GpibPoller) Destroy(ctx context.Context) {
	p.ExitCh <- struct{}{}
	close(p.ResultCh)
}

func (p *GpibPoller) Polling() bool {
	return p.polling.Load()
}

func (p *GpibPoller) round(ctx context.Context) bool {
	select {
	case <-p.ExitCh:
		return false
	default:
		readings := make([]runtime.Reading, 0, len(p.queries))
		var errs []error
		for _, name := range p.queries {
			value, err := p.handle.Ask(name)
			if err != nil {
				klog.V(3).InfoS("Failed to poll query", "instrument", p.handle.Name(), "operation", name, "err", err)
				errs = append(errs, err)
				continue
			}
			readings = append(readings, runtime.Reading{Operation: name, Value: value})
		}
		p.ResultCh <- &runtime.PollResult{Readings: readings, Err: errs}
		return true
	}
}
