package instrument

import (
	"errors"
	"time"
)

var ErrNotAttached = errors.New("Instrument not attached to a controller\n")
var ErrUnknownOperation = errors.New("Operation not registered\n")

const (
	// DefaultQueryReadBytes is collected after a query unless the
	// descriptor says otherwise.
	DefaultQueryReadBytes = 100

	// DefaultQueryTimeout is the per-query read deadline unless the
	// descriptor says otherwise. Tune per instrument, not globally: a slow
	// instrument blocks the shared bus for the duration.
	DefaultQueryTimeout = 1 * time.Second
)
