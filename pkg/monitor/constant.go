package monitor

import "fmt"

var (
	ErrEmptyPollQueries = fmt.Errorf("Instrument has no poll queries\n")
)

const defaultPollCycle = 5
