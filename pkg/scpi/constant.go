package scpi

import "fmt"

var (
	ErrInstrumentType = fmt.Errorf("Instrument type not supported\n")
)
