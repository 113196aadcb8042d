package bus

import (
	"gpibgateway/pkg/runtime"
	v1 "gpibgateway/pkg/v1"
)

type InstrumentManager interface {
	CreateInstrument(instrumentType v1.InstrumentType) (runtime.Instrument, error)
	DeleteInstrument(instrument runtime.Instrument) (runtime.Instrument, error)
	UpdateValidation(instrumentType v1.InstrumentType, instrument runtime.Instrument) error
	UpdateInstrument(id string, instrumentType v1.InstrumentType, instrument runtime.Instrument) (runtime.Instrument, error)
}
