package generic

import (
	"gpibgateway/pkg/runtime"
	v1 "gpibgateway/pkg/v1"
)

var InstrumentTypeMap = map[string]func() v1.InstrumentType{
	v1.ModelScpi: func() v1.InstrumentType { return &v1.ScpiInstrument{} },
}

var InstrumentTypeObjectMap = map[string]runtime.Object{
	v1.ModelScpi: &runtime.GpibInstrument{},
}

var AdapterTypeObjectMap = map[string]runtime.Object{
	v1.ModelPrologix: &runtime.GpibAdapter{},
}
