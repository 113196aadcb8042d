package runtime

// OperationSpec declares one command table entry of a stored instrument.
type OperationSpec struct {
	Name     string `json:"name"`
	Template string `json:"template"`
}

// QueryOperationSpec declares one query table entry; zero ReadBytes and
// TimeoutSeconds take the dispatch defaults.
type QueryOperationSpec struct {
	Name           string     `json:"name"`
	Template       string     `json:"template"`
	ReadBytes      int        `json:"readBytes,omitempty"`
	TimeoutSeconds uint       `json:"timeoutSeconds,omitempty"`
	Decode         DecodeType `json:"decode"`
}

// GpibInstrument is the persisted description of one instrument endpoint.
type GpibInstrument struct {
	InstrumentMeta
	Topic       string                `json:"topic,omitempty"`
	PollCycle   uint                  `json:"pollCycle,omitempty"`
	PollQueries []string              `json:"pollQueries,omitempty"`
	Commands    []*OperationSpec      `json:"commands,omitempty"`
	Queries     []*QueryOperationSpec `json:"queries,omitempty"`
}

var _ Instrument = (*GpibInstrument)(nil)

func (g *GpibInstrument) DeepCopyObject() RunObject {
	out := &GpibInstrument{
		InstrumentMeta: g.InstrumentMeta,
		Topic:          g.Topic,
		PollCycle:      g.PollCycle,
	}
	if len(g.PollQueries) > 0 {
		out.PollQueries = append(make([]string, 0, len(g.PollQueries)), g.PollQueries...)
	}
	for _, c := range g.Commands {
		cc := *c
		out.Commands = append(out.Commands, &cc)
	}
	for _, q := range g.Queries {
		qq := *q
		out.Queries = append(out.Queries, &qq)
	}
	return out
}

// GpibAdapter is the persisted description of one Prologix-style bridge.
type GpibAdapter struct {
	AdapterMeta
	BaudRate       int      `json:"baudRate,omitempty"`
	Parity         Parity   `json:"parity,omitempty"`
	StopBits       StopBits `json:"stopBits,omitempty"`
	ReadAfterWrite bool     `json:"readAfterWrite,omitempty"`

	// Firmware is the version string reported by the adapter at connect
	// time, distinct from the resource ETag.
	Firmware string `json:"firmware,omitempty"`
}

var _ Adapter = (*GpibAdapter)(nil)

func (g *GpibAdapter) DeepCopyObject() RunObject {
	out := *g
	return &out
}
