package runtime

// ETagMaxInitialValue just a value, meaningless
const ETagMaxInitialValue int64 = 3294967296

type Status int8

const (
	Detached Status = iota
	Attached
	Polling
	PollingError
	Stopped
	Unreachable
)

var StatusToString = map[Status]string{
	Detached:     "detached",
	Attached:     "attached",
	Polling:      "polling",
	PollingError: "pollingError",
	Stopped:      "stopped",
	Unreachable:  "unreachable",
}

var StringToStatus = map[string]Status{
	"detached":     Detached,
	"attached":     Attached,
	"polling":      Polling,
	"pollingError": PollingError,
	"stopped":      Stopped,
	"unreachable":  Unreachable,
}

type StatusCh int8

const (
	Start StatusCh = iota
	Stop
	Restart
)

var StringToStatusCh = map[string]StatusCh{
	"start":   Start,
	"stop":    Stop,
	"restart": Restart,
}

// DecodeType names the structured value a query decoder yields.
type DecodeType int8

const (
	RAW DecodeType = iota
	STRING
	INT
	FLOAT64
	BOOL
)

var DecodeTypeToString = map[DecodeType]string{
	RAW:     "raw",
	STRING:  "string",
	INT:     "int",
	FLOAT64: "float64",
	BOOL:    "bool",
}

var StringToDecodeType = map[string]DecodeType{
	"raw":     RAW,
	"string":  STRING,
	"int":     INT,
	"float64": FLOAT64,
	"bool":    BOOL,
}

type StopBits int

const (
	// OneStopBit sets 1 stop bit (default)
	OneStopBit StopBits = iota
	// OnePointFiveStopBits sets 1.5 stop bits
	OnePointFiveStopBits
	// TwoStopBits sets 2 stop bits
	TwoStopBits
)

var StopBitsToString = map[StopBits]string{
	OneStopBit:           "1",
	OnePointFiveStopBits: "1.5",
	TwoStopBits:          "2",
}

var StringToStopBits = map[string]StopBits{
	"1":   OneStopBit,
	"1.5": OnePointFiveStopBits,
	"2":   TwoStopBits,
}

type Parity int

const (
	// NoParity disable parity control (default)
	NoParity Parity = iota
	// OddParity enable odd-parity check
	OddParity
	// EvenParity enable even-parity check
	EvenParity
)

var ParityToString = map[Parity]string{
	NoParity:   "noParity",
	OddParity:  "oddParity",
	EvenParity: "evenParity",
}

var StringToParity = map[string]Parity{
	"noParity":   NoParity,
	"oddParity":  OddParity,
	"evenParity": EvenParity,
}
