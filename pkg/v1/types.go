package v1

type InstrumentType interface {
	GetModel() string
}

type InstrumentMeta struct {
	PublishMeta
	Name      string `json:"name" binding:"required,min=1,max=64,excludesall=\u002F\u005C"`
	AdapterID string `json:"adapterId" binding:"required,min=1,max=64"`
	Address   uint8  `json:"address" binding:"required,gte=1,lte=30"`
	Model     string `json:"model" binding:"required,min=1,max=32,excludesall=\u002F\u005C"`
}

type PublishMeta struct {
	Topic string `json:"topic"`
}

func (m *InstrumentMeta) GetModel() string {
	return m.Model
}

type Operation struct {
	Name     string `json:"name" binding:"required,min=1,max=64"`
	Template string `json:"template" binding:"required,min=1,max=128"`
}

type QueryOperation struct {
	Name           string `json:"name" binding:"required,min=1,max=64"`
	Template       string `json:"template" binding:"required,min=1,max=128"`
	ReadBytes      int    `json:"readBytes,omitempty" binding:"gte=0,lte=4096"`
	TimeoutSeconds uint   `json:"timeoutSeconds,omitempty" binding:"lte=60"`
	Decode         string `json:"decode,omitempty" binding:"omitempty,oneof=raw string int float64 bool"`
}

// ScpiInstrument is a generic IEEE 488.2 endpoint; the named command and
// query tables extend the built-in common-command set.
type ScpiInstrument struct {
	InstrumentMeta
	PollCycle   uint              `json:"pollCycle,omitempty"`           // seconds between poll rounds
	PollQueries []string          `json:"pollQueries,omitempty"`         // query names collected each round
	Commands    []*Operation      `json:"commands,omitempty" binding:"dive"`
	Queries     []*QueryOperation `json:"queries,omitempty" binding:"dive"`
}

type Adapter struct {
	Name           string `json:"name" binding:"required,min=1,max=64,excludesall=\u002F\u005C"`
	Port           string `json:"port" binding:"required,min=1,max=128"`
	BaudRate       int    `json:"baudRate,omitempty" binding:"gte=0"`
	Parity         string `json:"parity,omitempty" binding:"omitempty,oneof=noParity oddParity evenParity"`
	StopBits       string `json:"stopBits,omitempty" binding:"omitempty,oneof=1 1.5 2"`
	ReadAfterWrite bool   `json:"readAfterWrite,omitempty"`
}

// Instruction is one operation delivery request against an instrument.
type Instruction struct {
	Operation string   `json:"operation" binding:"required,min=1,max=64"`
	Args      []string `json:"args,omitempty"`
}
