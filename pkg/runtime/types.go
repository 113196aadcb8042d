package runtime

import (
	"context"
	"fmt"
	"time"
)

var (
	ErrNotObject = fmt.Errorf("object does not implement the Object interfaces")
)

type RunObject interface {
	DeepCopyObject() RunObject
}

type ObjectMetaAccessor interface {
	GetObjectMeta() Object
}

// Poller drives the periodic query cycle of one instrument.
type Poller interface {
	Poll(ctx context.Context)
	Destroy(ctx context.Context)
}

type LabeledCloser struct {
	Label  string
	Closer func(context.Context) error
}

type Object interface {
	GetName() string
	SetName(string)
	GetID() string
	SetID(string)
	GetVersion() string
	SetVersion(string)
	GetModTime() time.Time
	SetModTime(time.Time)
}

// Instrument is the stored description of one GPIB endpoint.
type Instrument interface {
	Object
	GetAdapterID() string
	SetAdapterID(string)
	GetAddress() uint8
	SetAddress(uint8)
	GetModel() string
	SetModel(string)
	GetStatus() string
	SetStatus(string)
}

// Adapter is the stored description of one Prologix-style bridge.
type Adapter interface {
	Object
	GetPort() string
	SetPort(string)
	GetStatus() string
	SetStatus(string)
}

type ResponseModel struct {
	Instruments interface{} `json:"instruments,omitempty"`
	Adapters    interface{} `json:"adapters,omitempty"`
}

type ObjectMeta struct {
	Name    string    `json:"name"`
	ID      string    `json:"id"`
	Version string    `json:"eTag"`
	ModTime time.Time `json:"modTime"`
}

type InstrumentMeta struct {
	ObjectMeta
	AdapterID string `json:"adapterId"`
	Address   uint8  `json:"address"`
	Model     string `json:"model"`
	Status    string `json:"status"`
}

type AdapterMeta struct {
	ObjectMeta
	Port   string `json:"port"`
	Status string `json:"status"`
}

// Reading is one decoded query result collected by a poll cycle.
type Reading struct {
	Operation string
	Value     interface{}
}

type PollResult struct {
	Readings []Reading
	Err      []error
}

type PublishData struct {
	Payload Payload `json:"payload"`
}

type Payload struct {
	Data []TimeSeriesData `json:"data"`
}

type TimeSeriesData struct {
	Timestamp string      `json:"timestamp"`
	Values    []PointData `json:"values"`
}

type PointData struct {
	DataPointId string      `json:"dataPointId"`
	Value       interface{} `json:"value"`
}
