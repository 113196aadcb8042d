package bus

import (
	"context"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpibgateway/pkg/apis/response"
	"gpibgateway/pkg/gateway"
	"gpibgateway/pkg/instrument"
	"gpibgateway/pkg/runtime"
	v1 "gpibgateway/pkg/v1"
)

type stubToken struct {
	err error
}

func (t *stubToken) Wait() bool                     { return true }
func (t *stubToken) WaitTimeout(time.Duration) bool { return true }
func (t *stubToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *stubToken) Error() error { return t.err }

type stubMqttClient struct {
	publishErr   error
	topics       []string
	published    []string
	disconnected bool
}

func (c *stubMqttClient) IsConnected() bool       { return true }
func (c *stubMqttClient) IsConnectionOpen() bool  { return true }
func (c *stubMqttClient) Connect() mqtt.Token     { return &stubToken{} }
func (c *stubMqttClient) Disconnect(quiesce uint) { c.disconnected = true }
func (c *stubMqttClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.topics = append(c.topics, topic)
	c.published = append(c.published, string(payload.([]byte)))
	return &stubToken{err: c.publishErr}
}
func (c *stubMqttClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	return &stubToken{}
}
func (c *stubMqttClient) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	return &stubToken{}
}
func (c *stubMqttClient) Unsubscribe(topics ...string) mqtt.Token { return &stubToken{} }
func (c *stubMqttClient) AddRoute(topic string, callback mqtt.MessageHandler) {}
func (c *stubMqttClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

func pollingInstrument(id string) *runtime.GpibInstrument {
	return &runtime.GpibInstrument{InstrumentMeta: runtime.InstrumentMeta{
		ObjectMeta: runtime.ObjectMeta{Name: "dmm-1", ID: id},
		Status:     runtime.StatusToString[runtime.Polling],
	}}
}

func TestForwardResultKeepsPartialReadings(t *testing.T) {
	client := &stubMqttClient{}
	m := NewManager(nil, nil, client, &gateway.GatewayMeta{}, make(chan struct{}))
	gi := pollingInstrument("i1")

	m.forwardResult(gi, "data/gw/v1/i1", &runtime.PollResult{
		Readings: []runtime.Reading{{Operation: "voltage", Value: 1.25}},
		Err:      []error{errors.New("decode failed")},
	})

	require.Len(t, client.published, 1)
	assert.Equal(t, []string{"data/gw/v1/i1"}, client.topics)
	assert.Contains(t, client.published[0], `"dataPointId":"voltage"`)
	assert.Equal(t, runtime.StatusToString[runtime.Polling], gi.Status)
}

func TestForwardResultPublishFailure(t *testing.T) {
	client := &stubMqttClient{publishErr: errors.New("broker down")}
	m := NewManager(nil, nil, client, &gateway.GatewayMeta{}, make(chan struct{}))
	gi := pollingInstrument("i1")

	m.forwardResult(gi, "data/gw/v1/i1", &runtime.PollResult{
		Readings: []runtime.Reading{{Operation: "voltage", Value: 1.25}},
	})
	assert.Equal(t, runtime.StatusToString[runtime.PollingError], gi.Status)
}

func TestForwardResultEmptyRound(t *testing.T) {
	client := &stubMqttClient{}
	m := NewManager(nil, nil, client, &gateway.GatewayMeta{}, make(chan struct{}))
	gi := pollingInstrument("i1")

	m.forwardResult(gi, "data/gw/v1/i1", &runtime.PollResult{
		Err: []error{errors.New("read timeout")},
	})
	assert.Empty(t, client.published)
	assert.Equal(t, runtime.StatusToString[runtime.Polling], gi.Status)
}

func TestCounts(t *testing.T) {
	m := NewManager(nil, nil, &stubMqttClient{}, &gateway.GatewayMeta{}, make(chan struct{}))
	m.adapters.Store("a1", struct{}{})
	m.instruments.Store("i1", struct{}{})
	m.instruments.Store("i2", struct{}{})

	adapters, instruments := m.Counts()
	assert.Equal(t, 1, adapters)
	assert.Equal(t, 2, instruments)
}

func TestShutdownRunsClosersInReverse(t *testing.T) {
	client := &stubMqttClient{}
	var order []string
	closer := func(label string) runtime.LabeledCloser {
		return runtime.LabeledCloser{Label: label, Closer: func(context.Context) error {
			order = append(order, label)
			return nil
		}}
	}
	m := NewManager(nil, nil, client, &gateway.GatewayMeta{}, make(chan struct{}),
		WithCloser(closer("stores")), WithCloser(closer("statusCh")))

	require.NoError(t, m.Shutdown(context.TODO()))
	assert.True(t, client.disconnected)
	assert.Equal(t, []string{"statusCh", "stores"}, order)
}

type coder interface {
	GetCode() response.ErrCode
}

func deliveredCode(t *testing.T, err error) response.ErrCode {
	t.Helper()
	var multiErr *response.MultiError
	require.ErrorAs(t, err, &multiErr)
	require.Equal(t, 1, multiErr.Len())
	c, ok := multiErr.Errors()[0].(coder)
	require.True(t, ok)
	return c.GetCode()
}

func TestDeliverErrorMapping(t *testing.T) {
	id := "i1"

	code := deliveredCode(t, deliverError(instrument.ErrUnknownOperation, id, "degauss"))
	assert.Equal(t, response.ErrCodeOperationNotFound, code)

	arityErr := &instrument.ArityError{Operation: "eventStatusEnable", Want: 1, Got: 0}
	code = deliveredCode(t, deliverError(arityErr, id, "eventStatusEnable"))
	assert.Equal(t, response.ErrCodeOperationBadArgs, code)

	code = deliveredCode(t, deliverError(instrument.ErrNotAttached, id, "reset"))
	assert.Equal(t, response.ErrCodeInstrumentDetached, code)

	code = deliveredCode(t, deliverError(errors.New("serial port gone"), id, "reset"))
	assert.Equal(t, response.ErrCodeAdapterUnreachable, code)
}

func TestNewGpibAdapter(t *testing.T) {
	in := &v1.Adapter{
		Name:     "bench-bridge",
		Port:     "/dev/ttyUSB0",
		BaudRate: 9600,
		Parity:   "evenParity",
		StopBits: "2",
	}
	ga := newGpibAdapter(in)

	assert.NotEmpty(t, ga.ID)
	assert.NotEmpty(t, ga.Version)
	assert.Equal(t, "bench-bridge", ga.Name)
	assert.Equal(t, "/dev/ttyUSB0", ga.Port)
	assert.Equal(t, 9600, ga.BaudRate)
	assert.Equal(t, runtime.EvenParity, ga.Parity)
	assert.Equal(t, runtime.TwoStopBits, ga.StopBits)
	assert.Equal(t, runtime.StatusToString[runtime.Unreachable], ga.Status)
}

func TestInstrumentOptionsExtendOperationTables(t *testing.T) {
	gi := &runtime.GpibInstrument{
		InstrumentMeta: runtime.InstrumentMeta{
			ObjectMeta: runtime.ObjectMeta{Name: "dmm-1"},
			Address:    12,
		},
		Commands: []*runtime.OperationSpec{{Name: "beep", Template: "SYST:BEEP"}},
		Queries: []*runtime.QueryOperationSpec{
			{Name: "voltage", Template: "MEAS:VOLT:DC?", Decode: runtime.FLOAT64},
		},
	}

	handle, err := instrument.New(gi.Address, instrumentOptions(gi)...)
	require.NoError(t, err)
	assert.Equal(t, "dmm-1", handle.Name())

	// custom entries sit alongside the built-in common commands
	commands, queries := handle.Commands().ListAll(), handle.Queries().ListAll()
	assert.Contains(t, commands, "beep")
	assert.Contains(t, commands, "reset")
	assert.Contains(t, queries, "voltage")
	assert.Contains(t, queries, "ident")
}

func TestArgsOf(t *testing.T) {
	instruction := &v1.Instruction{Operation: "display", Args: []string{"HELLO", "2"}}
	assert.Equal(t, []interface{}{"HELLO", "2"}, argsOf(instruction))
	assert.Empty(t, argsOf(&v1.Instruction{Operation: "reset"}))
}

func TestFoldInstrument(t *testing.T) {
	m := &Manager{}
	gi := &runtime.GpibInstrument{
		InstrumentMeta: runtime.InstrumentMeta{
			ObjectMeta: runtime.ObjectMeta{Name: "dmm-1", ID: "i1", Version: "7"},
			AdapterID:  "ad1",
			Address:    12,
			Model:      v1.ModelScpi,
			Status:     runtime.StatusToString[runtime.Polling],
		},
		Topic:       "data/gw/v1/i1",
		PollQueries: []string{"voltage"},
	}

	folded := m.foldInstrument(gi)
	meta, ok := folded.(*runtime.InstrumentMeta)
	require.True(t, ok)
	assert.Equal(t, "i1", meta.ID)
	assert.Equal(t, "ad1", meta.AdapterID)
	assert.Equal(t, uint8(12), meta.Address)
	assert.Equal(t, runtime.StatusToString[runtime.Polling], meta.Status)
}
