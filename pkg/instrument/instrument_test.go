package instrument

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpibgateway/pkg/prologix"
	"gpibgateway/pkg/transport"
)

// newAttached builds a controller over a mock adapter whose handshake left
// address 9 active, then attaches an instrument at addr.
func newAttached(t *testing.T, addr uint8, opts ...Option) (*transport.MockTransport, *prologix.Controller, *Instrument) {
	t.Helper()
	mt := transport.NewMockTransport()
	mt.EnqueueResponse([]byte("1\n"))
	mt.EnqueueResponse([]byte("9\n"))
	mt.EnqueueResponse([]byte("Prologix GPIB USB version 3.4.5\n"))
	ctrl, err := prologix.NewController(mt)
	require.NoError(t, err)

	inst, err := New(addr, opts...)
	require.NoError(t, err)
	require.NoError(t, ctrl.AddInstrument(inst))
	require.True(t, inst.Attached())
	return mt, ctrl, inst
}

func TestIdentRecordsAddressedQuery(t *testing.T) {
	mt, ctrl, inst := newAttached(t, 12)
	require.NoError(t, ctrl.SetReadAfterWrite(true))
	mark := len(mt.Writes())

	mt.EnqueueResponse([]byte("Lab Corp. XJ324"))
	v, err := inst.Ask("ident")
	require.NoError(t, err)

	// no decoder on ident, the identification bytes come back untouched
	assert.Equal(t, []byte("Lab Corp. XJ324"), v)
	assert.Equal(t, []string{"++addr 12", "*IDN?"}, mt.Writes()[mark:])
}

func TestAskDecodesWithCustomQuery(t *testing.T) {
	mt, _, inst := newAttached(t, 12,
		WithQueries(NewQueryDescriptor("voltage", "MEAS:VOLT:DC?", 32, time.Second, DecodeFloat64)))
	mark := len(mt.Writes())

	mt.EnqueueResponse([]byte("+1.250E+0\n"))
	v, err := inst.Ask("voltage")
	require.NoError(t, err)
	assert.Equal(t, 1.25, v)
	assert.Equal(t, []string{"++addr 12", "MEAS:VOLT:DC?", "++read eoi"}, mt.Writes()[mark:])
}

func TestAskParseErrorKeepsRaw(t *testing.T) {
	mt, _, inst := newAttached(t, 12)

	mt.EnqueueResponse([]byte("garbage\n"))
	_, err := inst.Ask("statusByte")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "statusByte", parseErr.Operation)
	assert.Equal(t, []byte("garbage\n"), parseErr.Raw)
}

func TestExecStringArgsWriteLiteralCommand(t *testing.T) {
	mt, _, inst := newAttached(t, 12)
	mark := len(mt.Writes())

	require.NoError(t, inst.Exec("eventStatusEnable", "32"))
	assert.Equal(t, []string{"++addr 12", "*ESE 32"}, mt.Writes()[mark:])
}

func TestExecArityMismatchWritesNothing(t *testing.T) {
	mt, _, inst := newAttached(t, 12)
	mark := len(mt.Writes())

	err := inst.Exec("eventStatusEnable")
	var arityErr *ArityError
	require.ErrorAs(t, err, &arityErr)
	assert.Empty(t, mt.Writes()[mark:])
}

func TestAskUnknownOperationWritesNothing(t *testing.T) {
	mt, _, inst := newAttached(t, 12)
	mark := len(mt.Writes())

	_, err := inst.Ask("degauss")
	assert.ErrorIs(t, err, ErrUnknownOperation)
	assert.Empty(t, mt.Writes()[mark:])
}

func TestDetachedInstrumentRefusesIO(t *testing.T) {
	inst, err := New(5)
	require.NoError(t, err)
	assert.False(t, inst.Attached())

	assert.ErrorIs(t, inst.Write([]byte("*RST")), ErrNotAttached)
	_, err = inst.Ask("ident")
	assert.ErrorIs(t, err, ErrNotAttached)
}

func TestRemoveInstrumentStopsIO(t *testing.T) {
	_, ctrl, inst := newAttached(t, 12)
	require.NoError(t, ctrl.RemoveInstrument(12))
	assert.False(t, inst.Attached())
	assert.ErrorIs(t, inst.Exec("reset"), ErrNotAttached)
}

func TestNewRejectsOutOfRangeAddress(t *testing.T) {
	_, err := New(0)
	assert.ErrorIs(t, err, prologix.ErrAddressOutOfRange)
	_, err = New(31)
	assert.ErrorIs(t, err, prologix.ErrAddressOutOfRange)
}

func TestDuplicateAddressLeavesSecondDetached(t *testing.T) {
	_, ctrl, _ := newAttached(t, 12)

	second, err := New(12, WithName("usurper"))
	require.NoError(t, err)
	assert.ErrorIs(t, ctrl.AddInstrument(second), prologix.ErrAddressInUse)
	assert.False(t, second.Attached())
}
