package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpibgateway/pkg/instrument"
	"gpibgateway/pkg/prologix"
	"gpibgateway/pkg/runtime"
	"gpibgateway/pkg/transport"
)

func newPollTarget(t *testing.T, respond func(lastWrite string) ([]byte, error)) *instrument.Instrument {
	t.Helper()
	mt := transport.NewMockTransport()
	mt.Respond = func(lastWrite string) ([]byte, error) {
		switch lastWrite {
		case "++mode":
			return []byte("1\n"), nil
		case "++addr":
			return []byte("12\n"), nil
		case "++ver":
			return []byte("Prologix GPIB USB version 3.4.5\n"), nil
		}
		return respond(lastWrite)
	}
	ctrl, err := prologix.NewController(mt)
	require.NoError(t, err)
	require.NoError(t, ctrl.SetReadAfterWrite(true))

	inst, err := instrument.New(12)
	require.NoError(t, err)
	require.NoError(t, ctrl.AddInstrument(inst))
	return inst
}

func TestPollerRequiresQueries(t *testing.T) {
	stored := &runtime.GpibInstrument{}
	_, _, err := NewPoller(stored, nil)
	assert.ErrorIs(t, err, ErrEmptyPollQueries)
}

func TestPollerDeliversReadings(t *testing.T) {
	handle := newPollTarget(t, func(string) ([]byte, error) {
		return []byte("16\n"), nil
	})
	stored := &runtime.GpibInstrument{PollQueries: []string{"statusByte"}, PollCycle: 1}

	poller, resultCh, err := NewPoller(stored, handle)
	require.NoError(t, err)
	poller.Poll(context.TODO())

	select {
	case result := <-resultCh:
		require.Empty(t, result.Err)
		require.Len(t, result.Readings, 1)
		assert.Equal(t, "statusByte", result.Readings[0].Operation)
		assert.Equal(t, 16, result.Readings[0].Value)
	case <-time.After(3 * time.Second):
		t.Fatal("no poll result within deadline")
	}

	poller.Destroy(context.TODO())
	for range resultCh {
	}
	assert.Eventually(t, func() bool { return !poller.(*GpibPoller).Polling() },
		time.Second, 10*time.Millisecond)
}

func TestPollerCollectsQueryErrors(t *testing.T) {
	handle := newPollTarget(t, func(string) ([]byte, error) {
		return []byte("garbage\n"), nil
	})
	stored := &runtime.GpibInstrument{PollQueries: []string{"statusByte"}, PollCycle: 1}

	poller, resultCh, err := NewPoller(stored, handle)
	require.NoError(t, err)
	poller.Poll(context.TODO())

	select {
	case result := <-resultCh:
		assert.Empty(t, result.Readings)
		require.Len(t, result.Err, 1)
		var parseErr *instrument.ParseError
		assert.ErrorAs(t, result.Err[0], &parseErr)
	case <-time.After(3 * time.Second):
		t.Fatal("no poll result within deadline")
	}

	poller.Destroy(context.TODO())
	for range resultCh {
	}
}
