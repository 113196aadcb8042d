package scpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpibgateway/pkg/apis"
	"gpibgateway/pkg/runtime"
	v1 "gpibgateway/pkg/v1"
)

func scpiFixture() *v1.ScpiInstrument {
	return &v1.ScpiInstrument{
		InstrumentMeta: v1.InstrumentMeta{
			Name:      "dmm-bench-1",
			AdapterID: "adapter-1",
			Address:   12,
			Model:     v1.ModelScpi,
		},
		PollCycle:   10,
		PollQueries: []string{"voltage"},
		Commands: []*v1.Operation{
			{Name: "beep", Template: "SYST:BEEP"},
		},
		Queries: []*v1.QueryOperation{
			{Name: "voltage", Template: "MEAS:VOLT:DC?", ReadBytes: 32, TimeoutSeconds: 2, Decode: "float64"},
		},
	}
}

func TestCreateInstrument(t *testing.T) {
	m := &InstrumentManager{}
	created, err := m.CreateInstrument(scpiFixture())
	require.NoError(t, err)

	gi, ok := created.(*runtime.GpibInstrument)
	require.True(t, ok)
	assert.NotEmpty(t, gi.ID)
	assert.NotEmpty(t, gi.Version)
	assert.Equal(t, "dmm-bench-1", gi.Name)
	assert.Equal(t, "adapter-1", gi.AdapterID)
	assert.Equal(t, uint8(12), gi.Address)
	assert.Equal(t, runtime.StatusToString[runtime.Detached], gi.Status)
	assert.Equal(t, uint(10), gi.PollCycle)

	require.Len(t, gi.Commands, 1)
	assert.Equal(t, "beep", gi.Commands[0].Name)
	require.Len(t, gi.Queries, 1)
	assert.Equal(t, runtime.FLOAT64, gi.Queries[0].Decode)
	assert.Equal(t, uint(2), gi.Queries[0].TimeoutSeconds)
}

func TestCreateInstrumentWrongType(t *testing.T) {
	m := &InstrumentManager{}
	_, err := m.CreateInstrument(&wrongType{})
	assert.ErrorIs(t, err, ErrInstrumentType)
}

type wrongType struct{}

func (w *wrongType) GetModel() string { return "unknown" }

func TestUpdateValidationImmutableModel(t *testing.T) {
	m := &InstrumentManager{}
	created, err := m.CreateInstrument(scpiFixture())
	require.NoError(t, err)

	in := scpiFixture()
	in.Model = "other"
	assert.ErrorIs(t, m.UpdateValidation(in, created), apis.ErrImmutable)
	in.Model = v1.ModelScpi
	assert.NoError(t, m.UpdateValidation(in, created))
}

func TestUpdateInstrumentMergesOperations(t *testing.T) {
	m := &InstrumentManager{}
	created, err := m.CreateInstrument(scpiFixture())
	require.NoError(t, err)

	in := scpiFixture()
	in.Name = "dmm-bench-1b"
	// drop beep, change voltage template, add a new command and query
	in.Commands = []*v1.Operation{
		{Name: "display", Template: "DISP:TEXT %s"},
	}
	in.Queries = []*v1.QueryOperation{
		{Name: "voltage", Template: "MEAS:VOLT:AC?", ReadBytes: 64, TimeoutSeconds: 5, Decode: "float64"},
		{Name: "current", Template: "MEAS:CURR:DC?", Decode: "float64"},
	}

	updated, err := m.UpdateInstrument(created.GetID(), in, created)
	require.NoError(t, err)
	gi := updated.(*runtime.GpibInstrument)

	assert.Equal(t, "dmm-bench-1b", gi.Name)
	require.Len(t, gi.Commands, 1)
	assert.Equal(t, "display", gi.Commands[0].Name)

	require.Len(t, gi.Queries, 2)
	byName := map[string]*runtime.QueryOperationSpec{}
	for _, q := range gi.Queries {
		byName[q.Name] = q
	}
	require.Contains(t, byName, "voltage")
	assert.Equal(t, "MEAS:VOLT:AC?", byName["voltage"].Template)
	assert.Equal(t, 64, byName["voltage"].ReadBytes)
	require.Contains(t, byName, "current")
	assert.Equal(t, "MEAS:CURR:DC?", byName["current"].Template)
}
