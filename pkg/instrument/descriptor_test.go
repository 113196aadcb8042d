package instrument

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	d := NewDescriptor("eventStatusEnable", "*ESE %d")
	assert.Equal(t, 1, d.Arity())

	s, err := d.Render(32)
	require.NoError(t, err)
	assert.Equal(t, "*ESE 32", s)
}

func TestRenderStringArgs(t *testing.T) {
	// operation delivery hands every argument over as a string
	d := NewDescriptor("eventStatusEnable", "*ESE %d")
	s, err := d.Render("32")
	require.NoError(t, err)
	assert.Equal(t, "*ESE 32", s)

	d = NewDescriptor("window", "CALC:LIM %d,%g")
	s, err = d.Render("2", "1.5")
	require.NoError(t, err)
	assert.Equal(t, "CALC:LIM 2,1.5", s)

	d = NewDescriptor("threshold", "THR %d%%")
	s, err = d.Render("40")
	require.NoError(t, err)
	assert.Equal(t, "THR 40%", s)
}

func TestRenderArityMismatch(t *testing.T) {
	d := NewDescriptor("eventStatusEnable", "*ESE %d")

	_, err := d.Render()
	var arityErr *ArityError
	require.ErrorAs(t, err, &arityErr)
	assert.Equal(t, 1, arityErr.Want)
	assert.Equal(t, 0, arityErr.Got)

	_, err = d.Render(1, 2)
	require.ErrorAs(t, err, &arityErr)
	assert.Equal(t, 2, arityErr.Got)
}

func TestCountPlaceholders(t *testing.T) {
	assert.Equal(t, 0, NewDescriptor("reset", "*RST").Arity())
	assert.Equal(t, 2, NewDescriptor("window", "CALC:LIM %d,%g").Arity())
	// literal percent signs are not arguments
	assert.Equal(t, 1, NewDescriptor("threshold", "THR %d%%").Arity())
}

func TestQueryDescriptorDefaults(t *testing.T) {
	d := NewQueryDescriptor("measure", "MEAS?", 0, 0, nil)
	assert.Equal(t, DefaultQueryReadBytes, d.ReadBytes)
	assert.Equal(t, DefaultQueryTimeout, d.Timeout)

	d = NewQueryDescriptor("measure", "MEAS?", 16, 5*time.Second, DecodeFloat64)
	assert.Equal(t, 16, d.ReadBytes)
	assert.Equal(t, 5*time.Second, d.Timeout)
}

func TestSetResolveUnknown(t *testing.T) {
	s := newSet(builtinCommands()...)
	_, err := s.Resolve("degauss")
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestSetFirstRegistrationWins(t *testing.T) {
	s := newSet(append(builtinQueries(), NewQueryDescriptor("ident", "CUSTOM?", 0, 0, nil))...)
	d, ok := s.Lookup("ident")
	require.True(t, ok)
	assert.Equal(t, "*IDN?", d.Template)
}

func TestListAllSorted(t *testing.T) {
	s := newSet(builtinQueries()...)
	names := s.ListAll()
	assert.Contains(t, names, "ident")
	assert.Contains(t, names, "statusByte")
	assert.IsIncreasing(t, names)
}

func TestDecoders(t *testing.T) {
	v, err := DecodeInt([]byte("42\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = DecodeFloat64([]byte("+1.250E+0\n"))
	require.NoError(t, err)
	assert.Equal(t, 1.25, v)

	v, err = DecodeBool([]byte("1\n"))
	require.NoError(t, err)
	assert.Equal(t, true, v)

	_, err = DecodeBool([]byte("ON\n"))
	assert.Error(t, err)

	v, err = DecodeString([]byte("Lab Corp. XJ324\x00\x00\n"))
	require.NoError(t, err)
	assert.Equal(t, "Lab Corp. XJ324", v)
}
