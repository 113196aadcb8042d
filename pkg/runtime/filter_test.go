package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkInstrument(name, id, adapterId string, modTime time.Time) *GpibInstrument {
	return &GpibInstrument{InstrumentMeta: InstrumentMeta{
		ObjectMeta: ObjectMeta{Name: name, ID: id, ModTime: modTime},
		AdapterID:  adapterId,
		Model:      "scpi",
	}}
}

func matchAll(predicates []predicateType, i Instrument) bool {
	for _, p := range predicates {
		if !p(i) {
			return false
		}
	}
	return true
}

func TestParseTypeFilterByNameString(t *testing.T) {
	predicates := ParseTypeFilter(&InstrumentFilter{Name: "dmm-bench-1"})
	require.Len(t, predicates, 1)
	assert.True(t, matchAll(predicates, mkInstrument("dmm-bench-1", "a1", "ad1", time.Now())))
	assert.False(t, matchAll(predicates, mkInstrument("dmm-bench-2", "a2", "ad1", time.Now())))
}

func TestParseTypeFilterByNameFuncs(t *testing.T) {
	testCases := []struct {
		desc    string
		name    interface{}
		match   string
		noMatch string
	}{
		{
			desc:    "eq",
			name:    map[string]interface{}{"eq": "scope-1"},
			match:   "scope-1",
			noMatch: "scope-10",
		},
		{
			desc:    "in",
			name:    map[string]interface{}{"in": []string{"dmm-1", "dmm-2"}},
			match:   "dmm-2",
			noMatch: "dmm-3",
		},
		{
			desc:    "contains",
			name:    map[string]interface{}{"contains": "bench"},
			match:   "dmm-bench-1",
			noMatch: "dmm-rack-1",
		},
		{
			desc:    "startsWith",
			name:    map[string]interface{}{"startsWith": "psu"},
			match:   "psu-3",
			noMatch: "dmm-psu",
		},
		{
			desc:    "endsWith",
			name:    map[string]interface{}{"endsWith": "-cal"},
			match:   "dmm-cal",
			noMatch: "dmm-cal-2",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			predicates := ParseTypeFilter(&InstrumentFilter{Name: tc.name})
			require.Len(t, predicates, 1)
			assert.True(t, matchAll(predicates, mkInstrument(tc.match, "a1", "ad1", time.Now())))
			assert.False(t, matchAll(predicates, mkInstrument(tc.noMatch, "a2", "ad1", time.Now())))
		})
	}
}

func TestParseTypeFilterCombined(t *testing.T) {
	predicates := ParseTypeFilter(&InstrumentFilter{
		AdapterId: "ad1",
		Model:     "scpi",
		Name:      map[string]interface{}{"startsWith": "dmm"},
	})
	require.Len(t, predicates, 3)
	assert.True(t, matchAll(predicates, mkInstrument("dmm-1", "a1", "ad1", time.Now())))
	assert.False(t, matchAll(predicates, mkInstrument("dmm-1", "a1", "ad2", time.Now())))
	assert.False(t, matchAll(predicates, mkInstrument("scope-1", "a1", "ad1", time.Now())))
}

func TestSorterInsertKeepsNewestFirst(t *testing.T) {
	byModTime := func(i1, i2 Instrument) bool { return i1.GetModTime().Before(i2.GetModTime()) }
	sorter := ByInstrument(byModTime)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	var is []Instrument
	is = sorter.Insert(is, mkInstrument("mid", "2", "ad1", base.Add(time.Minute)))
	is = sorter.Insert(is, mkInstrument("old", "1", "ad1", base))
	is = sorter.Insert(is, mkInstrument("new", "3", "ad1", base.Add(2*time.Minute)))

	require.Len(t, is, 3)
	assert.Equal(t, "new", is[0].GetName())
	assert.Equal(t, "mid", is[1].GetName())
	assert.Equal(t, "old", is[2].GetName())
}
