package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatisticsDefaultsToZero(t *testing.T) {
	m := NewGatewayManager(make(chan struct{}))
	adapters, instruments := m.Statistics()
	assert.Equal(t, 0, adapters)
	assert.Equal(t, 0, instruments)
}

func TestStatisticsReportsBoundCounts(t *testing.T) {
	m := NewGatewayManager(make(chan struct{}))
	m.SetStatisticsFunc(func() (int, int) { return 2, 5 })
	adapters, instruments := m.Statistics()
	assert.Equal(t, 2, adapters)
	assert.Equal(t, 5, instruments)
}
