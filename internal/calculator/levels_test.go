package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeStop(t *testing.T) {
	// price floor wins for a typical BTC price
	assert.InDelta(t, 150.0, SafeStop(0.005, 30000), 1e-9)
	// estimated distance wins when larger
	assert.InDelta(t, 200.0, SafeStop(200, 30000), 1e-9)
}

func TestTradeLevels(t *testing.T) {
	sl, tp := TradeLevels(30000, 150)
	assert.Equal(t, 29850.0, sl)
	assert.Equal(t, 30225.0, tp)

	sl, tp = TradeLevels(100.123, 0.5006)
	assert.Equal(t, 99.62, sl)
	assert.Equal(t, 100.87, tp)
}

func TestPositionSize(t *testing.T) {
	assert.InDelta(t, 0.066667, PositionSize(10, 30000, 29850), 1e-9)
	assert.Equal(t, 0.0, PositionSize(10, 100, 100))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.23, Round(1.234, 2))
	assert.Equal(t, 1.24, Round(1.236, 2))
	assert.Equal(t, 0.123457, Round(0.1234567, 6))
}
