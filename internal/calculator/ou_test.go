package calculator

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// popStdLogDiff is an independent reference for the volatility term.
func popStdLogDiff(prices []float64) float64 {
	n := len(prices) - 1
	diffs := make([]float64, n)
	var sum float64
	for i := 0; i < n; i++ {
		diffs[i] = math.Log(prices[i+1]) - math.Log(prices[i])
		sum += diffs[i]
	}
	mean := sum / float64(n)
	var ss float64
	for _, d := range diffs {
		ss += (d - mean) * (d - mean)
	}
	return math.Sqrt(ss / float64(n))
}

func meanLog(prices []float64) float64 {
	var sum float64
	for _, p := range prices {
		sum += math.Log(p)
	}
	return sum / float64(len(prices))
}

func TestEstimateStop_ConstantSeries(t *testing.T) {
	est, err := EstimateStop([]float64{100, 100, 100, 100, 100, 100})
	require.NoError(t, err)
	assert.InDelta(t, 100.0, est.MeanReversionLevel, 1e-9)
	assert.Equal(t, MinStopDistance, est.StopDistance)
}

func TestEstimateStop_VolatileSeries(t *testing.T) {
	prices := []float64{100, 101, 99, 102, 98, 103}
	est, err := EstimateStop(prices)
	require.NoError(t, err)

	want := math.Max(2*popStdLogDiff(prices), MinStopDistance)
	assert.InDelta(t, want, est.StopDistance, 1e-12)
	assert.InDelta(t, 0.0651, est.StopDistance, 1e-3)
	assert.InDelta(t, math.Exp(meanLog(prices)), est.MeanReversionLevel, 1e-9)
	assert.InDelta(t, 100.49, est.MeanReversionLevel, 0.01)
}

func TestEstimateStop_ShortSeriesFallback(t *testing.T) {
	tests := [][]float64{
		{50},
		{100, 120},
		{100, 90, 110, 95},
	}
	for _, prices := range tests {
		est, err := EstimateStop(prices)
		require.NoError(t, err)
		assert.Equal(t, MinStopDistance, est.StopDistance)
		assert.InDelta(t, math.Exp(meanLog(prices)), est.MeanReversionLevel, 1e-9)
	}
}

func TestEstimateStop_FloorEngaged(t *testing.T) {
	// tiny moves: 2*sigma is far below the floor
	prices := []float64{100, 100.001, 100, 100.001, 100, 100.001}
	est, err := EstimateStop(prices)
	require.NoError(t, err)
	assert.Equal(t, MinStopDistance, est.StopDistance)
}

func TestEstimateStop_NeverBelowFloor(t *testing.T) {
	series := [][]float64{
		{10, 11, 12, 13, 14, 15, 16},
		{30000, 30010, 29990, 30005, 30001},
		{1, 2, 1, 2, 1, 2, 1, 2},
	}
	for _, prices := range series {
		est, err := EstimateStop(prices)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, est.StopDistance, MinStopDistance)
	}
}

func TestEstimateStop_DoesNotMutateInput(t *testing.T) {
	prices := []float64{100, 101, 99, 102, 98, 103}
	orig := append([]float64(nil), prices...)
	_, err := EstimateStop(prices)
	require.NoError(t, err)
	assert.Equal(t, orig, prices)
}

func TestEstimateStop_Errors(t *testing.T) {
	_, err := EstimateStop(nil)
	assert.True(t, errors.Is(err, ErrEmptyInput))

	_, err = EstimateStop([]float64{100, 0, 101})
	assert.True(t, errors.Is(err, ErrNonPositivePrice))

	_, err = EstimateStop([]float64{100, -5})
	assert.True(t, errors.Is(err, ErrNonPositivePrice))
}
