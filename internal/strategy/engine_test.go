package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ScalpSentinel/internal/model"
)

func snapshot(signal string, closeP, ofi float64) *model.MarketSnapshot {
	now := time.Now()
	return &model.MarketSnapshot{
		Symbol: "BTCUSDT",
		Bars: []model.Bar{
			{Time: now.Add(-time.Minute), Close: closeP - 10, Signal: model.SignalNoTrade},
			{Time: now, Close: closeP, Signal: signal},
		},
		OFI: model.OFIReading{Value: ofi, Available: true},
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		signal     string
		ofi        float64
		label      string
		actionable bool
	}{
		{"🟢 Long", 6, model.ConfidenceStrongLong, true},
		{"🟢 Long", 5, model.ConfidenceNeutral, false},
		{"🔴 Short", -5.01, model.ConfidenceStrongShort, true},
		{"🔴 Short", -5, model.ConfidenceNeutral, false},
		{"🔴 Short", 8, model.ConfidenceNeutral, false},
		{"🟢 Long", -8, model.ConfidenceNeutral, false},
		{model.SignalNoTrade, 20, model.ConfidenceNeutral, false},
		{"🟢 Long", 0, model.ConfidenceNeutral, false},
	}
	for _, tt := range tests {
		label, actionable := Confidence(tt.signal, tt.ofi)
		assert.Equal(t, tt.label, label, "signal %q ofi %v", tt.signal, tt.ofi)
		assert.Equal(t, tt.actionable, actionable, "signal %q ofi %v", tt.signal, tt.ofi)
	}
}

func TestEvaluate_PriceFloorStop(t *testing.T) {
	snap := snapshot("🟢 Long", 30000, 7.456)
	plan := Evaluate(snap, model.StopEstimate{MeanReversionLevel: 29990, StopDistance: 0.005})

	assert.Equal(t, "🟢 Long", plan.Signal)
	assert.Equal(t, model.ConfidenceStrongLong, plan.Confidence)
	assert.True(t, plan.Actionable)
	assert.Equal(t, 30000.0, plan.Entry)
	assert.InDelta(t, 150.0, plan.SafeStop, 1e-9)
	assert.Equal(t, 29850.0, plan.StopLoss)
	assert.Equal(t, 30225.0, plan.TakeProfit)
	assert.Equal(t, 7.46, plan.OFI)
}

func TestEvaluate_MissingOFIIsNeutral(t *testing.T) {
	snap := snapshot("🔴 Short", 100, 0)
	snap.OFI = model.OFIReading{}
	plan := Evaluate(snap, model.StopEstimate{MeanReversionLevel: 100, StopDistance: 2})

	assert.Equal(t, model.ConfidenceNeutral, plan.Confidence)
	assert.False(t, plan.Actionable)
	assert.Equal(t, 0.0, plan.OFI)
	assert.Equal(t, 98.0, plan.StopLoss)
	assert.Equal(t, 103.0, plan.TakeProfit)
}

func TestEvaluate_KeepsUnroundedClose(t *testing.T) {
	snap := snapshot("🟢 Long", 30000.1234, 9)
	plan := Evaluate(snap, model.StopEstimate{MeanReversionLevel: 30000, StopDistance: 0.005})

	assert.Equal(t, 30000.12, plan.Entry)
	assert.Equal(t, 30000.1234, plan.LastClose)
}
