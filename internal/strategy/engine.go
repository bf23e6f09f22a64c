package strategy

import (
	"strings"

	"ScalpSentinel/internal/calculator"
	"ScalpSentinel/internal/model"
)

// OFIThreshold is the absolute order-flow imbalance required to call a signal strong.
const OFIThreshold = 5.0

// Confidence maps a signal label and OFI value to a confidence label.
// Only the two strong outcomes are actionable.
func Confidence(signal string, ofi float64) (label string, actionable bool) {
	switch {
	case strings.Contains(signal, "Long") && ofi > OFIThreshold:
		return model.ConfidenceStrongLong, true
	case strings.Contains(signal, "Short") && ofi < -OFIThreshold:
		return model.ConfidenceStrongShort, true
	default:
		return model.ConfidenceNeutral, false
	}
}

// Evaluate derives the trade plan for the latest bar of the snapshot.
// The snapshot must contain at least one bar.
func Evaluate(snap *model.MarketSnapshot, est model.StopEstimate) model.TradePlan {
	last := snap.Last()
	ofi := calculator.Round(snap.OFI.Value, 2)

	safeStop := calculator.SafeStop(est.StopDistance, last.Close)
	sl, tp := calculator.TradeLevels(last.Close, safeStop)
	confidence, actionable := Confidence(last.Signal, ofi)

	return model.TradePlan{
		Signal:     last.Signal,
		Confidence: confidence,
		LastClose:  last.Close,
		Entry:      calculator.Round(last.Close, 2),
		StopLoss:   sl,
		TakeProfit: tp,
		OFI:        ofi,
		Stop:       est,
		SafeStop:   safeStop,
		Actionable: actionable,
	}
}
