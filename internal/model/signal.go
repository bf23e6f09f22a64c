package model

import "strings"

// Confidence labels derived from the signal label and OFI.
const (
	ConfidenceStrongLong  = "🟢 Strong Long"
	ConfidenceStrongShort = "🔴 Strong Short"
	ConfidenceNeutral     = "🟡 Neutral"
)

// SignalNoTrade is the neutral label emitted by the upstream signal feed.
const SignalNoTrade = "🟡 No Trade"

// IsNoTrade reports whether the label is the neutral no-trade sentinel,
// with or without its emoji prefix.
func IsNoTrade(signal string) bool {
	return strings.Contains(signal, "No Trade")
}

// StopEstimate is the output of the mean-reversion stop estimator.
type StopEstimate struct {
	MeanReversionLevel float64
	StopDistance       float64
}

// TradePlan is the derived entry/stop/target envelope for the latest bar.
type TradePlan struct {
	Signal     string
	Confidence string
	LastClose  float64 // unrounded close of the latest bar
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	OFI        float64
	Stop       StopEstimate
	SafeStop   float64
	Actionable bool
}

// SignalEvent is what the notifier consumes, once per refresh cycle.
type SignalEvent struct {
	Signal        string
	Entry         float64
	StopLoss      float64
	TakeProfit    float64
	OFI           float64
	Confidence    string
	ChartPath     string // optional
	DashboardLink string // optional
}

// NewSignalEvent builds a notifier event from a plan.
func NewSignalEvent(plan TradePlan, chartPath, dashboardLink string) SignalEvent {
	return SignalEvent{
		Signal:        plan.Signal,
		Entry:         plan.Entry,
		StopLoss:      plan.StopLoss,
		TakeProfit:    plan.TakeProfit,
		OFI:           plan.OFI,
		Confidence:    plan.Confidence,
		ChartPath:     chartPath,
		DashboardLink: dashboardLink,
	}
}
