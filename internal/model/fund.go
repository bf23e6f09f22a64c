package model

import "time"

// AccountState holds the sizing inputs an operator sets for the account.
type AccountState struct {
	Balance   float64   `json:"balance"`
	RiskPct   float64   `json:"risk_pct"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RiskPlan is the position size derived from an AccountState and a TradePlan.
type RiskPlan struct {
	Balance      float64
	RiskPct      float64
	RiskAmount   float64
	PositionSize float64
}

// TradeLogEntry is one manually logged trade.
type TradeLogEntry struct {
	Time time.Time
	Plan TradePlan
	Risk RiskPlan
}
