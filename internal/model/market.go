package model

import "time"

// Bar is a single candlestick row from the precomputed signal feed, with the
// indicator columns the upstream pipeline attaches to it.
type Bar struct {
	Time    time.Time `json:"timestamp"`
	Open    float64   `json:"open"`
	High    float64   `json:"high"`
	Low     float64   `json:"low"`
	Close   float64   `json:"close"`
	BBUpper float64   `json:"bb_upper"`
	BBLower float64   `json:"bb_lower"`
	VWAP    float64   `json:"vwap"`
	Signal  string    `json:"signal"`
}

// OFIReading is the latest order-flow imbalance value. When the source is
// missing, Available is false and Value is 0.
type OFIReading struct {
	Value     float64
	Available bool
}

// MarketSnapshot holds everything one refresh cycle needs.
type MarketSnapshot struct {
	Symbol    string
	Bars      []Bar
	OFI       OFIReading
	FetchedAt time.Time
}

// Closes returns the close prices in chronological order.
func (s *MarketSnapshot) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Last returns the most recent bar. Callers must check len(Bars) first.
func (s *MarketSnapshot) Last() Bar {
	return s.Bars[len(s.Bars)-1]
}
