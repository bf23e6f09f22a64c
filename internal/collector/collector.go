package collector

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ScalpSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars    []model.Bar
	OFI     model.OFIReading
	BarsErr error
	OFIErr  error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, _ string) ([]model.Bar, error) {
	if m.BarsErr != nil {
		return nil, m.BarsErr
	}
	return m.Bars, nil
}

func (m *MockFetcher) FetchOFI(_ context.Context, _ string) (model.OFIReading, error) {
	if m.OFIErr != nil {
		return model.OFIReading{}, m.OFIErr
	}
	return m.OFI, nil
}

// GenerateMockBars builds count one-minute bars around basePrice, all
// carrying the given signal label on the last bar.
func GenerateMockBars(basePrice float64, count int, signal string) []model.Bar {
	bars := make([]model.Bar, count)
	now := time.Now().Truncate(time.Minute)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i%7-3)*0.001)
		bars[i] = model.Bar{
			Time:    now.Add(-time.Duration(count-i) * time.Minute),
			Open:    p * 0.999,
			High:    p * 1.002,
			Low:     p * 0.998,
			Close:   p,
			BBUpper: p * 1.01,
			BBLower: p * 0.99,
			VWAP:    basePrice,
			Signal:  model.SignalNoTrade,
		}
	}
	if count > 0 {
		bars[count-1].Signal = signal
	}
	return bars
}

// Collector orchestrates data fetching for one refresh cycle.
type Collector struct {
	Fetcher Fetcher
	Symbol  string
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol string) *Collector {
	return &Collector{Fetcher: fetcher, Symbol: symbol}
}

// Collect fetches the bar feed and the latest OFI. Missing or broken OFI data
// degrades to an unavailable reading; missing bars fail the cycle.
func (c *Collector) Collect(ctx context.Context) (*model.MarketSnapshot, error) {
	bars, err := c.Fetcher.FetchBars(ctx, c.Symbol)
	if err != nil {
		return nil, errors.Wrap(err, "fetch bars")
	}
	if len(bars) == 0 {
		return nil, ErrNoRows
	}

	ofi, err := c.Fetcher.FetchOFI(ctx, c.Symbol)
	if err != nil {
		log.Warnf("fetch ofi failed: %v, using 0", err)
		ofi = model.OFIReading{}
	}
	if !ofi.Available {
		log.Warn("no OFI data found")
	}

	return &model.MarketSnapshot{
		Symbol:    c.Symbol,
		Bars:      bars,
		OFI:       ofi,
		FetchedAt: time.Now(),
	}, nil
}
