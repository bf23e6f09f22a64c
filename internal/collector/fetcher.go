package collector

import (
	"context"

	"ScalpSentinel/internal/model"
)

// Fetcher defines the interface for fetching the precomputed signal feed.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol string) ([]model.Bar, error)
	// FetchOFI returns an unavailable reading, not an error, when the
	// source simply has no data yet.
	FetchOFI(ctx context.Context, symbol string) (model.OFIReading, error)
	Name() string
}
