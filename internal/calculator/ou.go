package calculator

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"ScalpSentinel/internal/model"
)

const (
	// MinStopDistance is the floor for the estimated stop distance, and the
	// fallback used when there are too few observations to fit.
	MinStopDistance = 0.005

	// minFitObservations is the series length below which no fit is attempted.
	minFitObservations = 5
)

var (
	ErrEmptyInput       = errors.New("empty price series")
	ErrNonPositivePrice = errors.New("price series contains a non-positive price")
)

// EstimateStop fits a simple Ornstein-Uhlenbeck style model to the log prices
// and returns the mean-reversion level and a volatility-based stop distance.
//
// mu is the mean of the raw log prices while sigma is the population standard
// deviation of their first differences. That mix is kept as-is; it is not a
// textbook OU fit.
func EstimateStop(prices []float64) (model.StopEstimate, error) {
	if len(prices) == 0 {
		return model.StopEstimate{}, ErrEmptyInput
	}

	x := make([]float64, len(prices))
	for i, p := range prices {
		if p <= 0 || math.IsNaN(p) {
			return model.StopEstimate{}, errors.Wrapf(ErrNonPositivePrice, "index %d: %v", i, p)
		}
		x[i] = math.Log(p)
	}

	mu := stat.Mean(x, nil)
	if len(x) < minFitObservations {
		return model.StopEstimate{
			MeanReversionLevel: math.Exp(mu),
			StopDistance:       MinStopDistance,
		}, nil
	}

	dx := make([]float64, len(x)-1)
	for i := 0; i < len(dx); i++ {
		dx[i] = x[i+1] - x[i]
	}

	// second central moment == population variance
	sigma := math.Sqrt(stat.Moment(2, dx, nil))

	return model.StopEstimate{
		MeanReversionLevel: math.Exp(mu),
		StopDistance:       math.Max(2*sigma, MinStopDistance),
	}, nil
}
