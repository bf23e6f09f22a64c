package calculator

import "math"

const (
	// safeStopPriceRatio floors the stop at 0.5% of the live price.
	safeStopPriceRatio = 0.005
	// takeProfitMultiple places the target 1.5 stops away from entry.
	takeProfitMultiple = 1.5
)

// SafeStop combines an estimated stop distance with the live price so the
// stop is never tighter than 0.5% of price.
func SafeStop(stopDistance, price float64) float64 {
	return math.Max(stopDistance, price*safeStopPriceRatio)
}

// TradeLevels returns stop-loss and take-profit around price, rounded to cents.
func TradeLevels(price, safeStop float64) (stopLoss, takeProfit float64) {
	return Round(price-safeStop, 2), Round(price+takeProfitMultiple*safeStop, 2)
}

// PositionSize returns the units to trade so that hitting the stop loses
// riskAmount. Returns 0 when entry and stop coincide.
func PositionSize(riskAmount, entry, stopLoss float64) float64 {
	diff := math.Abs(entry - stopLoss)
	if diff == 0 {
		return 0
	}
	return Round(riskAmount/diff, 6)
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
