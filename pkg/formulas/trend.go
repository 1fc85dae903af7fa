package formulas

import (
	"github.com/markcheno/go-talib"
)

// SmoothEMA applies an exponential moving average to a metric series.
//
// Used to de-noise observed historical series before they are compared
// against model trajectories. Returns nil if the series is shorter than
// the period.
func SmoothEMA(values []float64, period int) []float64 {
	if len(values) < period || period < 1 {
		return nil
	}
	ema := talib.Ema(values, period)
	// talib leaves the warm-up prefix as zeros; backfill with the raw values
	// so series length and alignment are preserved.
	out := make([]float64, len(values))
	copy(out, values)
	for i := period - 1; i < len(ema); i++ {
		if !isNaN(ema[i]) && ema[i] != 0 {
			out[i] = ema[i]
		}
	}
	return out
}

// GrowthRates converts a level series (e.g., GDP by year) into
// period-over-period percentage growth. Output length is len(values)-1.
func GrowthRates(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	rates := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			rates = append(rates, 0)
			continue
		}
		rates = append(rates, (values[i]-values[i-1])/values[i-1]*100)
	}
	return rates
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
