package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmoothEMA(t *testing.T) {
	assert.Nil(t, SmoothEMA(nil, 2))
	assert.Nil(t, SmoothEMA([]float64{1}, 2))
	assert.Nil(t, SmoothEMA([]float64{1, 2}, 0))

	values := []float64{2.0, 2.4, 2.1, 2.6, 2.3}
	smoothed := SmoothEMA(values, 2)
	assert.Len(t, smoothed, len(values))

	// The warm-up prefix keeps the raw value.
	assert.Equal(t, values[0], smoothed[0])

	// Smoothing must not push values outside the observed span.
	for _, v := range smoothed {
		assert.GreaterOrEqual(t, v, 2.0)
		assert.LessOrEqual(t, v, 2.6)
	}
}

func TestGrowthRates(t *testing.T) {
	assert.Nil(t, GrowthRates(nil))
	assert.Nil(t, GrowthRates([]float64{100}))

	rates := GrowthRates([]float64{100, 110, 99})
	assert.Len(t, rates, 2)
	assert.InDelta(t, 10.0, rates[0], 1e-9)
	assert.InDelta(t, -10.0, rates[1], 1e-9)

	// A zero base yields a zero rate instead of a division blowup.
	rates = GrowthRates([]float64{0, 50})
	assert.Equal(t, []float64{0}, rates)
}
