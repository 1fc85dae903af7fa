// Package projection extends a single-decision effect vector into the
// multi-year series the frontend charts.
package projection

import (
	"math"

	"github.com/tradewarsim/engine/internal/domain"
	"github.com/tradewarsim/engine/pkg/formulas"
)

// Decay constants. The short-term component fades with a ~1.5 year time
// constant while the long-term component builds over ~2.5 years; the
// long-term asymptote inverts the short-term sign (tariff overshoot:
// protection first, competitiveness loss later).
const (
	shortTermTau  = 1.5
	longTermTau   = 2.5
	reversalRatio = 1.67

	uncertaintyFloor = 0.1
	uncertaintyCeil  = 0.6
)

// Projection holds the charted series. All slices share the horizon length.
type Projection struct {
	ShortTerm        []float64 `json:"shortTerm"`
	LongTerm         []float64 `json:"longTerm"`
	UncertaintyRange []float64 `json:"uncertaintyRange"`
}

// Project produces the horizon series for an effect vector. Deterministic:
// identical inputs always yield identical arrays.
func Project(effect domain.EffectVector, horizonYears int) Projection {
	if horizonYears < 1 {
		horizonYears = 1
	}

	impulse := formulas.Sanitize(effect.GDPGrowthChange, 0)
	asymptote := -impulse * reversalRatio

	p := Projection{
		ShortTerm:        make([]float64, horizonYears),
		LongTerm:         make([]float64, horizonYears),
		UncertaintyRange: make([]float64, horizonYears),
	}

	for t := 0; t < horizonYears; t++ {
		year := float64(t)
		fade := math.Exp(-year / shortTermTau)
		build := 1 - math.Exp(-year/longTermTau)

		p.LongTerm[t] = formulas.Sanitize(asymptote*build, 0)
		p.ShortTerm[t] = formulas.Sanitize(impulse*fade+asymptote*build, 0)
		p.UncertaintyRange[t] = uncertainty(t, horizonYears)
	}

	return p
}

// uncertainty widens linearly with the horizon from the floor to the
// ceiling; non-negative and non-decreasing by construction.
func uncertainty(step, horizon int) float64 {
	if horizon <= 1 {
		return uncertaintyFloor
	}
	frac := float64(step) / float64(horizon-1)
	return uncertaintyFloor + (uncertaintyCeil-uncertaintyFloor)*frac
}
