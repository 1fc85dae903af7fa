package projection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tradewarsim/engine/internal/domain"
)

func TestProject_Deterministic(t *testing.T) {
	effect := domain.EffectVector{GDPGrowthChange: 0.225}

	first := Project(effect, 5)
	second := Project(effect, 5)

	assert.Equal(t, first, second)
}

func TestProject_HorizonLengths(t *testing.T) {
	tests := []struct {
		name    string
		horizon int
		wantLen int
	}{
		{name: "standard horizon", horizon: 5, wantLen: 5},
		{name: "single year", horizon: 1, wantLen: 1},
		{name: "zero falls back to one", horizon: 0, wantLen: 1},
		{name: "negative falls back to one", horizon: -3, wantLen: 1},
		{name: "long horizon", horizon: 15, wantLen: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Project(domain.EffectVector{GDPGrowthChange: 1}, tt.horizon)
			assert.Len(t, p.ShortTerm, tt.wantLen)
			assert.Len(t, p.LongTerm, tt.wantLen)
			assert.Len(t, p.UncertaintyRange, tt.wantLen)
		})
	}
}

func TestProject_UncertaintyBand(t *testing.T) {
	p := Project(domain.EffectVector{GDPGrowthChange: 0.5}, 5)

	assert.InDelta(t, 0.1, p.UncertaintyRange[0], 1e-9)
	assert.InDelta(t, 0.6, p.UncertaintyRange[len(p.UncertaintyRange)-1], 1e-9)

	for i := 1; i < len(p.UncertaintyRange); i++ {
		assert.GreaterOrEqual(t, p.UncertaintyRange[i], p.UncertaintyRange[i-1])
		assert.GreaterOrEqual(t, p.UncertaintyRange[i], 0.0)
	}
}

func TestProject_SignInversion(t *testing.T) {
	// A positive short-term impulse builds toward a negative long-term
	// asymptote (protection first, competitiveness loss later).
	p := Project(domain.EffectVector{GDPGrowthChange: 1.0}, 5)

	assert.InDelta(t, 1.0, p.ShortTerm[0], 1e-9)
	assert.InDelta(t, 0.0, p.LongTerm[0], 1e-9)

	last := len(p.ShortTerm) - 1
	assert.Less(t, p.ShortTerm[last], 0.0)
	assert.Less(t, p.LongTerm[last], 0.0)

	// And symmetrically for a negative impulse.
	n := Project(domain.EffectVector{GDPGrowthChange: -1.0}, 5)
	assert.Greater(t, n.ShortTerm[last], 0.0)
	assert.Greater(t, n.LongTerm[last], 0.0)
}

func TestProject_ZeroEffect(t *testing.T) {
	p := Project(domain.EffectVector{}, 5)

	for i := range p.ShortTerm {
		assert.Zero(t, p.ShortTerm[i])
		assert.Zero(t, p.LongTerm[i])
	}
}

func TestProject_NonFiniteImpulse(t *testing.T) {
	p := Project(domain.EffectVector{GDPGrowthChange: math.NaN()}, 3)

	for i := range p.ShortTerm {
		assert.False(t, math.IsNaN(p.ShortTerm[i]))
		assert.False(t, math.IsNaN(p.LongTerm[i]))
	}
}
