package diplomacy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tradewarsim/engine/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		level float64
		want  string
	}{
		{name: "strong ally", level: 0.9, want: "allied"},
		{name: "allied boundary is exclusive", level: 0.7, want: "friendly"},
		{name: "friendly", level: 0.5, want: "friendly"},
		{name: "neutral high", level: 0.3, want: "neutral"},
		{name: "neutral zero", level: 0.0, want: "neutral"},
		{name: "tense", level: -0.5, want: "tense"},
		{name: "tense boundary", level: -0.3, want: "tense"},
		{name: "hostile", level: -0.9, want: "hostile"},
		{name: "hostile boundary", level: -0.7, want: "hostile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.level))
		})
	}
}

func TestAssessImpact_NoDeviation(t *testing.T) {
	impact := AssessImpact(0, false, 0.5, 0.4)

	assert.Equal(t, domain.RiskNone, impact.RiskOfRetaliation)
	assert.Contains(t, impact.Impact, "påvirkes ikke")
	assert.Equal(t, "Uændret samhandel", impact.TradeImpact)
}

func TestAssessImpact_Tiers(t *testing.T) {
	tests := []struct {
		name       string
		deviation  float64
		targeted   bool
		relation   float64
		importance float64
		want       domain.RetaliationRisk
	}{
		{
			name:      "small broad deviation against an ally",
			deviation: 0.1, relation: 0.9, importance: 0.05,
			want: domain.RiskLow,
		},
		{
			name:      "moderate broad deviation",
			deviation: 0.5, relation: 0.2, importance: 0.2,
			want: domain.RiskModerate,
		},
		{
			name:      "heavy targeted deviation at a major partner",
			deviation: 0.8, targeted: true, relation: -0.2, importance: 0.4,
			want: domain.RiskVeryHigh,
		},
		{
			name:      "full deviation against a hostile major partner",
			deviation: 1.0, targeted: true, relation: -0.9, importance: 0.8,
			want: domain.RiskVeryHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			impact := AssessImpact(tt.deviation, tt.targeted, tt.relation, tt.importance)
			assert.Equal(t, tt.want, impact.RiskOfRetaliation)
		})
	}
}

func TestAssessImpact_MonotoneInDeviation(t *testing.T) {
	prev := -1
	for dev := 0.0; dev <= 1.0; dev += 0.05 {
		impact := AssessImpact(dev, false, 0.0, 0.3)
		rank := impact.RiskOfRetaliation.Rank()
		assert.GreaterOrEqual(t, rank, prev, "risk dropped at deviation %.2f", dev)
		prev = rank
	}
}

func TestAssessImpact_TargetingNeverLowersRisk(t *testing.T) {
	for dev := 0.05; dev <= 1.0; dev += 0.1 {
		broad := AssessImpact(dev, false, 0.0, 0.3)
		targeted := AssessImpact(dev, true, 0.0, 0.3)
		assert.GreaterOrEqual(t, targeted.RiskOfRetaliation.Rank(), broad.RiskOfRetaliation.Rank())
	}
}

func TestAssessImpact_HostilityNeverLowersRisk(t *testing.T) {
	for dev := 0.05; dev <= 1.0; dev += 0.1 {
		friendly := AssessImpact(dev, false, 0.8, 0.3)
		hostile := AssessImpact(dev, false, -0.8, 0.3)
		assert.GreaterOrEqual(t, hostile.RiskOfRetaliation.Rank(), friendly.RiskOfRetaliation.Rank())
	}
}
