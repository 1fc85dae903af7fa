package economy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tradewarsim/engine/internal/domain"
	"github.com/tradewarsim/engine/pkg/logger"
)

func testState() domain.EconomicState {
	return domain.EconomicState{
		Country: domain.Country{
			ISOCode:          "USA",
			Name:             "USA",
			GDP:              25000000,
			UnemploymentRate: 4.0,
			InflationRate:    2.5,
			ApprovalRating:   50,
			TradingPartners: []domain.TradingPartner{
				{Country: "CHN", Volume: 650000},
				{Country: "DEU", Volume: 250000},
			},
		},
		Budget: domain.Budget{Balance: 1000},
	}
}

func newTestModel() *Model {
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	return NewModel(DefaultPolicyRanges(), log)
}

func TestModel_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr error
	}{
		{
			name:   "tariff within range",
			policy: Policy{Type: domain.PolicyTariff, Value: 25, Target: "all"},
		},
		{
			name:    "tariff above max",
			policy:  Policy{Type: domain.PolicyTariff, Value: 51},
			wantErr: domain.ErrPolicyValueOutOfRange,
		},
		{
			name:    "tariff below min",
			policy:  Policy{Type: domain.PolicyTariff, Value: -1},
			wantErr: domain.ErrPolicyValueOutOfRange,
		},
		{
			name:    "unknown policy kind",
			policy:  Policy{Type: "embargo", Value: 5},
			wantErr: domain.ErrUnknownPolicyKind,
		},
		{
			name:   "targeted at known partner",
			policy: Policy{Type: domain.PolicyTariff, Value: 20, Target: "CHN"},
		},
		{
			name:    "targeted at unknown partner",
			policy:  Policy{Type: domain.PolicyTariff, Value: 20, Target: "BRA"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "tax below min",
			policy:  Policy{Type: domain.PolicyTax, Value: 5},
			wantErr: domain.ErrPolicyValueOutOfRange,
		},
	}

	model := newTestModel()
	state := testState()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := model.Validate(state, tt.policy)
			if tt.wantErr != nil {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestModel_ComputeEffect_HighTariff(t *testing.T) {
	model := newTestModel()
	state := testState()

	// Tariff at 40 against a normal of 10 sits three quarters into the
	// upper band.
	effect, err := model.ComputeEffect(state, Policy{Type: domain.PolicyTariff, Value: 40, Target: "all"}, DefaultParams())
	assert.NoError(t, err)

	assert.InDelta(t, 0.225, effect.GDPGrowthChange, 1e-9)
	assert.Less(t, effect.UnemploymentChange, 0.0)
	assert.Greater(t, effect.InflationChange, 0.0)
	assert.Greater(t, effect.NewBalance, state.Budget.Balance)
	assert.NotEmpty(t, effect.Description)
}

func TestModel_ComputeEffect_OutOfRange(t *testing.T) {
	model := newTestModel()

	_, err := model.ComputeEffect(testState(), Policy{Type: domain.PolicyTariff, Value: 99}, DefaultParams())
	assert.True(t, errors.Is(err, domain.ErrPolicyValueOutOfRange))
}

func TestModel_ComputeEffect_ClampsExtremeParams(t *testing.T) {
	model := newTestModel()

	// A runaway sensitivity must never push a single decision past the
	// output clamps.
	params := Params{GDPSensitivity: 1000, InflationPassThrough: 1000, EmploymentElasticity: 1000}
	effect, err := model.ComputeEffect(testState(), Policy{Type: domain.PolicyTariff, Value: 40}, params)
	assert.NoError(t, err)

	assert.LessOrEqual(t, effect.GDPGrowthChange, maxGDPSwing)
	assert.GreaterOrEqual(t, effect.GDPGrowthChange, -maxGDPSwing)
	assert.LessOrEqual(t, effect.InflationChange, maxRateSwing)
	assert.GreaterOrEqual(t, effect.UnemploymentChange, -maxRateSwing)
	assert.LessOrEqual(t, effect.ApprovalChange, maxApprovalSwing)
}

func TestModel_AssessRetaliation_Tiers(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		wantTier  domain.RetaliationRisk
		wantLabel string
	}{
		{name: "at normal", value: 10, wantTier: domain.RiskNone, wantLabel: "Ingen"},
		{name: "below normal", value: 5, wantTier: domain.RiskNone, wantLabel: "Ingen"},
		{name: "mildly elevated", value: 15, wantTier: domain.RiskLow, wantLabel: "Lav på tværs af handelspartnere"},
		{name: "moderate", value: 30, wantTier: domain.RiskModerate, wantLabel: "Moderat på tværs af handelspartnere"},
		{name: "high", value: 40, wantTier: domain.RiskHigh, wantLabel: "Høj på tværs af handelspartnere"},
		{name: "near max", value: 48, wantTier: domain.RiskVeryHigh, wantLabel: "Meget høj på tværs af handelspartnere"},
	}

	model := newTestModel()
	state := testState()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := model.AssessRetaliation(state, Policy{Type: domain.PolicyTariff, Value: tt.value, Target: "all"}, nil)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantTier, got.Tier)
			assert.Equal(t, tt.wantLabel, got.Label)
		})
	}
}

func TestModel_AssessRetaliation_SignificantPartnerBump(t *testing.T) {
	model := newTestModel()
	state := testState()

	lookup := func(iso string) (float64, bool) {
		switch iso {
		case "CHN":
			return state.Country.GDP * 0.9, true // above the 0.8 threshold
		case "DEU":
			return state.Country.GDP * 0.2, true
		}
		return 0, false
	}

	policy := Policy{Type: domain.PolicyTariff, Value: 30}

	policy.Target = "DEU"
	minor, err := model.AssessRetaliation(state, policy, lookup)
	assert.NoError(t, err)
	assert.Equal(t, domain.RiskModerate, minor.Tier)

	policy.Target = "CHN"
	major, err := model.AssessRetaliation(state, policy, lookup)
	assert.NoError(t, err)
	assert.Equal(t, domain.RiskHigh, major.Tier)
	assert.Contains(t, major.Label, "betydelig handelspartner")
}

func TestModel_AssessRetaliation_MonotoneInValue(t *testing.T) {
	model := newTestModel()
	state := testState()

	prev := -1
	for value := 10.0; value <= 50.0; value += 2.5 {
		got, err := model.AssessRetaliation(state, Policy{Type: domain.PolicyTariff, Value: value, Target: "all"}, nil)
		assert.NoError(t, err)

		rank := got.Tier.Rank()
		assert.GreaterOrEqual(t, rank, prev, "risk dropped when value rose to %.1f", value)
		prev = rank
	}
}

func TestDeviationFraction(t *testing.T) {
	r := domain.PolicyRange{Min: 0, Max: 50, Normal: 10}

	assert.InDelta(t, 0.0, deviationFraction(10, r), 1e-9)
	assert.InDelta(t, 0.75, deviationFraction(40, r), 1e-9)
	assert.InDelta(t, 1.0, deviationFraction(50, r), 1e-9)
	assert.InDelta(t, -0.5, deviationFraction(5, r), 1e-9)
	assert.InDelta(t, -1.0, deviationFraction(0, r), 1e-9)
}
