package economy

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tradewarsim/engine/internal/domain"
	"github.com/tradewarsim/engine/pkg/formulas"
)

// Output clamps. A single decision can never swing the projection charts
// beyond these bounds, whatever the calibrated sensitivities say.
const (
	maxGDPSwing      = 10.0
	maxRateSwing     = 5.0
	maxApprovalSwing = 20.0
)

// SignificantPartnerRatio marks a trading partner as "betydelig" when its
// GDP exceeds this fraction of the acting country's GDP.
const SignificantPartnerRatio = 0.8

// Policy is a proposed policy delta to evaluate.
type Policy struct {
	Type   domain.PolicyKind `json:"type"`
	Value  float64           `json:"value"`
	Target string            `json:"target"`
}

// RetaliationAssessment combines the discrete risk tier with the display
// label shown by the decision panel.
type RetaliationAssessment struct {
	Tier  domain.RetaliationRisk `json:"tier"`
	Label string                 `json:"label"`
}

// PartnerGDPLookup resolves a partner country's GDP, used for the
// significant-partner rule. Returns ok=false for unknown countries.
type PartnerGDPLookup func(iso string) (float64, bool)

// Model computes policy effect vectors. Pure per call: the caller persists
// any resulting state changes.
type Model struct {
	ranges map[domain.PolicyKind]domain.PolicyRange
	log    zerolog.Logger
}

// NewModel creates an effect model with the session's policy ranges.
func NewModel(ranges map[domain.PolicyKind]domain.PolicyRange, log zerolog.Logger) *Model {
	return &Model{
		ranges: ranges,
		log:    log.With().Str("component", "effect_model").Logger(),
	}
}

// Ranges exposes the configured policy ranges (for the UI slider bands).
func (m *Model) Ranges() map[domain.PolicyKind]domain.PolicyRange {
	return m.ranges
}

// Validate checks the policy against its configured range and target.
func (m *Model) Validate(state domain.EconomicState, policy Policy) error {
	r, ok := m.ranges[policy.Type]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownPolicyKind, policy.Type)
	}
	if policy.Value < r.Min || policy.Value > r.Max {
		return fmt.Errorf("%w: %s=%.1f outside [%.1f, %.1f]",
			domain.ErrPolicyValueOutOfRange, policy.Type, policy.Value, r.Min, r.Max)
	}
	if policy.Target != "" && policy.Target != "all" {
		found := false
		for _, p := range state.Country.TradingPartners {
			if p.Country == policy.Target {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: no trade relation with %q", domain.ErrValidation, policy.Target)
		}
	}
	return nil
}

// ComputeEffect maps a policy delta and the current economic state to a
// projected effect vector. Positive deviation from the normal band means
// tightening (higher tariff/tax/subsidy level).
func (m *Model) ComputeEffect(state domain.EconomicState, policy Policy, params Params) (domain.EffectVector, error) {
	if err := m.Validate(state, policy); err != nil {
		return domain.EffectVector{}, err
	}

	r := m.ranges[policy.Type]
	dev := policy.Value - r.Normal
	frac := deviationFraction(policy.Value, r)

	var effect domain.EffectVector
	switch policy.Type {
	case domain.PolicyTariff:
		effect = m.tariffEffect(state, dev, frac, params)
	case domain.PolicyTax:
		effect = m.taxEffect(state, dev, frac, params)
	case domain.PolicySubsidy:
		effect = m.subsidyEffect(state, dev, frac, params)
	}

	return m.sanitize(effect), nil
}

// tariffEffect: above-normal tariffs protect domestic output short-term,
// raise consumer prices proportionally to the tariff, and collect revenue
// on the import volume. The long-term competitiveness drag is produced by
// the projector's inversion, not here.
func (m *Model) tariffEffect(state domain.EconomicState, dev, frac float64, params Params) domain.EffectVector {
	imports := importVolume(state.Country)

	inflation := params.InflationPassThrough * 0.05 * dev
	effect := domain.EffectVector{
		GDPGrowthChange:    params.GDPSensitivity * 0.3 * frac,
		UnemploymentChange: -params.EmploymentElasticity * 0.2 * frac,
		InflationChange:    inflation,
		ApprovalChange:     4.0*frac - 0.5*inflation,
		NewBalance:         state.Budget.Balance + dev/100*imports,
	}
	if dev > 0 {
		effect.Description = "Told over normalniveau: kortsigtet beskyttelse af hjemlig produktion, stigende forbrugerpriser og svækket konkurrenceevne på længere sigt"
	} else {
		effect.Description = "Told under normalniveau: billigere import og skærpet konkurrence for hjemlige producenter"
	}
	return effect
}

// taxEffect: above-normal taxation cools demand and collects revenue on
// roughly a quarter of GDP as taxable base.
func (m *Model) taxEffect(state domain.EconomicState, dev, frac float64, params Params) domain.EffectVector {
	effect := domain.EffectVector{
		GDPGrowthChange:    -params.GDPSensitivity * 0.4 * frac,
		UnemploymentChange: params.EmploymentElasticity * 0.3 * frac,
		InflationChange:    -params.InflationPassThrough * 0.02 * dev,
		ApprovalChange:     -6.0 * frac,
		NewBalance:         state.Budget.Balance + dev/100*state.Country.GDP*0.25,
	}
	if dev > 0 {
		effect.Description = "Skattetryk over normalniveau: øgede indtægter, dæmpet aktivitet og faldende opbakning"
	} else {
		effect.Description = "Skattetryk under normalniveau: stimuleret aktivitet mod lavere indtægter"
	}
	return effect
}

// subsidyEffect: broad subsidies lift output and employment while the
// treasury carries the cost; prices fall slightly in subsidised sectors.
func (m *Model) subsidyEffect(state domain.EconomicState, dev, frac float64, params Params) domain.EffectVector {
	cost := dev / 100 * state.Country.GDP * 0.1

	effect := domain.EffectVector{
		GDPGrowthChange:    params.GDPSensitivity * 0.25 * frac,
		UnemploymentChange: -params.EmploymentElasticity * 0.3 * frac,
		InflationChange:    -params.InflationPassThrough * 0.02 * dev,
		ApprovalChange:     3.0 * frac,
		NewBalance:         state.Budget.Balance - cost,
	}
	if dev > 0 {
		effect.Description = "Støtteniveau over normalen: øget produktion og beskæftigelse mod løbende budgetbelastning"
	} else {
		effect.Description = "Støtteniveau under normalen: lavere udgifter, svagere hjemlig produktion"
	}
	return effect
}

// AssessRetaliation classifies the retaliation risk of a policy. The tier
// never decreases when the value rises, the target narrows onto a
// significant partner, or the partner grows, holding the rest fixed.
func (m *Model) AssessRetaliation(state domain.EconomicState, policy Policy, partnerGDP PartnerGDPLookup) (RetaliationAssessment, error) {
	r, ok := m.ranges[policy.Type]
	if !ok {
		return RetaliationAssessment{}, fmt.Errorf("%w: %q", domain.ErrUnknownPolicyKind, policy.Type)
	}

	dev := policy.Value - r.Normal
	if dev <= 0 {
		return RetaliationAssessment{Tier: domain.RiskNone, Label: "Ingen"}, nil
	}

	frac := dev / (r.Max - r.Normal)
	var tier domain.RetaliationRisk
	switch {
	case frac < 0.3:
		tier = domain.RiskLow
	case frac < 0.6:
		tier = domain.RiskModerate
	case frac <= 0.85:
		tier = domain.RiskHigh
	default:
		tier = domain.RiskVeryHigh
	}

	targeted := policy.Target != "" && policy.Target != "all"
	significant := false
	if targeted && partnerGDP != nil {
		if gdp, ok := partnerGDP(policy.Target); ok && state.Country.GDP > 0 {
			significant = gdp > SignificantPartnerRatio*state.Country.GDP
		}
	}
	if significant {
		tier = bumpRisk(tier)
	}

	return RetaliationAssessment{
		Tier:  tier,
		Label: riskLabel(tier, targeted, significant, policy.Target),
	}, nil
}

// deviationFraction normalizes the deviation against the half of the band
// it falls in, yielding a signed value in [-1, 1].
func deviationFraction(value float64, r domain.PolicyRange) float64 {
	dev := value - r.Normal
	if dev >= 0 {
		width := r.Max - r.Normal
		if width == 0 {
			return 0
		}
		return dev / width
	}
	width := r.Normal - r.Min
	if width == 0 {
		return 0
	}
	return dev / width
}

// importVolume approximates imports from the partner list, falling back to
// a 15% share of GDP for countries without partner data.
func importVolume(c domain.Country) float64 {
	var total float64
	for _, p := range c.TradingPartners {
		total += p.Volume
	}
	if total == 0 {
		total = c.GDP * 0.15
	}
	return total
}

func bumpRisk(tier domain.RetaliationRisk) domain.RetaliationRisk {
	switch tier {
	case domain.RiskNone:
		return domain.RiskLow
	case domain.RiskLow:
		return domain.RiskModerate
	case domain.RiskModerate:
		return domain.RiskHigh
	default:
		return domain.RiskVeryHigh
	}
}

var riskLabelsDa = map[domain.RetaliationRisk]string{
	domain.RiskNone:     "Ingen",
	domain.RiskLow:      "Lav",
	domain.RiskModerate: "Moderat",
	domain.RiskHigh:     "Høj",
	domain.RiskVeryHigh: "Meget høj",
}

func riskLabel(tier domain.RetaliationRisk, targeted, significant bool, target string) string {
	base := riskLabelsDa[tier]
	if tier == domain.RiskNone {
		return base
	}
	if !targeted {
		return base + " på tværs af handelspartnere"
	}
	if significant {
		return fmt.Sprintf("%s – rettet mod %s (betydelig handelspartner)", base, target)
	}
	return fmt.Sprintf("%s – rettet mod %s", base, target)
}

// sanitize clamps the effect vector and replaces any non-finite value with
// a zero effect, logging the fault instead of crashing the request.
func (m *Model) sanitize(effect domain.EffectVector) domain.EffectVector {
	raw := effect
	effect.GDPGrowthChange = formulas.Clamp(formulas.Sanitize(effect.GDPGrowthChange, 0), -maxGDPSwing, maxGDPSwing)
	effect.UnemploymentChange = formulas.Clamp(formulas.Sanitize(effect.UnemploymentChange, 0), -maxRateSwing, maxRateSwing)
	effect.InflationChange = formulas.Clamp(formulas.Sanitize(effect.InflationChange, 0), -maxRateSwing, maxRateSwing)
	effect.ApprovalChange = formulas.Clamp(formulas.Sanitize(effect.ApprovalChange, 0), -maxApprovalSwing, maxApprovalSwing)
	effect.NewBalance = formulas.Sanitize(effect.NewBalance, 0)

	if raw != effect && (raw.GDPGrowthChange != raw.GDPGrowthChange ||
		raw.NewBalance != raw.NewBalance) {
		m.log.Error().Interface("raw", raw).Msg("Non-finite effect vector, substituted safe defaults")
	}
	return effect
}
