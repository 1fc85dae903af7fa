package diplomacy

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/tradewarsim/engine/internal/domain"
	"github.com/tradewarsim/engine/pkg/formulas"
)

// SanctionRequest is the simulate_sanctions input. Severity runs 1..10.
type SanctionRequest struct {
	SourceCountry string `json:"source_country"`
	TargetCountry string `json:"target_country"`
	Severity      int    `json:"severity"`
}

// SanctionImpact is the simulated outcome of imposing sanctions. GDP
// impacts are percentage-point growth deltas; trade loss is millions USD.
type SanctionImpact struct {
	SourceCountry     string                 `json:"source_country"`
	TargetCountry     string                 `json:"target_country"`
	Severity          int                    `json:"severity"`
	RelationChange    float64                `json:"relation_change"`
	NewRelationLevel  float64                `json:"new_relation_level"`
	TradeVolumeLoss   float64                `json:"trade_volume_loss"`
	SourceGDPImpact   float64                `json:"source_gdp_impact"`
	TargetGDPImpact   float64                `json:"target_gdp_impact"`
	RiskOfRetaliation domain.RetaliationRisk `json:"risk_of_retaliation"`
	Description       string                 `json:"description"`
}

// SanctionSimulator computes sanction impacts without mutating state.
type SanctionSimulator struct {
	relations *Repository
	log       zerolog.Logger
}

// NewSanctionSimulator creates a sanction simulator.
func NewSanctionSimulator(relations *Repository, log zerolog.Logger) *SanctionSimulator {
	return &SanctionSimulator{
		relations: relations,
		log:       log.With().Str("component", "sanctions").Logger(),
	}
}

// Simulate computes the impact of sanctions from source on target. Pure:
// the relation store is only read. The shock attenuates with the target's
// resilience (approval as a proxy) and never produces non-finite output.
func (s *SanctionSimulator) Simulate(source, target domain.Country, req SanctionRequest) (SanctionImpact, error) {
	if req.Severity < 1 || req.Severity > 10 {
		return SanctionImpact{}, fmt.Errorf("%w: severity must be 1-10, got %d", domain.ErrValidation, req.Severity)
	}

	severityFrac := float64(req.Severity) / 10

	// Resilience above 1 dampens the shock, below 1 amplifies it.
	resilience := 0.75 + target.ApprovalRating/200
	if resilience < 0.1 {
		resilience = 0.1
	}
	effective := formulas.Clamp(severityFrac/resilience, 0, 1)

	tradeVolume := bilateralVolume(source, target.ISOCode)
	relationLevel := 0.0
	if rel, err := s.relations.Get(source.ISOCode, target.ISOCode); err == nil {
		relationLevel = rel.RelationLevel
		if tradeVolume == 0 {
			tradeVolume = rel.TradeVolume
		}
	}

	relationChange := -0.08 * float64(req.Severity)
	newLevel := formulas.Clamp(relationLevel+relationChange, -1, 1)

	tradeLoss := tradeVolume * effective * 0.8

	targetImpact := 0.0
	if target.GDP > 0 {
		targetImpact = -tradeLoss / target.GDP * 100
	}
	sourceImpact := 0.0
	if source.GDP > 0 {
		// The imposing side loses its export share of the same flow.
		sourceImpact = -tradeLoss * 0.4 / source.GDP * 100
	}

	importance := 0.0
	if total := totalVolume(source); total > 0 {
		importance = tradeVolume / total
	}
	risk := AssessImpact(severityFrac, true, newLevel, importance).RiskOfRetaliation

	impact := SanctionImpact{
		SourceCountry:     source.ISOCode,
		TargetCountry:     target.ISOCode,
		Severity:          req.Severity,
		RelationChange:    relationChange,
		NewRelationLevel:  newLevel,
		TradeVolumeLoss:   formulas.Sanitize(tradeLoss, 0),
		SourceGDPImpact:   formulas.Clamp(formulas.Sanitize(sourceImpact, 0), -10, 0),
		TargetGDPImpact:   formulas.Clamp(formulas.Sanitize(targetImpact, 0), -10, 0),
		RiskOfRetaliation: risk,
		Description: fmt.Sprintf("Sanktioner (niveau %d) mod %s: relationen falder til %s",
			req.Severity, target.Name, Classify(newLevel)),
	}
	return impact, nil
}

func bilateralVolume(source domain.Country, targetISO string) float64 {
	for _, p := range source.TradingPartners {
		if p.Country == targetISO {
			return p.Volume
		}
	}
	return 0
}

func totalVolume(c domain.Country) float64 {
	var total float64
	for _, p := range c.TradingPartners {
		total += p.Volume
	}
	return math.Max(total, 0)
}
