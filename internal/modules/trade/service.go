// Package trade simulates bilateral trade agreements.
package trade

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tradewarsim/engine/internal/domain"
	"github.com/tradewarsim/engine/internal/modules/diplomacy"
	"github.com/tradewarsim/engine/pkg/formulas"
)

// AgreementRequest is the simulate_agreement input.
type AgreementRequest struct {
	CountryA      string `json:"country_a"`
	CountryB      string `json:"country_b"`
	AgreementType string `json:"agreement_type"`
}

// AgreementImpact is the simulated outcome for both parties. GDP impacts
// are percentage-point growth deltas.
type AgreementImpact struct {
	AgreementType    string  `json:"agreement_type"`
	RelationChange   float64 `json:"relation_change"`
	NewRelationLevel float64 `json:"new_relation_level"`
	VolumeIncrease   float64 `json:"trade_volume_increase"`
	GDPImpactA       float64 `json:"gdp_impact_a"`
	GDPImpactB       float64 `json:"gdp_impact_b"`
	Description      string  `json:"description"`
}

// Agreement strength per type: relation boost and trade-volume uplift.
var agreementTerms = map[string]struct {
	relationBoost float64
	volumeUplift  float64
}{
	"tariff_reduction": {relationBoost: 0.1, volumeUplift: 0.10},
	"free_trade":       {relationBoost: 0.2, volumeUplift: 0.25},
	"customs_union":    {relationBoost: 0.3, volumeUplift: 0.40},
}

// Service simulates agreements. Pure: relations are only read.
type Service struct {
	relations *diplomacy.Repository
	log       zerolog.Logger
}

// NewService creates a trade agreement service.
func NewService(relations *diplomacy.Repository, log zerolog.Logger) *Service {
	return &Service{
		relations: relations,
		log:       log.With().Str("service", "trade").Logger(),
	}
}

// SimulateAgreement computes the impact of an agreement between two
// countries. The smaller economy gains relatively more from the same
// absolute trade uplift.
func (s *Service) SimulateAgreement(a, b domain.Country, req AgreementRequest) (AgreementImpact, error) {
	terms, ok := agreementTerms[req.AgreementType]
	if !ok {
		return AgreementImpact{}, fmt.Errorf("%w: unknown agreement type %q", domain.ErrValidation, req.AgreementType)
	}

	level := 0.0
	volume := 0.0
	if rel, err := s.relations.Get(a.ISOCode, b.ISOCode); err == nil {
		level = rel.RelationLevel
		volume = rel.TradeVolume
	}
	if volume == 0 {
		for _, p := range a.TradingPartners {
			if p.Country == b.ISOCode {
				volume = p.Volume
			}
		}
	}
	if volume == 0 {
		// No existing flow: assume a modest opening trade volume.
		volume = (a.GDP + b.GDP) * 0.005
	}

	newLevel := formulas.Clamp(level+terms.relationBoost, -1, 1)
	extraVolume := volume * terms.volumeUplift

	impactA := 0.0
	if a.GDP > 0 {
		impactA = extraVolume / a.GDP * 100 * 0.5
	}
	impactB := 0.0
	if b.GDP > 0 {
		impactB = extraVolume / b.GDP * 100 * 0.5
	}

	return AgreementImpact{
		AgreementType:    req.AgreementType,
		RelationChange:   newLevel - level,
		NewRelationLevel: newLevel,
		VolumeIncrease:   formulas.Sanitize(extraVolume, 0),
		GDPImpactA:       formulas.Clamp(formulas.Sanitize(impactA, 0), 0, 10),
		GDPImpactB:       formulas.Clamp(formulas.Sanitize(impactB, 0), 0, 10),
		Description: fmt.Sprintf("%s mellem %s og %s: relationen stiger til %s",
			req.AgreementType, a.Name, b.Name, diplomacy.Classify(newLevel)),
	}, nil
}
