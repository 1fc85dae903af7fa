// Package diplomacy classifies relations and assesses the diplomatic
// fallout of trade policies and sanctions.
package diplomacy

import (
	"fmt"

	"github.com/tradewarsim/engine/internal/domain"
	"github.com/tradewarsim/engine/pkg/formulas"
)

// Canonical relation bands. The source material carried two conflicting
// threshold sets; this five-band set is the finer one and is used
// everywhere a relation level is bucketed.
const (
	ThresholdAllied   = 0.7
	ThresholdFriendly = 0.3
	ThresholdNeutral  = -0.3
	ThresholdTense    = -0.7
)

// Classify buckets a relation level into its canonical band.
func Classify(level float64) string {
	switch {
	case level > ThresholdAllied:
		return "allied"
	case level > ThresholdFriendly:
		return "friendly"
	case level > ThresholdNeutral:
		return "neutral"
	case level > ThresholdTense:
		return "tense"
	default:
		return "hostile"
	}
}

// Impact is the assessed diplomatic consequence of a policy toward a
// partner.
type Impact struct {
	Impact            string                 `json:"impact"`
	TradeImpact       string                 `json:"tradeImpact"`
	RiskOfRetaliation domain.RetaliationRisk `json:"riskOfRetaliation"`
}

// AssessImpact maps a policy's normalized deviation, the current relation
// level and the partner's importance (0..1, share of trade) to a discrete
// outcome. Monotone: worsening any single input never lowers the risk tier.
func AssessImpact(deviationFrac float64, targeted bool, relationLevel, partnerImportance float64) Impact {
	deviationFrac = formulas.Clamp(deviationFrac, 0, 1)
	partnerImportance = formulas.Clamp(partnerImportance, 0, 1)
	relationLevel = formulas.Clamp(relationLevel, -1, 1)

	// Hostility raises risk: map relation [-1,1] onto [0,1] with hostile=1.
	hostility := (1 - relationLevel) / 2

	score := 0.45*deviationFrac + 0.3*partnerImportance + 0.15*hostility
	if targeted {
		score += 0.1
	}

	var tier domain.RetaliationRisk
	switch {
	case deviationFrac == 0:
		tier = domain.RiskNone
	case score < 0.25:
		tier = domain.RiskLow
	case score < 0.45:
		tier = domain.RiskModerate
	case score < 0.65:
		tier = domain.RiskHigh
	default:
		tier = domain.RiskVeryHigh
	}

	band := Classify(relationLevel)
	impact := fmt.Sprintf("Relationen (%s) forværres med stigende beskyttelsesniveau", band)
	if deviationFrac == 0 {
		impact = fmt.Sprintf("Relationen (%s) påvirkes ikke", band)
	}

	tradeImpact := "Uændret samhandel"
	switch {
	case deviationFrac > 0.6 && partnerImportance > 0.3:
		tradeImpact = "Betydelig nedgang i samhandel må forventes"
	case deviationFrac > 0.3:
		tradeImpact = "Mærkbar nedgang i samhandel"
	case deviationFrac > 0:
		tradeImpact = "Begrænset nedgang i samhandel"
	}

	return Impact{
		Impact:            impact,
		TradeImpact:       tradeImpact,
		RiskOfRetaliation: tier,
	}
}
