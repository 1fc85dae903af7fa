package economy

import "github.com/tradewarsim/engine/internal/domain"

// DefaultPolicyRanges is the static safe band per policy instrument for a
// game session. Values are plain percentages.
func DefaultPolicyRanges() map[domain.PolicyKind]domain.PolicyRange {
	return map[domain.PolicyKind]domain.PolicyRange{
		domain.PolicyTariff: {
			Min:         0,
			Max:         50,
			Normal:      10,
			Description: "Told på importerede varer",
		},
		domain.PolicyTax: {
			Min:         10,
			Max:         60,
			Normal:      35,
			Description: "Generelt skattetryk",
		},
		domain.PolicySubsidy: {
			Min:         0,
			Max:         30,
			Normal:      5,
			Description: "Statsstøtte til hjemlige erhverv",
		},
	}
}
