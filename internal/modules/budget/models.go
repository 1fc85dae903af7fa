package budget

import "github.com/tradewarsim/engine/internal/domain"

// AllocateRequest sets an editable expense category to a new amount
// (millions USD).
type AllocateRequest struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

// SubsidyRequest creates or previews a sector subsidy.
type SubsidyRequest struct {
	Sector     domain.Sector `json:"sector"`
	Percentage float64       `json:"percentage"`
	Duration   int           `json:"duration"`
}

// EffectPreview is the pure preview of a subsidy before commit.
type EffectPreview struct {
	Sector      domain.Sector         `json:"sector"`
	Percentage  float64               `json:"percentage"`
	Duration    int                   `json:"duration"`
	AnnualCost  float64               `json:"annualCost"`
	TotalCost   float64               `json:"totalCost"`
	Effects     domain.SubsidyEffects `json:"effects"`
	Description string                `json:"description"`
}

// Snapshot is one historical budget line, written at each turn advance.
type Snapshot struct {
	Turn             int     `json:"turn"`
	TotalRevenue     float64 `json:"totalRevenue"`
	TotalExpenditure float64 `json:"totalExpenditure"`
	Balance          float64 `json:"balance"`
	Debt             float64 `json:"debt"`
}

// Maximum relative change a single allocation may apply to a category.
const maxAllocationShift = 0.5

// Subsidy validation bounds.
const (
	MinSubsidyPercentage = 1.0
	MaxSubsidyPercentage = 50.0
	MinSubsidyDuration   = 1
	MaxSubsidyDuration   = 10
)

// subsidyExpenseCategory is the budget line reconciled against the ledger.
const subsidyExpenseCategory = "subsidies"
