package domain

import "time"

// PolicyKind identifies a policy instrument.
type PolicyKind string

const (
	PolicyTariff  PolicyKind = "tariff"
	PolicyTax     PolicyKind = "tax"
	PolicySubsidy PolicyKind = "subsidy"
)

// Sector is an economic sector eligible for subsidies.
type Sector string

const (
	SectorAgriculture   Sector = "agriculture"
	SectorManufacturing Sector = "manufacturing"
	SectorTechnology    Sector = "technology"
	SectorEnergy        Sector = "energy"
	SectorServices      Sector = "services"
)

// ValidSector reports whether s is one of the known sectors.
func ValidSector(s Sector) bool {
	switch s {
	case SectorAgriculture, SectorManufacturing, SectorTechnology, SectorEnergy, SectorServices:
		return true
	}
	return false
}

// Country is the per-country economic snapshot loaded at turn start.
// GDP is in millions USD; rates are plain percentages (12.5 == 12.5%).
type Country struct {
	ISOCode          string             `json:"iso_code"`
	Name             string             `json:"name"`
	GDP              float64            `json:"gdp"`
	Population       int64              `json:"population"`
	UnemploymentRate float64            `json:"unemployment_rate"`
	InflationRate    float64            `json:"inflation_rate"`
	ApprovalRating   float64            `json:"approval_rating"`
	GovernmentType   string             `json:"government_type"`
	Region           string             `json:"region"`
	Industries       map[string]float64 `json:"industries"`
	GDPHistory       map[int]float64    `json:"gdp_history"`
	TradingPartners  []TradingPartner   `json:"trading_partners"`
}

// TradingPartner is one entry in a country's partner list.
type TradingPartner struct {
	Country string  `json:"country"`
	Volume  float64 `json:"volume"`
}

// RelationLevel is the diplomatic standing between two countries.
// The level is a scalar in [-1, 1]; stored once per directed pair.
type RelationLevel struct {
	CountryA      string   `json:"country_a"`
	CountryB      string   `json:"country_b"`
	RelationLevel float64  `json:"relation_level"`
	LastEvent     string   `json:"last_event"`
	Agreements    []string `json:"agreements"`
	TradeVolume   float64  `json:"trade_volume"`
}

// Budget is the per-country, per-turn fiscal state.
// Invariant: TotalRevenue == sum(Revenue), TotalExpenditure == sum(Expenses),
// Balance == TotalRevenue - TotalExpenditure.
type Budget struct {
	CountryISO         string             `json:"country_iso"`
	Revenue            map[string]float64 `json:"revenue"`
	Expenses           map[string]float64 `json:"expenses"`
	EditableCategories []string           `json:"editableCategories"`
	TotalRevenue       float64            `json:"totalRevenue"`
	TotalExpenditure   float64            `json:"totalExpenditure"`
	Balance            float64            `json:"balance"`
	Debt               float64            `json:"debt"`
}

// Recompute refreshes the derived totals from the category maps.
func (b *Budget) Recompute() {
	b.TotalRevenue = 0
	for _, v := range b.Revenue {
		b.TotalRevenue += v
	}
	b.TotalExpenditure = 0
	for _, v := range b.Expenses {
		b.TotalExpenditure += v
	}
	b.Balance = b.TotalRevenue - b.TotalExpenditure
}

// Subsidy is an active sector subsidy.
// Lifecycle: Active on creation, RemainingYears decremented each turn,
// removed when it reaches zero or on explicit removal.
type Subsidy struct {
	ID             string         `json:"id"`
	CountryISO     string         `json:"country_iso"`
	Sector         Sector         `json:"sector"`
	Percentage     float64        `json:"percentage"`
	Duration       int            `json:"duration"`
	RemainingYears int            `json:"remainingYears"`
	AnnualCost     float64        `json:"annualCost"`
	Effects        SubsidyEffects `json:"effects"`
	CreatedAt      time.Time      `json:"created_at"`
}

// SubsidyEffects is the sector-level effect of an active subsidy.
type SubsidyEffects struct {
	OutputIncreasePercentage float64 `json:"output_increase_percentage"`
	UnemploymentReduction    float64 `json:"unemployment_reduction"`
	PriceReductionPercentage float64 `json:"price_reduction_percentage"`
}

// PolicyDecision records an applied policy. Immutable once stored.
type PolicyDecision struct {
	ID         string     `json:"id"`
	CountryISO string     `json:"iso_code"`
	Policy     PolicyKind `json:"policy"`
	Value      float64    `json:"value"`
	Target     string     `json:"target"`
	Timestamp  time.Time  `json:"timestamp"`
}

// PolicyRange is the configured safe band for a policy instrument.
type PolicyRange struct {
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Normal      float64 `json:"normal"`
	Description string  `json:"description"`
}

// EffectVector is the projected set of deltas for a single policy decision.
// Changes are percentage-point deltas; NewBalance is millions USD.
type EffectVector struct {
	GDPGrowthChange    float64 `json:"gdpGrowthChange"`
	UnemploymentChange float64 `json:"unemploymentChange"`
	InflationChange    float64 `json:"inflationChange"`
	ApprovalChange     float64 `json:"approvalChange"`
	NewBalance         float64 `json:"newBalance"`
	Description        string  `json:"description"`
}

// EconomicState is the full per-country snapshot the engine computes
// against. Immutable during a computation; only turn advance and explicit
// edits replace it.
type EconomicState struct {
	Turn      int       `json:"turn" msgpack:"turn"`
	Country   Country   `json:"country" msgpack:"country"`
	Budget    Budget    `json:"budget" msgpack:"budget"`
	Subsidies []Subsidy `json:"subsidies" msgpack:"subsidies"`
}

// RetaliationRisk is the discrete retaliation tier for a policy decision.
type RetaliationRisk string

const (
	RiskNone     RetaliationRisk = "none"
	RiskLow      RetaliationRisk = "low"
	RiskModerate RetaliationRisk = "moderate"
	RiskHigh     RetaliationRisk = "high"
	RiskVeryHigh RetaliationRisk = "very-high"
)

var riskOrder = map[RetaliationRisk]int{
	RiskNone:     0,
	RiskLow:      1,
	RiskModerate: 2,
	RiskHigh:     3,
	RiskVeryHigh: 4,
}

// Rank returns the ordinal position of the risk tier (none=0 .. very-high=4).
func (r RetaliationRisk) Rank() int {
	return riskOrder[r]
}
