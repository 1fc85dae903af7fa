package budget

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/tradewarsim/engine/internal/domain"
	"github.com/tradewarsim/engine/pkg/formulas"
)

// Spending multipliers per expense category: how strongly an extra unit of
// spending moves growth, employment and approval.
var categoryMultipliers = map[string]struct {
	gdp      float64
	jobs     float64
	approval float64
}{
	"infrastructure": {gdp: 0.8, jobs: 0.5, approval: 0.3},
	"education":      {gdp: 0.6, jobs: 0.3, approval: 0.4},
	"healthcare":     {gdp: 0.4, jobs: 0.3, approval: 0.5},
	"welfare":        {gdp: 0.3, jobs: 0.2, approval: 0.5},
	"defense":        {gdp: 0.2, jobs: 0.3, approval: 0.1},
	"subsidies":      {gdp: 0.5, jobs: 0.4, approval: 0.2},
}

// Service owns budget reads and mutations. Mutations are atomic: they
// either persist the fully recomputed budget or leave state untouched.
type Service struct {
	repo   *Repository
	ledger *SubsidyLedger
	log    zerolog.Logger
}

// NewService creates a budget service.
func NewService(repo *Repository, ledger *SubsidyLedger, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		ledger: ledger,
		log:    log.With().Str("service", "budget").Logger(),
	}
}

// Get returns a country's budget, creating the default fiscal frame from
// GDP on first access.
func (s *Service) Get(country domain.Country) (domain.Budget, error) {
	b, err := s.repo.Get(country.ISOCode)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Budget{}, err
	}

	b = defaultBudget(country)
	if err := s.repo.Save(b); err != nil {
		return domain.Budget{}, err
	}
	b.Recompute()
	return b, nil
}

// Allocate sets an editable expense category to a new amount and persists
// the recomputed budget. Rejects non-editable categories, negative values
// and shifts beyond the per-allocation bound.
func (s *Service) Allocate(country domain.Country, req AllocateRequest) (domain.Budget, error) {
	b, err := s.Get(country)
	if err != nil {
		return domain.Budget{}, err
	}

	if !isEditable(b, req.Category) {
		return domain.Budget{}, fmt.Errorf("%w: category %q is not editable", domain.ErrValidation, req.Category)
	}
	if req.Value < 0 {
		return domain.Budget{}, fmt.Errorf("%w: allocation must be non-negative", domain.ErrValidation)
	}

	current := b.Expenses[req.Category]
	if current > 0 {
		shift := math.Abs(req.Value-current) / current
		if shift > maxAllocationShift {
			return domain.Budget{}, fmt.Errorf("%w: change of %.0f%% exceeds the %.0f%% per-allocation bound",
				domain.ErrValidation, shift*100, maxAllocationShift*100)
		}
	}

	b.Expenses[req.Category] = req.Value
	b.Recompute()
	if err := s.repo.Save(b); err != nil {
		return domain.Budget{}, err
	}

	s.log.Info().
		Str("country", country.ISOCode).
		Str("category", req.Category).
		Float64("value", req.Value).
		Msg("Budget allocated")
	return b, nil
}

// Simulate computes the effect of an allocation without persisting
// anything. Degrades to a zero-effect estimate for unknown categories
// rather than failing the preview.
func (s *Service) Simulate(country domain.Country, req AllocateRequest) (domain.EffectVector, error) {
	b, err := s.Get(country)
	if err != nil {
		return domain.EffectVector{}, err
	}

	current := b.Expenses[req.Category]
	delta := req.Value - current

	share := 0.0
	if b.TotalExpenditure > 0 {
		share = delta / b.TotalExpenditure
	}

	mult, ok := categoryMultipliers[req.Category]
	if !ok {
		mult = categoryMultipliers["welfare"]
	}

	effect := domain.EffectVector{
		GDPGrowthChange:    formulas.Clamp(share*mult.gdp*10, -10, 10),
		UnemploymentChange: formulas.Clamp(-share*mult.jobs*10, -5, 5),
		InflationChange:    formulas.Clamp(share*0.5, -5, 5),
		ApprovalChange:     formulas.Clamp(share*mult.approval*100, -20, 20),
		NewBalance:         b.Balance - delta,
		Description:        fmt.Sprintf("Ændring af %s med %.0f mio. USD", req.Category, delta),
	}
	return effect, nil
}

// AddSubsidy stores a subsidy and reconciles the budget's subsidy expense
// line in one transaction: either both commit or neither does.
func (s *Service) AddSubsidy(country domain.Country, req SubsidyRequest) (domain.Subsidy, domain.Budget, error) {
	if err := validateSubsidyRequest(req); err != nil {
		return domain.Subsidy{}, domain.Budget{}, err
	}

	b, err := s.Get(country)
	if err != nil {
		return domain.Subsidy{}, domain.Budget{}, err
	}

	sub := newSubsidy(country, req)

	tx, err := s.ledger.db.Begin()
	if err != nil {
		return domain.Subsidy{}, domain.Budget{}, fmt.Errorf("failed to begin subsidy transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.ledger.insert(tx, sub); err != nil {
		return domain.Subsidy{}, domain.Budget{}, err
	}
	total, err := s.ledger.totalAnnualCost(tx, country.ISOCode)
	if err != nil {
		return domain.Subsidy{}, domain.Budget{}, err
	}
	b.Expenses[subsidyExpenseCategory] = total
	b.Recompute()
	if err := s.repo.SaveTx(tx, b); err != nil {
		return domain.Subsidy{}, domain.Budget{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Subsidy{}, domain.Budget{}, fmt.Errorf("failed to commit subsidy transaction: %w", err)
	}

	return sub, b, nil
}

// RemoveSubsidy deletes a subsidy and reconciles the budget in one
// transaction.
func (s *Service) RemoveSubsidy(country domain.Country, id string) (domain.Budget, error) {
	b, err := s.Get(country)
	if err != nil {
		return domain.Budget{}, err
	}

	tx, err := s.ledger.db.Begin()
	if err != nil {
		return domain.Budget{}, fmt.Errorf("failed to begin subsidy transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.ledger.remove(tx, country.ISOCode, id); err != nil {
		return domain.Budget{}, err
	}
	total, err := s.ledger.totalAnnualCost(tx, country.ISOCode)
	if err != nil {
		return domain.Budget{}, err
	}
	b.Expenses[subsidyExpenseCategory] = total
	b.Recompute()
	if err := s.repo.SaveTx(tx, b); err != nil {
		return domain.Budget{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Budget{}, fmt.Errorf("failed to commit subsidy transaction: %w", err)
	}

	return b, nil
}

// ReconcileSubsidies sets the budget's subsidy expense line to the
// ledger's total annual cost and persists the result.
func (s *Service) ReconcileSubsidies(country domain.Country) (domain.Budget, error) {
	b, err := s.Get(country)
	if err != nil {
		return domain.Budget{}, err
	}

	total, err := s.ledger.TotalAnnualCost(country.ISOCode)
	if err != nil {
		return domain.Budget{}, err
	}

	b.Expenses[subsidyExpenseCategory] = total
	b.Recompute()
	if err := s.repo.Save(b); err != nil {
		return domain.Budget{}, err
	}
	return b, nil
}

// History returns the stored per-turn budget snapshots.
func (s *Service) History(countryISO string) ([]Snapshot, error) {
	return s.repo.History(countryISO)
}

// AppendHistory records the budget totals for a completed turn.
func (s *Service) AppendHistory(countryISO string, turn int, b domain.Budget) error {
	return s.repo.AppendHistory(countryISO, turn, b)
}

func isEditable(b domain.Budget, category string) bool {
	for _, c := range b.EditableCategories {
		if c == category {
			return true
		}
	}
	return false
}

// defaultBudget derives an initial fiscal frame from GDP: roughly a third
// of GDP flows through the state.
func defaultBudget(country domain.Country) domain.Budget {
	gdp := country.GDP
	b := domain.Budget{
		CountryISO: country.ISOCode,
		Revenue: map[string]float64{
			"income_tax":    gdp * 0.13,
			"corporate_tax": gdp * 0.06,
			"vat":           gdp * 0.10,
			"tariffs":       gdp * 0.02,
		},
		Expenses: map[string]float64{
			"healthcare":     gdp * 0.08,
			"education":      gdp * 0.06,
			"welfare":        gdp * 0.08,
			"defense":        gdp * 0.03,
			"infrastructure": gdp * 0.04,
			"subsidies":      0,
		},
		EditableCategories: []string{"healthcare", "education", "welfare", "defense", "infrastructure", "subsidies"},
		Debt:               gdp * 0.6,
	}
	b.Recompute()
	return b
}
