package budget

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tradewarsim/engine/internal/domain"
)

// execer is satisfied by *sql.DB and *sql.Tx so ledger and budget writes
// can share one transaction.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// SubsidyLedger tracks active subsidies and their recurring cost.
//
// Lifecycle: Add creates an Active subsidy, AdvanceTurn decrements
// remaining years and removes expirations, Remove ends one explicitly.
type SubsidyLedger struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSubsidyLedger creates a subsidy ledger.
func NewSubsidyLedger(db *sql.DB, log zerolog.Logger) *SubsidyLedger {
	return &SubsidyLedger{
		db:  db,
		log: log.With().Str("component", "subsidy_ledger").Logger(),
	}
}

// Add validates and stores a new subsidy for a country. The annual cost is
// derived from the sector's output share of GDP.
func (l *SubsidyLedger) Add(country domain.Country, req SubsidyRequest) (domain.Subsidy, error) {
	if err := validateSubsidyRequest(req); err != nil {
		return domain.Subsidy{}, err
	}

	sub := newSubsidy(country, req)
	if err := l.insert(l.db, sub); err != nil {
		return domain.Subsidy{}, err
	}
	return sub, nil
}

func (l *SubsidyLedger) insert(e execer, sub domain.Subsidy) error {
	_, err := e.Exec(`
		INSERT INTO subsidies (id, country_iso, sector, percentage, duration, remaining_years, annual_cost, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sub.ID, sub.CountryISO, string(sub.Sector), sub.Percentage, sub.Duration, sub.RemainingYears, sub.AnnualCost, sub.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert subsidy: %w", err)
	}
	return nil
}

// List returns a country's active subsidies, newest first.
func (l *SubsidyLedger) List(countryISO string) ([]domain.Subsidy, error) {
	rows, err := l.db.Query(`
		SELECT id, country_iso, sector, percentage, duration, remaining_years, annual_cost, created_at
		FROM subsidies
		WHERE country_iso = ?
		ORDER BY created_at DESC
	`, countryISO)
	if err != nil {
		return nil, fmt.Errorf("failed to query subsidies: %w", err)
	}
	defer rows.Close()

	subsidies := []domain.Subsidy{}
	for rows.Next() {
		var s domain.Subsidy
		var sector string
		var createdAt int64
		if err := rows.Scan(&s.ID, &s.CountryISO, &sector, &s.Percentage, &s.Duration, &s.RemainingYears, &s.AnnualCost, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan subsidy: %w", err)
		}
		s.Sector = domain.Sector(sector)
		s.CreatedAt = time.Unix(createdAt, 0)
		s.Effects = subsidyEffects(s.Percentage)
		subsidies = append(subsidies, s)
	}
	return subsidies, rows.Err()
}

// Remove deletes a subsidy explicitly. domain.ErrNotFound for unknown ids.
func (l *SubsidyLedger) Remove(countryISO, id string) error {
	return l.remove(l.db, countryISO, id)
}

func (l *SubsidyLedger) remove(e execer, countryISO, id string) error {
	res, err := e.Exec(`DELETE FROM subsidies WHERE country_iso = ? AND id = ?`, countryISO, id)
	if err != nil {
		return fmt.Errorf("failed to remove subsidy: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check subsidy removal: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: subsidy %q", domain.ErrNotFound, id)
	}
	return nil
}

// AdvanceTurn decrements every active subsidy's remaining years for a
// country and removes the ones reaching zero. Returns the expired ids.
// Must run inside the caller's per-country turn serialization.
func (l *SubsidyLedger) AdvanceTurn(countryISO string) ([]string, error) {
	tx, err := l.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin turn transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		UPDATE subsidies SET remaining_years = remaining_years - 1 WHERE country_iso = ?
	`, countryISO); err != nil {
		return nil, fmt.Errorf("failed to decrement subsidies: %w", err)
	}

	rows, err := tx.Query(`SELECT id FROM subsidies WHERE country_iso = ? AND remaining_years <= 0`, countryISO)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired subsidies: %w", err)
	}
	expired := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expired subsidy: %w", err)
		}
		expired = append(expired, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`DELETE FROM subsidies WHERE country_iso = ? AND remaining_years <= 0`, countryISO); err != nil {
		return nil, fmt.Errorf("failed to delete expired subsidies: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit turn transaction: %w", err)
	}
	return expired, nil
}

// TotalAnnualCost sums the annual cost of a country's active subsidies.
// Must reconcile with the budget's subsidy expense line.
func (l *SubsidyLedger) TotalAnnualCost(countryISO string) (float64, error) {
	return l.totalAnnualCost(l.db, countryISO)
}

func (l *SubsidyLedger) totalAnnualCost(e execer, countryISO string) (float64, error) {
	var total float64
	err := e.QueryRow(`
		SELECT COALESCE(SUM(annual_cost), 0) FROM subsidies WHERE country_iso = ?
	`, countryISO).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum subsidy costs: %w", err)
	}
	return total, nil
}

// Preview computes a subsidy's cost and effects without mutating the
// ledger. Safe to call concurrently with anything.
func (l *SubsidyLedger) Preview(country domain.Country, req SubsidyRequest) (EffectPreview, error) {
	if err := validateSubsidyRequest(req); err != nil {
		return EffectPreview{}, err
	}

	sub := buildSubsidy(country, req)
	return EffectPreview{
		Sector:     req.Sector,
		Percentage: req.Percentage,
		Duration:   req.Duration,
		AnnualCost: sub.AnnualCost,
		TotalCost:  sub.AnnualCost * float64(req.Duration),
		Effects:    sub.Effects,
		Description: fmt.Sprintf("%.0f%% støtte til %s i %d år",
			req.Percentage, req.Sector, req.Duration),
	}, nil
}

func validateSubsidyRequest(req SubsidyRequest) error {
	if !domain.ValidSector(req.Sector) {
		return fmt.Errorf("%w: unknown sector %q", domain.ErrValidation, req.Sector)
	}
	if req.Percentage < MinSubsidyPercentage || req.Percentage > MaxSubsidyPercentage {
		return fmt.Errorf("%w: percentage %.1f outside [%v, %v]",
			domain.ErrValidation, req.Percentage, MinSubsidyPercentage, MaxSubsidyPercentage)
	}
	if req.Duration < MinSubsidyDuration || req.Duration > MaxSubsidyDuration {
		return fmt.Errorf("%w: duration %d outside [%d, %d]",
			domain.ErrValidation, req.Duration, MinSubsidyDuration, MaxSubsidyDuration)
	}
	return nil
}

// newSubsidy builds a fully populated subsidy ready for insertion.
func newSubsidy(country domain.Country, req SubsidyRequest) domain.Subsidy {
	sub := buildSubsidy(country, req)
	sub.ID = uuid.New().String()
	sub.CreatedAt = time.Now()
	return sub
}

func buildSubsidy(country domain.Country, req SubsidyRequest) domain.Subsidy {
	share := country.Industries[string(req.Sector)]
	if share == 0 {
		share = 0.1
	}
	sectorOutput := country.GDP * share

	return domain.Subsidy{
		CountryISO:     country.ISOCode,
		Sector:         req.Sector,
		Percentage:     req.Percentage,
		Duration:       req.Duration,
		RemainingYears: req.Duration,
		AnnualCost:     req.Percentage / 100 * sectorOutput,
		Effects:        subsidyEffects(req.Percentage),
	}
}

// subsidyEffects derives the sector-level effects from the subsidy rate.
func subsidyEffects(percentage float64) domain.SubsidyEffects {
	return domain.SubsidyEffects{
		OutputIncreasePercentage: percentage * 0.4,
		UnemploymentReduction:    percentage * 0.05,
		PriceReductionPercentage: percentage * 0.3,
	}
}
