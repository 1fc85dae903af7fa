package economy

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Parameter bounds shared with the calibration engine. Fitted values are
// projected back into this interval so a bad history can never push the
// model into divergence.
const (
	ParamMin = 0.1
	ParamMax = 5.0
)

// Params are the sensitivity coefficients of the effect model. All default
// to 1.0 (global averages); calibration fits them per country.
type Params struct {
	GDPSensitivity       float64 `json:"gdp_sensitivity"`
	InflationPassThrough float64 `json:"inflation_pass_through"`
	EmploymentElasticity float64 `json:"employment_elasticity"`
}

// DefaultParams returns the uncalibrated global-average coefficients.
func DefaultParams() Params {
	return Params{
		GDPSensitivity:       1.0,
		InflationPassThrough: 1.0,
		EmploymentElasticity: 1.0,
	}
}

// AsMap returns the params keyed by their canonical names.
func (p Params) AsMap() map[string]float64 {
	return map[string]float64{
		"gdp_sensitivity":        p.GDPSensitivity,
		"inflation_pass_through": p.InflationPassThrough,
		"employment_elasticity":  p.EmploymentElasticity,
	}
}

// ParamsRepository persists per-country calibrated parameters.
type ParamsRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewParamsRepository creates a new params repository.
func NewParamsRepository(db *sql.DB, log zerolog.Logger) *ParamsRepository {
	return &ParamsRepository{
		db:  db,
		log: log.With().Str("repository", "calibration_params").Logger(),
	}
}

// Get returns the calibrated params for a country, falling back to the
// defaults for any parameter never calibrated.
func (r *ParamsRepository) Get(countryISO string) (Params, error) {
	params := DefaultParams()

	rows, err := r.db.Query(
		`SELECT param, value FROM calibration_params WHERE country_iso = ?`,
		countryISO,
	)
	if err != nil {
		return params, fmt.Errorf("failed to load calibration params: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return params, fmt.Errorf("failed to scan calibration param: %w", err)
		}
		switch name {
		case "gdp_sensitivity":
			params.GDPSensitivity = value
		case "inflation_pass_through":
			params.InflationPassThrough = value
		case "employment_elasticity":
			params.EmploymentElasticity = value
		default:
			r.log.Warn().Str("param", name).Msg("Unknown calibration param in store")
		}
	}

	return params, rows.Err()
}

// Save upserts every parameter for a country.
func (r *ParamsRepository) Save(countryISO string, params Params) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for name, value := range params.AsMap() {
		_, err := tx.Exec(`
			INSERT INTO calibration_params (country_iso, param, value, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(country_iso, param) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, countryISO, name, value, now)
		if err != nil {
			return fmt.Errorf("failed to upsert param %s: %w", name, err)
		}
	}

	return tx.Commit()
}
