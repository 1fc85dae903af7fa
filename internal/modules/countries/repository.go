// Package countries persists and serves the per-country economic state.
package countries

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tradewarsim/engine/internal/domain"
)

// Repository handles CRUD for countries.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new country repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "countries").Logger(),
	}
}

const countryColumns = `iso_code, name, gdp, population, unemployment_rate, inflation_rate,
	approval_rating, COALESCE(government_type, ''), COALESCE(region, ''),
	industries_json, gdp_history_json, trading_partners_json`

// List returns all countries ordered by name.
func (r *Repository) List() ([]domain.Country, error) {
	rows, err := r.db.Query(`SELECT ` + countryColumns + ` FROM countries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query countries: %w", err)
	}
	defer rows.Close()

	out := []domain.Country{}
	for rows.Next() {
		c, err := scanCountry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Get returns one country by ISO code.
func (r *Repository) Get(iso string) (domain.Country, error) {
	row := r.db.QueryRow(`SELECT `+countryColumns+` FROM countries WHERE iso_code = ?`, iso)
	c, err := scanCountry(row)
	if err == sql.ErrNoRows {
		return domain.Country{}, fmt.Errorf("%w: country %q", domain.ErrNotFound, iso)
	}
	if err != nil {
		return domain.Country{}, err
	}
	return c, nil
}

// Save upserts a country.
func (r *Repository) Save(c domain.Country) error {
	industries, err := json.Marshal(orEmptyMap(c.Industries))
	if err != nil {
		return fmt.Errorf("failed to marshal industries: %w", err)
	}
	history, err := json.Marshal(orEmptyHistory(c.GDPHistory))
	if err != nil {
		return fmt.Errorf("failed to marshal gdp history: %w", err)
	}
	partners, err := json.Marshal(orEmptyPartners(c.TradingPartners))
	if err != nil {
		return fmt.Errorf("failed to marshal trading partners: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO countries (iso_code, name, gdp, population, unemployment_rate, inflation_rate,
			approval_rating, government_type, region, industries_json, gdp_history_json, trading_partners_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(iso_code) DO UPDATE SET
			name = excluded.name,
			gdp = excluded.gdp,
			population = excluded.population,
			unemployment_rate = excluded.unemployment_rate,
			inflation_rate = excluded.inflation_rate,
			approval_rating = excluded.approval_rating,
			government_type = excluded.government_type,
			region = excluded.region,
			industries_json = excluded.industries_json,
			gdp_history_json = excluded.gdp_history_json,
			trading_partners_json = excluded.trading_partners_json
	`, c.ISOCode, c.Name, c.GDP, c.Population, c.UnemploymentRate, c.InflationRate,
		c.ApprovalRating, c.GovernmentType, c.Region, string(industries), string(history), string(partners))
	if err != nil {
		return fmt.Errorf("failed to upsert country %s: %w", c.ISOCode, err)
	}
	return nil
}

// Count returns the number of countries, used to decide whether to seed.
func (r *Repository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM countries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count countries: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCountry(row rowScanner) (domain.Country, error) {
	var c domain.Country
	var industries, history, partners string
	err := row.Scan(&c.ISOCode, &c.Name, &c.GDP, &c.Population, &c.UnemploymentRate,
		&c.InflationRate, &c.ApprovalRating, &c.GovernmentType, &c.Region,
		&industries, &history, &partners)
	if err != nil {
		return domain.Country{}, err
	}
	if err := json.Unmarshal([]byte(industries), &c.Industries); err != nil {
		c.Industries = map[string]float64{}
	}
	if err := json.Unmarshal([]byte(history), &c.GDPHistory); err != nil {
		c.GDPHistory = map[int]float64{}
	}
	if err := json.Unmarshal([]byte(partners), &c.TradingPartners); err != nil {
		c.TradingPartners = nil
	}
	return c, nil
}

func orEmptyMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}

func orEmptyHistory(m map[int]float64) map[int]float64 {
	if m == nil {
		return map[int]float64{}
	}
	return m
}

func orEmptyPartners(p []domain.TradingPartner) []domain.TradingPartner {
	if p == nil {
		return []domain.TradingPartner{}
	}
	return p
}
