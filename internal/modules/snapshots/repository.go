// Package snapshots stores the per-turn economic state of each country as
// compact binary blobs for historical charting.
package snapshots

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tradewarsim/engine/internal/domain"
)

// Repository persists msgpack-encoded state snapshots keyed by turn.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a snapshot repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "snapshots").Logger(),
	}
}

// Save writes the snapshot for a country-turn, replacing any existing one.
func (r *Repository) Save(state domain.EconomicState) error {
	blob, err := msgpack.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO snapshots (country_iso, turn, state_blob, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(country_iso, turn) DO UPDATE SET
			state_blob = excluded.state_blob,
			created_at = excluded.created_at
	`, state.Country.ISOCode, state.Turn, blob, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// List returns a country's snapshots in turn order.
func (r *Repository) List(countryISO string) ([]domain.EconomicState, error) {
	rows, err := r.db.Query(`
		SELECT state_blob FROM snapshots WHERE country_iso = ? ORDER BY turn ASC
	`, countryISO)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	states := []domain.EconomicState{}
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		var state domain.EconomicState
		if err := msgpack.Unmarshal(blob, &state); err != nil {
			// A corrupt blob should not take down the whole history.
			r.log.Error().Err(err).Str("country", countryISO).Msg("Skipping undecodable snapshot")
			continue
		}
		states = append(states, state)
	}
	return states, rows.Err()
}

// MetricSeries extracts one metric's series from a country's snapshots,
// in turn order. Supported: inflation, unemployment, approval, gdp.
func (r *Repository) MetricSeries(countryISO, metric string) ([]float64, error) {
	states, err := r.List(countryISO)
	if err != nil {
		return nil, err
	}

	series := make([]float64, 0, len(states))
	for _, s := range states {
		switch metric {
		case "inflation":
			series = append(series, s.Country.InflationRate)
		case "unemployment":
			series = append(series, s.Country.UnemploymentRate)
		case "approval":
			series = append(series, s.Country.ApprovalRating)
		case "gdp":
			series = append(series, s.Country.GDP)
		default:
			return nil, fmt.Errorf("%w: unknown snapshot metric %q", domain.ErrValidation, metric)
		}
	}
	return series, nil
}
