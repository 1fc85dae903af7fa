package diplomacy

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tradewarsim/engine/internal/domain"
	"github.com/tradewarsim/engine/pkg/formulas"
)

// Repository persists relation levels. A pair is stored once, directed;
// lookups check both directions.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new relations repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "relations").Logger(),
	}
}

// Get returns the relation between two countries, in either stored
// direction. domain.ErrNotFound when none exists.
func (r *Repository) Get(countryA, countryB string) (domain.RelationLevel, error) {
	row := r.db.QueryRow(`
		SELECT country_a, country_b, relation_level, COALESCE(last_event, ''), agreements_json, trade_volume
		FROM relations
		WHERE (country_a = ? AND country_b = ?) OR (country_a = ? AND country_b = ?)
	`, countryA, countryB, countryB, countryA)

	rel, err := scanRelation(row)
	if err == sql.ErrNoRows {
		return domain.RelationLevel{}, fmt.Errorf("%w: relation %s-%s", domain.ErrNotFound, countryA, countryB)
	}
	if err != nil {
		return domain.RelationLevel{}, fmt.Errorf("failed to load relation: %w", err)
	}
	return rel, nil
}

// ListFor returns all relations involving a country.
func (r *Repository) ListFor(iso string) ([]domain.RelationLevel, error) {
	rows, err := r.db.Query(`
		SELECT country_a, country_b, relation_level, COALESCE(last_event, ''), agreements_json, trade_volume
		FROM relations
		WHERE country_a = ? OR country_b = ?
	`, iso, iso)
	if err != nil {
		return nil, fmt.Errorf("failed to query relations: %w", err)
	}
	defer rows.Close()

	relations := []domain.RelationLevel{}
	for rows.Next() {
		rel, err := scanRelation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan relation: %w", err)
		}
		relations = append(relations, rel)
	}
	return relations, rows.Err()
}

// Upsert writes a relation, clamping the level to [-1, 1].
func (r *Repository) Upsert(rel domain.RelationLevel) error {
	rel.RelationLevel = formulas.Clamp(rel.RelationLevel, -1, 1)

	agreements, err := json.Marshal(rel.Agreements)
	if err != nil {
		return fmt.Errorf("failed to marshal agreements: %w", err)
	}
	if rel.Agreements == nil {
		agreements = []byte("[]")
	}

	_, err = r.db.Exec(`
		INSERT INTO relations (country_a, country_b, relation_level, last_event, agreements_json, trade_volume)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(country_a, country_b) DO UPDATE SET
			relation_level = excluded.relation_level,
			last_event = excluded.last_event,
			agreements_json = excluded.agreements_json,
			trade_volume = excluded.trade_volume
	`, rel.CountryA, rel.CountryB, rel.RelationLevel, rel.LastEvent, string(agreements), rel.TradeVolume)
	if err != nil {
		return fmt.Errorf("failed to upsert relation: %w", err)
	}
	return nil
}

// AdjustLevel shifts a relation by delta (clamped to [-1, 1]) and records
// the triggering event. Missing relations are created at the delta.
func (r *Repository) AdjustLevel(countryA, countryB string, delta float64, event string) (domain.RelationLevel, error) {
	rel, err := r.Get(countryA, countryB)
	if err != nil {
		rel = domain.RelationLevel{CountryA: countryA, CountryB: countryB}
	}

	rel.RelationLevel = formulas.Clamp(rel.RelationLevel+delta, -1, 1)
	rel.LastEvent = event

	if err := r.Upsert(rel); err != nil {
		return domain.RelationLevel{}, err
	}
	return rel, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRelation(row rowScanner) (domain.RelationLevel, error) {
	var rel domain.RelationLevel
	var agreements string
	if err := row.Scan(&rel.CountryA, &rel.CountryB, &rel.RelationLevel, &rel.LastEvent, &agreements, &rel.TradeVolume); err != nil {
		return domain.RelationLevel{}, err
	}
	if err := json.Unmarshal([]byte(agreements), &rel.Agreements); err != nil {
		rel.Agreements = nil
	}
	return rel, nil
}
