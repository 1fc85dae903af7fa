package economy

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tradewarsim/engine/internal/domain"
)

// DecisionRepository stores applied policy decisions. Decisions are
// immutable once recorded.
type DecisionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewDecisionRepository creates a new decision repository.
func NewDecisionRepository(db *sql.DB, log zerolog.Logger) *DecisionRepository {
	return &DecisionRepository{
		db:  db,
		log: log.With().Str("repository", "policy_decisions").Logger(),
	}
}

// Record inserts a decision and returns it with id and timestamp set.
func (r *DecisionRepository) Record(countryISO string, policy Policy) (domain.PolicyDecision, error) {
	decision := domain.PolicyDecision{
		ID:         uuid.New().String(),
		CountryISO: countryISO,
		Policy:     policy.Type,
		Value:      policy.Value,
		Target:     policy.Target,
		Timestamp:  time.Now(),
	}

	_, err := r.db.Exec(`
		INSERT INTO policy_decisions (id, country_iso, policy, value, target, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, decision.ID, decision.CountryISO, string(decision.Policy), decision.Value, decision.Target, decision.Timestamp.Unix())
	if err != nil {
		return domain.PolicyDecision{}, fmt.Errorf("failed to record policy decision: %w", err)
	}

	return decision, nil
}

// History returns a country's decisions, most recent first.
func (r *DecisionRepository) History(countryISO string, limit int) ([]domain.PolicyDecision, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT id, country_iso, policy, value, target, created_at
		FROM policy_decisions
		WHERE country_iso = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, countryISO, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query policy history: %w", err)
	}
	defer rows.Close()

	decisions := []domain.PolicyDecision{}
	for rows.Next() {
		var d domain.PolicyDecision
		var policy string
		var createdAt int64
		if err := rows.Scan(&d.ID, &d.CountryISO, &policy, &d.Value, &d.Target, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan policy decision: %w", err)
		}
		d.Policy = domain.PolicyKind(policy)
		d.Timestamp = time.Unix(createdAt, 0)
		decisions = append(decisions, d)
	}

	return decisions, rows.Err()
}
