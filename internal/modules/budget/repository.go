package budget

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradewarsim/engine/internal/domain"
)

// Repository persists budgets and their per-turn history.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new budget repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "budgets").Logger(),
	}
}

// Get loads a country's budget. domain.ErrNotFound when absent.
func (r *Repository) Get(countryISO string) (domain.Budget, error) {
	var revenueJSON, expensesJSON, editableJSON string
	var debt float64

	err := r.db.QueryRow(`
		SELECT revenue_json, expenses_json, editable_json, debt
		FROM budgets WHERE country_iso = ?
	`, countryISO).Scan(&revenueJSON, &expensesJSON, &editableJSON, &debt)
	if err == sql.ErrNoRows {
		return domain.Budget{}, fmt.Errorf("%w: budget for %q", domain.ErrNotFound, countryISO)
	}
	if err != nil {
		return domain.Budget{}, fmt.Errorf("failed to load budget: %w", err)
	}

	b := domain.Budget{CountryISO: countryISO, Debt: debt}
	if err := json.Unmarshal([]byte(revenueJSON), &b.Revenue); err != nil {
		return domain.Budget{}, fmt.Errorf("corrupt revenue data for %s: %w", countryISO, err)
	}
	if err := json.Unmarshal([]byte(expensesJSON), &b.Expenses); err != nil {
		return domain.Budget{}, fmt.Errorf("corrupt expense data for %s: %w", countryISO, err)
	}
	if err := json.Unmarshal([]byte(editableJSON), &b.EditableCategories); err != nil {
		b.EditableCategories = nil
	}

	b.Recompute()
	return b, nil
}

// Save upserts a budget. Derived totals are recomputed before writing so
// the stored state always satisfies the budget identity.
func (r *Repository) Save(b domain.Budget) error {
	return r.save(r.db, b)
}

// SaveTx is Save inside an existing transaction.
func (r *Repository) SaveTx(tx *sql.Tx, b domain.Budget) error {
	return r.save(tx, b)
}

func (r *Repository) save(e execer, b domain.Budget) error {
	b.Recompute()

	revenue, err := json.Marshal(b.Revenue)
	if err != nil {
		return fmt.Errorf("failed to marshal revenue: %w", err)
	}
	expenses, err := json.Marshal(b.Expenses)
	if err != nil {
		return fmt.Errorf("failed to marshal expenses: %w", err)
	}
	editable, err := json.Marshal(b.EditableCategories)
	if err != nil {
		return fmt.Errorf("failed to marshal editable categories: %w", err)
	}

	_, err = e.Exec(`
		INSERT INTO budgets (country_iso, revenue_json, expenses_json, editable_json, debt, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(country_iso) DO UPDATE SET
			revenue_json = excluded.revenue_json,
			expenses_json = excluded.expenses_json,
			editable_json = excluded.editable_json,
			debt = excluded.debt,
			updated_at = excluded.updated_at
	`, b.CountryISO, string(revenue), string(expenses), string(editable), b.Debt, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save budget for %s: %w", b.CountryISO, err)
	}
	return nil
}

// AppendHistory records the budget totals for a completed turn.
func (r *Repository) AppendHistory(countryISO string, turn int, b domain.Budget) error {
	_, err := r.db.Exec(`
		INSERT INTO budget_history (country_iso, turn, total_revenue, total_expenditure, balance, debt, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, countryISO, turn, b.TotalRevenue, b.TotalExpenditure, b.Balance, b.Debt, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to append budget history: %w", err)
	}
	return nil
}

// History returns the stored budget snapshots, oldest first.
func (r *Repository) History(countryISO string) ([]Snapshot, error) {
	rows, err := r.db.Query(`
		SELECT turn, total_revenue, total_expenditure, balance, debt
		FROM budget_history
		WHERE country_iso = ?
		ORDER BY turn ASC
	`, countryISO)
	if err != nil {
		return nil, fmt.Errorf("failed to query budget history: %w", err)
	}
	defer rows.Close()

	history := []Snapshot{}
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.Turn, &s.TotalRevenue, &s.TotalExpenditure, &s.Balance, &s.Debt); err != nil {
			return nil, fmt.Errorf("failed to scan budget snapshot: %w", err)
		}
		history = append(history, s)
	}
	return history, rows.Err()
}
