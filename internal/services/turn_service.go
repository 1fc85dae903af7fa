// Package services holds cross-module orchestration.
package services

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tradewarsim/engine/internal/database"
	"github.com/tradewarsim/engine/internal/domain"
	"github.com/tradewarsim/engine/internal/events"
	"github.com/tradewarsim/engine/internal/modules/budget"
	"github.com/tradewarsim/engine/internal/modules/countries"
	"github.com/tradewarsim/engine/internal/modules/snapshots"
	"github.com/tradewarsim/engine/pkg/formulas"
)

// TurnService advances the simulation one turn (one year). A service-level
// mutex serializes whole advances so the counter never sees a lost update,
// and per-country mutexes serialize single-country resolution against the
// API paths that mutate the same rows.
type TurnService struct {
	db        *database.DB
	countries *countries.Repository
	budgets   *budget.Service
	ledger    *budget.SubsidyLedger
	snaps     *snapshots.Repository
	eventMgr  *events.Manager
	log       zerolog.Logger

	advanceMu sync.Mutex
	mu        sync.Mutex
	locks     map[string]*sync.Mutex
}

// NewTurnService creates a turn service.
func NewTurnService(
	db *database.DB,
	countryRepo *countries.Repository,
	budgets *budget.Service,
	ledger *budget.SubsidyLedger,
	snaps *snapshots.Repository,
	eventMgr *events.Manager,
	log zerolog.Logger,
) *TurnService {
	return &TurnService{
		db:        db,
		countries: countryRepo,
		budgets:   budgets,
		ledger:    ledger,
		snaps:     snaps,
		eventMgr:  eventMgr,
		log:       log.With().Str("service", "turn").Logger(),
		locks:     make(map[string]*sync.Mutex),
	}
}

// CurrentTurn returns the global turn counter. A missing row means the
// game has not advanced yet and reads as turn 0; anything else is an error.
func (s *TurnService) CurrentTurn() (int, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM game_state WHERE key = 'turn'`).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read turn counter: %w", err)
	}
	turn, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("corrupt turn counter %q: %w", value, err)
	}
	return turn, nil
}

// AdvanceAll advances every country one turn and bumps the global counter.
// Serialized so concurrent calls resolve distinct turns.
func (s *TurnService) AdvanceAll() (int, error) {
	s.advanceMu.Lock()
	defer s.advanceMu.Unlock()

	turn, err := s.CurrentTurn()
	if err != nil {
		return 0, err
	}
	next := turn + 1

	s.eventMgr.Emit(events.TurnAdvanceStart, "turn", map[string]interface{}{"turn": next})

	all, err := s.countries.List()
	if err != nil {
		return turn, fmt.Errorf("failed to list countries: %w", err)
	}

	for _, country := range all {
		if err := s.AdvanceCountry(country.ISOCode, next); err != nil {
			s.eventMgr.Emit(events.ErrorOccurred, "turn", map[string]interface{}{
				"country": country.ISOCode,
				"turn":    next,
				"error":   err.Error(),
			})
			return turn, fmt.Errorf("failed to advance %s: %w", country.ISOCode, err)
		}
	}

	if _, err := s.db.Exec(`
		INSERT INTO game_state (key, value) VALUES ('turn', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, fmt.Sprintf("%d", next)); err != nil {
		return turn, fmt.Errorf("failed to store turn counter: %w", err)
	}

	s.eventMgr.Emit(events.TurnAdvanceComplete, "turn", map[string]interface{}{
		"turn":      next,
		"countries": len(all),
	})
	return next, nil
}

// AdvanceCountry runs the end-of-turn resolution for one country: subsidy
// decay, metric drift, budget reconciliation and a state snapshot.
func (s *TurnService) AdvanceCountry(iso string, turn int) error {
	lock := s.countryLock(iso)
	lock.Lock()
	defer lock.Unlock()

	country, err := s.countries.Get(iso)
	if err != nil {
		return err
	}

	expired, err := s.ledger.AdvanceTurn(iso)
	if err != nil {
		return err
	}
	for _, id := range expired {
		s.eventMgr.Emit(events.SubsidyExpired, "budget", map[string]interface{}{
			"country": iso,
			"id":      id,
		})
	}

	active, err := s.ledger.List(iso)
	if err != nil {
		return err
	}

	country = driftMetrics(country, active)
	if err := s.countries.Save(country); err != nil {
		return err
	}

	b, err := s.budgets.ReconcileSubsidies(country)
	if err != nil {
		return err
	}
	if err := s.budgets.AppendHistory(iso, turn, b); err != nil {
		return err
	}

	state := domain.EconomicState{
		Turn:      turn,
		Country:   country,
		Budget:    b,
		Subsidies: active,
	}
	if err := s.snaps.Save(state); err != nil {
		return err
	}

	s.log.Info().Str("country", iso).Int("turn", turn).Msg("Country advanced")
	return nil
}

func (s *TurnService) countryLock(iso string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[iso]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[iso] = lock
	}
	return lock
}

// driftMetrics applies one year of baseline growth plus the output and
// employment effects of active subsidies.
func driftMetrics(country domain.Country, active []domain.Subsidy) domain.Country {
	growth := baselineGrowth(country)

	for _, sub := range active {
		share := country.Industries[string(sub.Sector)]
		if share == 0 {
			share = 0.1
		}
		growth += sub.Effects.OutputIncreasePercentage * share * 0.1
		country.UnemploymentRate -= sub.Effects.UnemploymentReduction * 0.2
	}

	country.GDP *= 1 + formulas.Clamp(growth, -10, 10)/100
	country.UnemploymentRate = formulas.Clamp(country.UnemploymentRate, 0.5, 35)
	// Inflation mean-reverts toward the 2% anchor.
	country.InflationRate += (2 - country.InflationRate) * 0.2

	year := latestYear(country.GDPHistory) + 1
	if country.GDPHistory == nil {
		country.GDPHistory = map[int]float64{}
	}
	country.GDPHistory[year] = country.GDP

	return country
}

func baselineGrowth(country domain.Country) float64 {
	years := make([]int, 0, len(country.GDPHistory))
	for y := range country.GDPHistory {
		years = append(years, y)
	}
	if len(years) < 2 {
		return 2.0
	}

	// Order the level series by year before deriving growth.
	sort.Ints(years)
	levels := make([]float64, len(years))
	for i, y := range years {
		levels[i] = country.GDPHistory[y]
	}
	rates := formulas.GrowthRates(levels)
	if len(rates) == 0 {
		return 2.0
	}
	return formulas.Clamp(formulas.Mean(rates), -5, 8)
}

func latestYear(history map[int]float64) int {
	latest := 0
	for y := range history {
		if y > latest {
			latest = y
		}
	}
	if latest == 0 {
		latest = 2024
	}
	return latest
}
