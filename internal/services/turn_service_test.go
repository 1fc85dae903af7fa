package services

import (
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradewarsim/engine/internal/database"
	"github.com/tradewarsim/engine/internal/domain"
	"github.com/tradewarsim/engine/internal/events"
	"github.com/tradewarsim/engine/internal/modules/budget"
	"github.com/tradewarsim/engine/internal/modules/countries"
	"github.com/tradewarsim/engine/internal/modules/snapshots"
	"github.com/tradewarsim/engine/pkg/logger"
)

type turnFixture struct {
	service   *TurnService
	countries *countries.Repository
	budgets   *budget.Service
	ledger    *budget.SubsidyLedger
	snaps     *snapshots.Repository
	db        *database.DB
}

func newTurnFixture(t *testing.T) *turnFixture {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	log := logger.New(logger.Config{Level: "error", Pretty: false})
	countryRepo := countries.NewRepository(db.Conn(), log)
	budgetRepo := budget.NewRepository(db.Conn(), log)
	ledger := budget.NewSubsidyLedger(db.Conn(), log)
	budgetService := budget.NewService(budgetRepo, ledger, log)
	snapshotRepo := snapshots.NewRepository(db.Conn(), log)
	eventMgr := events.NewManager(events.NewBus(), log)

	return &turnFixture{
		service:   NewTurnService(db, countryRepo, budgetService, ledger, snapshotRepo, eventMgr, log),
		countries: countryRepo,
		budgets:   budgetService,
		ledger:    ledger,
		snaps:     snapshotRepo,
		db:        db,
	}
}

func turnTestCountry() domain.Country {
	return domain.Country{
		ISOCode:          "JPN",
		Name:             "Japan",
		GDP:              4200000,
		UnemploymentRate: 2.6,
		InflationRate:    3.0,
		ApprovalRating:   45,
		Industries:       map[string]float64{"technology": 0.3},
		GDPHistory: map[int]float64{
			2022: 4000000,
			2023: 4100000,
			2024: 4200000,
		},
	}
}

func TestTurnService_CurrentTurnStartsAtZero(t *testing.T) {
	f := newTurnFixture(t)

	turn, err := f.service.CurrentTurn()
	require.NoError(t, err)
	assert.Zero(t, turn)
}

func TestTurnService_AdvanceAll(t *testing.T) {
	f := newTurnFixture(t)
	country := turnTestCountry()
	require.NoError(t, f.countries.Save(country))

	turn, err := f.service.AdvanceAll()
	require.NoError(t, err)
	assert.Equal(t, 1, turn)

	stored, err := f.service.CurrentTurn()
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	// Positive GDP history means the economy drifted upward.
	advanced, err := f.countries.Get("JPN")
	require.NoError(t, err)
	assert.Greater(t, advanced.GDP, country.GDP)
	assert.Contains(t, advanced.GDPHistory, 2025)

	// Inflation mean-reverts toward the 2% anchor.
	assert.Less(t, advanced.InflationRate, country.InflationRate)
	assert.Greater(t, advanced.InflationRate, 2.0)

	// A budget snapshot and a state snapshot were written.
	history, err := f.budgets.History("JPN")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].Turn)

	states, err := f.snaps.List("JPN")
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, 1, states[0].Turn)
	assert.Equal(t, "JPN", states[0].Country.ISOCode)
}

func TestTurnService_AdvanceExpiresSubsidies(t *testing.T) {
	f := newTurnFixture(t)
	country := turnTestCountry()
	require.NoError(t, f.countries.Save(country))

	_, err := f.ledger.Add(country, budget.SubsidyRequest{
		Sector: domain.SectorTechnology, Percentage: 10, Duration: 1,
	})
	require.NoError(t, err)

	_, err = f.service.AdvanceAll()
	require.NoError(t, err)

	remaining, err := f.ledger.List("JPN")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	// The expired subsidy no longer costs anything.
	b, err := f.budgets.Get(country)
	require.NoError(t, err)
	assert.Zero(t, b.Expenses["subsidies"])
}

func TestTurnService_SequentialTurns(t *testing.T) {
	f := newTurnFixture(t)
	require.NoError(t, f.countries.Save(turnTestCountry()))

	for i := 1; i <= 3; i++ {
		turn, err := f.service.AdvanceAll()
		require.NoError(t, err)
		assert.Equal(t, i, turn)
	}

	states, err := f.snaps.List("JPN")
	require.NoError(t, err)
	assert.Len(t, states, 3)

	history, err := f.budgets.History("JPN")
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestTurnService_ConcurrentAdvances(t *testing.T) {
	f := newTurnFixture(t)
	require.NoError(t, f.countries.Save(turnTestCountry()))

	var wg sync.WaitGroup
	turns := make([]int, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			turns[i], errs[i] = f.service.AdvanceAll()
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// Each advance resolved a distinct turn.
	sort.Ints(turns)
	assert.Equal(t, []int{1, 2}, turns)

	current, err := f.service.CurrentTurn()
	require.NoError(t, err)
	assert.Equal(t, 2, current)

	states, err := f.snaps.List("JPN")
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, 1, states[0].Turn)
	assert.Equal(t, 2, states[1].Turn)
}

func TestTurnService_CurrentTurnCorruptCounter(t *testing.T) {
	f := newTurnFixture(t)

	_, err := f.db.Exec(`INSERT INTO game_state (key, value) VALUES ('turn', 'not-a-number')`)
	require.NoError(t, err)

	_, err = f.service.CurrentTurn()
	assert.Error(t, err)

	_, err = f.service.AdvanceAll()
	assert.Error(t, err, "advance must not restart from turn 0 on a bad counter")
}
