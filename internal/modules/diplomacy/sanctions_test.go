package diplomacy

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradewarsim/engine/internal/database"
	"github.com/tradewarsim/engine/internal/domain"
	"github.com/tradewarsim/engine/pkg/logger"
)

func newTestSimulator(t *testing.T) (*SanctionSimulator, *Repository) {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	log := logger.New(logger.Config{Level: "error", Pretty: false})
	relations := NewRepository(db.Conn(), log)
	return NewSanctionSimulator(relations, log), relations
}

func sanctionCountries() (domain.Country, domain.Country) {
	usa := domain.Country{
		ISOCode: "USA", Name: "USA", GDP: 25000000, ApprovalRating: 48,
		TradingPartners: []domain.TradingPartner{
			{Country: "CHN", Volume: 650000},
			{Country: "DEU", Volume: 240000},
		},
	}
	chn := domain.Country{
		ISOCode: "CHN", Name: "Kina", GDP: 18000000, ApprovalRating: 60,
	}
	return usa, chn
}

func TestSimulate_SeverityBounds(t *testing.T) {
	sim, _ := newTestSimulator(t)
	usa, chn := sanctionCountries()

	for _, severity := range []int{0, -1, 11} {
		_, err := sim.Simulate(usa, chn, SanctionRequest{
			SourceCountry: "USA", TargetCountry: "CHN", Severity: severity,
		})
		assert.True(t, errors.Is(err, domain.ErrValidation), "severity %d", severity)
	}
}

func TestSimulate_Impact(t *testing.T) {
	sim, relations := newTestSimulator(t)
	usa, chn := sanctionCountries()

	require.NoError(t, relations.Upsert(domain.RelationLevel{
		CountryA: "USA", CountryB: "CHN", RelationLevel: -0.4, TradeVolume: 650000,
	}))

	impact, err := sim.Simulate(usa, chn, SanctionRequest{
		SourceCountry: "USA", TargetCountry: "CHN", Severity: 5,
	})
	require.NoError(t, err)

	assert.InDelta(t, -0.4, impact.RelationChange, 1e-9)
	assert.InDelta(t, -0.8, impact.NewRelationLevel, 1e-9)
	assert.Greater(t, impact.TradeVolumeLoss, 0.0)

	// Both sides lose, the target more than the source.
	assert.Less(t, impact.TargetGDPImpact, 0.0)
	assert.Less(t, impact.SourceGDPImpact, 0.0)
	assert.Less(t, impact.TargetGDPImpact, impact.SourceGDPImpact)

	assert.Contains(t, impact.Description, "hostile")
}

func TestSimulate_SeverityScalesLoss(t *testing.T) {
	sim, _ := newTestSimulator(t)
	usa, chn := sanctionCountries()

	mild, err := sim.Simulate(usa, chn, SanctionRequest{SourceCountry: "USA", TargetCountry: "CHN", Severity: 2})
	require.NoError(t, err)
	harsh, err := sim.Simulate(usa, chn, SanctionRequest{SourceCountry: "USA", TargetCountry: "CHN", Severity: 9})
	require.NoError(t, err)

	assert.Greater(t, harsh.TradeVolumeLoss, mild.TradeVolumeLoss)
	assert.Less(t, harsh.RelationChange, mild.RelationChange)
	assert.GreaterOrEqual(t, harsh.RiskOfRetaliation.Rank(), mild.RiskOfRetaliation.Rank())
}

func TestSimulate_IsPure(t *testing.T) {
	sim, relations := newTestSimulator(t)
	usa, chn := sanctionCountries()

	require.NoError(t, relations.Upsert(domain.RelationLevel{
		CountryA: "USA", CountryB: "CHN", RelationLevel: -0.4, TradeVolume: 650000,
	}))

	_, err := sim.Simulate(usa, chn, SanctionRequest{SourceCountry: "USA", TargetCountry: "CHN", Severity: 8})
	require.NoError(t, err)

	rel, err := relations.Get("USA", "CHN")
	require.NoError(t, err)
	assert.InDelta(t, -0.4, rel.RelationLevel, 1e-9)
}
