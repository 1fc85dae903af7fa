package calibration

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradewarsim/engine/internal/database"
	"github.com/tradewarsim/engine/internal/domain"
	"github.com/tradewarsim/engine/internal/modules/economy"
	"github.com/tradewarsim/engine/pkg/logger"
)

func newTestEngine(t *testing.T) (*Engine, *economy.ParamsRepository) {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	log := logger.New(logger.Config{Level: "error", Pretty: false})
	paramsRepo := economy.NewParamsRepository(db.Conn(), log)
	return NewEngine(paramsRepo, log), paramsRepo
}

func testCountry() domain.Country {
	return domain.Country{ISOCode: "USA", Name: "USA", GDP: 25000000}
}

func TestEngine_Calibrate_NoTargets(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Calibrate(testCountry(), History{}, nil)
	assert.True(t, errors.Is(err, domain.ErrNoCalibrationTargets))

	_, err = engine.Calibrate(testCountry(), History{}, []string{})
	assert.True(t, errors.Is(err, domain.ErrNoCalibrationTargets))
}

func TestEngine_Calibrate_UnknownMetric(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Calibrate(testCountry(), History{}, []string{"happiness"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestEngine_Calibrate_InsufficientData(t *testing.T) {
	engine, paramsRepo := newTestEngine(t)

	history := History{GDPGrowth: []float64{2.1}}
	result, err := engine.Calibrate(testCountry(), history, []string{MetricGDPGrowth})
	assert.NoError(t, err)

	report := result.Report.Metrics[MetricGDPGrowth]
	assert.Equal(t, StatusInsufficientData, report.Status)
	assert.Zero(t, report.Change)

	// The parameter must stay at its default.
	params, err := paramsRepo.Get("USA")
	assert.NoError(t, err)
	assert.Equal(t, economy.DefaultParams().GDPSensitivity, params.GDPSensitivity)
}

func TestEngine_Calibrate_FitsPersistentGrowth(t *testing.T) {
	engine, paramsRepo := newTestEngine(t)

	// Each year's growth is roughly 1.3x the previous: the fitted
	// sensitivity should move well above the default 1.0.
	history := History{GDPGrowth: []float64{1.0, 1.3, 1.69, 2.20, 2.86, 3.71}}

	result, err := engine.Calibrate(testCountry(), history, []string{MetricGDPGrowth})
	require.NoError(t, err)

	fitted := result.CalibratedParams["gdp_sensitivity"]
	assert.Greater(t, fitted, 1.0)
	assert.GreaterOrEqual(t, fitted, economy.ParamMin)
	assert.LessOrEqual(t, fitted, economy.ParamMax)

	report := result.Report.Metrics[MetricGDPGrowth]
	assert.Empty(t, report.Status)
	assert.InDelta(t, report.After-report.Before, report.Change, 1e-9)

	// The fit must be persisted.
	params, err := paramsRepo.Get("USA")
	assert.NoError(t, err)
	assert.InDelta(t, fitted, params.GDPSensitivity, 1e-9)
}

func TestEngine_Calibrate_Idempotent(t *testing.T) {
	engine, _ := newTestEngine(t)

	history := History{
		GDPGrowth: []float64{2.0, 2.3, 2.1, 2.6, 2.4, 2.8},
	}

	first, err := engine.Calibrate(testCountry(), history, []string{MetricGDPGrowth})
	require.NoError(t, err)

	second, err := engine.Calibrate(testCountry(), history, []string{MetricGDPGrowth})
	require.NoError(t, err)

	// Re-running on unchanged history starts from the converged parameter,
	// so the second pass must not move it further than the first did.
	firstChange := math.Abs(first.Report.Metrics[MetricGDPGrowth].Change)
	secondChange := math.Abs(second.Report.Metrics[MetricGDPGrowth].Change)
	assert.LessOrEqual(t, secondChange, firstChange+1e-6)

	assert.InDelta(t,
		first.CalibratedParams["gdp_sensitivity"],
		second.CalibratedParams["gdp_sensitivity"],
		1e-3)
}

func TestEngine_Calibrate_MultipleMetrics(t *testing.T) {
	engine, _ := newTestEngine(t)

	history := History{
		GDPGrowth: []float64{2.0, 2.2, 2.5, 2.3},
		Inflation: []float64{1.8},
	}

	result, err := engine.Calibrate(testCountry(), history, []string{MetricGDPGrowth, MetricInflation, MetricUnemployment})
	require.NoError(t, err)

	assert.Empty(t, result.Report.Metrics[MetricGDPGrowth].Status)
	assert.Equal(t, StatusInsufficientData, result.Report.Metrics[MetricInflation].Status)
	assert.Equal(t, StatusInsufficientData, result.Report.Metrics[MetricUnemployment].Status)
}
