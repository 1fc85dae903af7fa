// Package calibration fits the effect model's sensitivity coefficients
// against a country's observed history.
package calibration

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/optimize"

	"github.com/tradewarsim/engine/internal/domain"
	"github.com/tradewarsim/engine/internal/modules/economy"
	"github.com/tradewarsim/engine/pkg/formulas"
)

// Metric names accepted as calibration targets.
const (
	MetricGDPGrowth    = "gdp_growth"
	MetricInflation    = "inflation"
	MetricUnemployment = "unemployment"
)

// StatusInsufficientData marks a metric skipped for lack of history.
const StatusInsufficientData = "insufficientData"

const (
	maxIterations  = 100
	convergenceEps = 1e-6
	smoothPeriod   = 2
	penaltyWeight  = 1000.0
)

// History holds the observed yearly series per metric. Values are plain
// percentages.
type History struct {
	GDPGrowth    []float64
	Inflation    []float64
	Unemployment []float64
}

// MetricReport is the before/after/change entry for one calibrated metric.
type MetricReport struct {
	Status string  `json:"status,omitempty"`
	Before float64 `json:"before"`
	After  float64 `json:"after"`
	Change float64 `json:"change"`
}

// Report groups the per-metric results.
type Report struct {
	Metrics map[string]MetricReport `json:"metrics"`
}

// Result is the full calibration response.
type Result struct {
	TargetMetrics    []string           `json:"target_metrics"`
	Report           Report             `json:"report"`
	CalibratedParams map[string]float64 `json:"calibrated_params"`
}

// Engine runs bounded least-squares fits of the model's sensitivity
// coefficients. Idempotent at convergence: re-running on unchanged history
// leaves the parameters in place.
type Engine struct {
	paramsRepo *economy.ParamsRepository
	log        zerolog.Logger
}

// NewEngine creates a calibration engine.
func NewEngine(paramsRepo *economy.ParamsRepository, log zerolog.Logger) *Engine {
	return &Engine{
		paramsRepo: paramsRepo,
		log:        log.With().Str("component", "calibration").Logger(),
	}
}

// Calibrate fits the requested metrics and persists the adjusted params.
// Metrics with fewer than two observed points are reported as
// insufficientData instead of failing the run.
func (e *Engine) Calibrate(country domain.Country, history History, targetMetrics []string) (Result, error) {
	if len(targetMetrics) == 0 {
		return Result{}, domain.ErrNoCalibrationTargets
	}
	for _, metric := range targetMetrics {
		switch metric {
		case MetricGDPGrowth, MetricInflation, MetricUnemployment:
		default:
			return Result{}, fmt.Errorf("%w: unknown calibration metric %q", domain.ErrValidation, metric)
		}
	}

	params, err := e.paramsRepo.Get(country.ISOCode)
	if err != nil {
		// Degrade to global-average parameters rather than failing the run.
		e.log.Warn().Err(err).Str("country", country.ISOCode).Msg("Falling back to default params")
		params = economy.DefaultParams()
	}

	result := Result{
		TargetMetrics: targetMetrics,
		Report:        Report{Metrics: make(map[string]MetricReport)},
	}

	for _, metric := range targetMetrics {
		observed := seriesFor(metric, history)
		current := paramFor(metric, params)

		if len(observed) < 2 {
			result.Report.Metrics[metric] = MetricReport{Status: StatusInsufficientData}
			continue
		}

		fitted, report := e.fitMetric(observed, current)
		setParamFor(metric, &params, fitted)
		result.Report.Metrics[metric] = report

		e.log.Info().
			Str("country", country.ISOCode).
			Str("metric", metric).
			Float64("before", report.Before).
			Float64("after", report.After).
			Msg("Metric calibrated")
	}

	if err := e.paramsRepo.Save(country.ISOCode, params); err != nil {
		return Result{}, fmt.Errorf("failed to persist calibrated params: %w", err)
	}

	result.CalibratedParams = params.AsMap()
	return result, nil
}

// fitMetric minimizes the squared error between p*baseline and the observed
// series, where baseline is the smoothed one-step-lagged history. Bounded
// to the model's parameter interval; Nelder-Mead capped at maxIterations.
func (e *Engine) fitMetric(observed []float64, current float64) (float64, MetricReport) {
	smoothed := formulas.SmoothEMA(observed, smoothPeriod)
	if smoothed == nil {
		smoothed = observed
	}

	baseline := smoothed[:len(smoothed)-1]
	target := observed[1:]

	objective := func(x []float64) float64 {
		p := formulas.Clamp(x[0], economy.ParamMin, economy.ParamMax)
		modeled := make([]float64, len(baseline))
		for i, b := range baseline {
			modeled[i] = p * b
		}
		obj := formulas.SumSquaredError(modeled, target)
		// Penalty keeps the optimizer from wandering outside the bounds.
		if x[0] < economy.ParamMin {
			obj += penaltyWeight * (economy.ParamMin - x[0]) * (economy.ParamMin - x[0])
		}
		if x[0] > economy.ParamMax {
			obj += penaltyWeight * (x[0] - economy.ParamMax) * (x[0] - economy.ParamMax)
		}
		return obj
	}

	problem := optimize.Problem{Func: objective}
	settings := &optimize.Settings{
		MajorIterations: maxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   convergenceEps,
			Iterations: 10,
		},
	}

	fitted := current
	result, err := optimize.Minimize(problem, []float64{current}, settings, &optimize.NelderMead{})
	if err == nil && finite(result.X[0]) {
		fitted = formulas.Clamp(result.X[0], economy.ParamMin, economy.ParamMax)
	} else {
		e.log.Warn().Err(err).Msg("Calibration fit failed, keeping current parameter")
	}

	last := baseline[len(baseline)-1]
	before := current * last
	after := fitted * last
	return fitted, MetricReport{
		Before: formulas.Sanitize(before, 0),
		After:  formulas.Sanitize(after, 0),
		Change: formulas.Sanitize(after-before, 0),
	}
}

func seriesFor(metric string, history History) []float64 {
	switch metric {
	case MetricGDPGrowth:
		return history.GDPGrowth
	case MetricInflation:
		return history.Inflation
	case MetricUnemployment:
		return history.Unemployment
	}
	return nil
}

func paramFor(metric string, params economy.Params) float64 {
	switch metric {
	case MetricGDPGrowth:
		return params.GDPSensitivity
	case MetricInflation:
		return params.InflationPassThrough
	case MetricUnemployment:
		return params.EmploymentElasticity
	}
	return 1.0
}

func setParamFor(metric string, params *economy.Params, value float64) {
	switch metric {
	case MetricGDPGrowth:
		params.GDPSensitivity = value
	case MetricInflation:
		params.InflationPassThrough = value
	case MetricUnemployment:
		params.EmploymentElasticity = value
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
