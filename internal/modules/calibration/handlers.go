package calibration

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tradewarsim/engine/internal/domain"
	"github.com/tradewarsim/engine/internal/events"
	"github.com/tradewarsim/engine/internal/modules/countries"
	"github.com/tradewarsim/engine/internal/modules/snapshots"
	"github.com/tradewarsim/engine/pkg/formulas"
)

// CalibrateRequest selects the metrics to fit.
type CalibrateRequest struct {
	TargetMetrics []string `json:"target_metrics"`
}

// Handler handles calibration HTTP requests.
type Handler struct {
	engine    *Engine
	countries *countries.Repository
	snaps     *snapshots.Repository
	eventMgr  *events.Manager
	log       zerolog.Logger
}

// NewHandler creates a new calibration handler.
func NewHandler(
	engine *Engine,
	countryRepo *countries.Repository,
	snaps *snapshots.Repository,
	eventMgr *events.Manager,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		engine:    engine,
		countries: countryRepo,
		snaps:     snaps,
		eventMgr:  eventMgr,
		log:       log.With().Str("handler", "calibration").Logger(),
	}
}

// HandleCalibrate runs a calibration for one country.
func (h *Handler) HandleCalibrate(w http.ResponseWriter, r *http.Request) {
	iso := chi.URLParam(r, "id")

	country, err := h.countries.Get(iso)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	var req CalibrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	history := h.buildHistory(country)
	result, err := h.engine.Calibrate(country, history, req.TargetMetrics)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.eventMgr.Emit(events.CalibrationComplete, "calibration", map[string]interface{}{
		"country": iso,
		"metrics": req.TargetMetrics,
	})
	h.writeJSON(w, http.StatusOK, result)
}

// buildHistory assembles observed series: GDP growth from the country's
// yearly history, inflation and unemployment from turn snapshots. Missing
// series stay empty and surface as insufficientData per metric.
func (h *Handler) buildHistory(country domain.Country) History {
	history := History{}

	years := make([]int, 0, len(country.GDPHistory))
	for y := range country.GDPHistory {
		years = append(years, y)
	}
	sort.Ints(years)
	levels := make([]float64, len(years))
	for i, y := range years {
		levels[i] = country.GDPHistory[y]
	}
	history.GDPGrowth = formulas.GrowthRates(levels)

	if series, err := h.snaps.MetricSeries(country.ISOCode, "inflation"); err == nil {
		history.Inflation = series
	}
	if series, err := h.snaps.MetricSeries(country.ISOCode, "unemployment"); err == nil {
		history.Unemployment = series
	}
	return history
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNoCalibrationTargets), errors.Is(err, domain.ErrValidation):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("Calibration request failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
