package trade

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tradewarsim/engine/internal/domain"
)

// CountryGetter resolves a country by ISO code.
type CountryGetter interface {
	Get(isoCode string) (domain.Country, error)
}

// Handler handles trade agreement HTTP requests.
type Handler struct {
	service   *Service
	countries CountryGetter
	log       zerolog.Logger
}

// NewHandler creates a new trade handler.
func NewHandler(service *Service, countries CountryGetter, log zerolog.Logger) *Handler {
	return &Handler{
		service:   service,
		countries: countries,
		log:       log.With().Str("handler", "trade").Logger(),
	}
}

// Routes returns the trade routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/simulate_agreement", h.HandleSimulateAgreement)
	return r
}

// HandleSimulateAgreement simulates a bilateral trade agreement.
func (h *Handler) HandleSimulateAgreement(w http.ResponseWriter, r *http.Request) {
	var req AgreementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.CountryA == "" || req.CountryB == "" {
		h.writeError(w, http.StatusBadRequest, "country_a and country_b are required")
		return
	}
	if req.CountryA == req.CountryB {
		h.writeError(w, http.StatusBadRequest, "country_a and country_b must differ")
		return
	}

	a, err := h.countries.Get(req.CountryA)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	b, err := h.countries.Get(req.CountryB)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	impact, err := h.service.SimulateAgreement(a, b, req)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, impact)
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrValidation):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("Trade simulation failed")
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
