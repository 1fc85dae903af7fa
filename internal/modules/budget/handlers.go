package budget

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tradewarsim/engine/internal/domain"
	"github.com/tradewarsim/engine/internal/events"
	"github.com/tradewarsim/engine/internal/modules/countries"
)

// Handler handles budget and subsidy HTTP requests.
type Handler struct {
	service   *Service
	ledger    *SubsidyLedger
	countries *countries.Repository
	eventMgr  *events.Manager
	log       zerolog.Logger
}

// NewHandler creates a new budget handler.
func NewHandler(
	service *Service,
	ledger *SubsidyLedger,
	countryRepo *countries.Repository,
	eventMgr *events.Manager,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service:   service,
		ledger:    ledger,
		countries: countryRepo,
		eventMgr:  eventMgr,
		log:       log.With().Str("handler", "budget").Logger(),
	}
}

// Routes mounts the budget routes on a router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/{countryId}", h.HandleGetBudget)
	r.Post("/{countryId}/allocate", h.HandleAllocate)
	r.Post("/{countryId}/simulate", h.HandleSimulate)
	r.Get("/{countryId}/historical", h.HandleHistorical)
	r.Get("/{countryId}/subsidies", h.HandleListSubsidies)
	r.Post("/{countryId}/subsidies", h.HandleAddSubsidy)
	r.Post("/{countryId}/subsidies/preview", h.HandlePreviewSubsidy)
	r.Delete("/{countryId}/subsidies/{id}", h.HandleRemoveSubsidy)
}

// HandleGetBudget returns the country's budget, creating the default on
// first access.
func (h *Handler) HandleGetBudget(w http.ResponseWriter, r *http.Request) {
	country, ok := h.loadCountry(w, r)
	if !ok {
		return
	}

	b, err := h.service.Get(country)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, b)
}

// HandleAllocate sets an editable expense category and returns the updated
// budget.
func (h *Handler) HandleAllocate(w http.ResponseWriter, r *http.Request) {
	country, ok := h.loadCountry(w, r)
	if !ok {
		return
	}

	var req AllocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, err := h.service.Allocate(country, req)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.eventMgr.Emit(events.BudgetAllocated, "budget", map[string]interface{}{
		"country":  country.ISOCode,
		"category": req.Category,
		"value":    req.Value,
	})
	h.writeJSON(w, http.StatusOK, b)
}

// HandleSimulate returns the effect of an allocation without committing it.
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	country, ok := h.loadCountry(w, r)
	if !ok {
		return
	}

	var req AllocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	effect, err := h.service.Simulate(country, req)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, effect)
}

// HandleHistorical returns the stored per-turn budget snapshots.
func (h *Handler) HandleHistorical(w http.ResponseWriter, r *http.Request) {
	countryID := chi.URLParam(r, "countryId")

	history, err := h.service.History(countryID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}

// HandleListSubsidies returns the country's active subsidies.
func (h *Handler) HandleListSubsidies(w http.ResponseWriter, r *http.Request) {
	countryID := chi.URLParam(r, "countryId")

	subsidies, err := h.ledger.List(countryID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"subsidies": subsidies})
}

// HandleAddSubsidy creates a subsidy and reconciles the budget's subsidy
// expense line.
func (h *Handler) HandleAddSubsidy(w http.ResponseWriter, r *http.Request) {
	country, ok := h.loadCountry(w, r)
	if !ok {
		return
	}

	var req SubsidyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, _, err := h.service.AddSubsidy(country, req)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.eventMgr.Emit(events.SubsidyAdded, "budget", map[string]interface{}{
		"country": country.ISOCode,
		"id":      sub.ID,
		"sector":  sub.Sector,
	})
	h.writeJSON(w, http.StatusCreated, sub)
}

// HandlePreviewSubsidy returns the effect preview without mutating the
// ledger.
func (h *Handler) HandlePreviewSubsidy(w http.ResponseWriter, r *http.Request) {
	country, ok := h.loadCountry(w, r)
	if !ok {
		return
	}

	var req SubsidyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	preview, err := h.ledger.Preview(country, req)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, preview)
}

// HandleRemoveSubsidy removes a subsidy and reconciles the budget.
func (h *Handler) HandleRemoveSubsidy(w http.ResponseWriter, r *http.Request) {
	country, ok := h.loadCountry(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	if _, err := h.service.RemoveSubsidy(country, id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.eventMgr.Emit(events.SubsidyRemoved, "budget", map[string]interface{}{
		"country": country.ISOCode,
		"id":      id,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) loadCountry(w http.ResponseWriter, r *http.Request) (domain.Country, bool) {
	countryID := chi.URLParam(r, "countryId")
	country, err := h.countries.Get(countryID)
	if err != nil {
		h.writeDomainError(w, err)
		return domain.Country{}, false
	}
	return country, true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrValidation):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("Budget request failed")
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
