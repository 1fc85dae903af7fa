package diplomacy

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tradewarsim/engine/internal/domain"
)

// CountryGetter resolves countries for simulations without importing the
// countries module directly.
type CountryGetter interface {
	Get(iso string) (domain.Country, error)
}

// Handler handles diplomacy HTTP requests.
type Handler struct {
	relations *Repository
	sanctions *SanctionSimulator
	countries CountryGetter
	log       zerolog.Logger
}

// NewHandler creates a new diplomacy handler.
func NewHandler(relations *Repository, sanctions *SanctionSimulator, countries CountryGetter, log zerolog.Logger) *Handler {
	return &Handler{
		relations: relations,
		sanctions: sanctions,
		countries: countries,
		log:       log.With().Str("handler", "diplomacy").Logger(),
	}
}

// HandleGetRelations returns a country's relations grouped into the
// canonical bands plus the raw list.
func (h *Handler) HandleGetRelations(w http.ResponseWriter, r *http.Request) {
	iso := chi.URLParam(r, "iso")

	relations, err := h.relations.ListFor(iso)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	grouped := map[string][]domain.RelationLevel{
		"allied":   {},
		"friendly": {},
		"neutral":  {},
		"tense":    {},
		"hostile":  {},
	}
	for _, rel := range relations {
		band := Classify(rel.RelationLevel)
		grouped[band] = append(grouped[band], rel)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"iso_code":  iso,
		"relations": relations,
		"grouped":   grouped,
	})
}

// HandleSimulateSanctions computes a sanction scenario without mutating
// state.
func (h *Handler) HandleSimulateSanctions(w http.ResponseWriter, r *http.Request) {
	var req SanctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SourceCountry == "" || req.TargetCountry == "" {
		h.writeError(w, http.StatusBadRequest, "source_country and target_country are required")
		return
	}

	source, err := h.countries.Get(req.SourceCountry)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	target, err := h.countries.Get(req.TargetCountry)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	impact, err := h.sanctions.Simulate(source, target, req)
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
		h.log.Error().Err(err).Msg("Diplomacy request failed")
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
