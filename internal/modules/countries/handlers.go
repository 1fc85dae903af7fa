package countries

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tradewarsim/engine/internal/domain"
	"github.com/tradewarsim/engine/internal/modules/snapshots"
)

// Handler handles country HTTP requests.
type Handler struct {
	repo  *Repository
	snaps *snapshots.Repository
	log   zerolog.Logger
}

// NewHandler creates a new country handler.
func NewHandler(repo *Repository, snaps *snapshots.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo:  repo,
		snaps: snaps,
		log:   log.With().Str("handler", "countries").Logger(),
	}
}

// HandleList returns all countries.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.List()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"countries": all})
}

// HandleGet returns one country.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	iso := chi.URLParam(r, "iso")
	country, err := h.repo.Get(iso)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, country)
}

// HandleSnapshots returns a country's per-turn state snapshots.
func (h *Handler) HandleSnapshots(w http.ResponseWriter, r *http.Request) {
	iso := chi.URLParam(r, "iso")

	if _, err := h.repo.Get(iso); err != nil {
		h.writeDomainError(w, err)
		return
	}

	states, err := h.snaps.List(iso)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"snapshots": states})
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error().Err(err).Msg("Country request failed")
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
