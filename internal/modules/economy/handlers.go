package economy

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tradewarsim/engine/internal/domain"
	"github.com/tradewarsim/engine/internal/events"
	"github.com/tradewarsim/engine/internal/modules/budget"
	"github.com/tradewarsim/engine/internal/modules/countries"
	"github.com/tradewarsim/engine/internal/modules/diplomacy"
	"github.com/tradewarsim/engine/internal/modules/projection"
)

// ApplyPolicyRequest mirrors the client payload: one policy entry keyed by
// its type.
type ApplyPolicyRequest struct {
	ISOCode string            `json:"iso_code"`
	Policy  map[string]Policy `json:"policy"`
}

// Handler handles policy HTTP requests.
type Handler struct {
	model     *Model
	params    *ParamsRepository
	decisions *DecisionRepository
	countries *countries.Repository
	budgets   *budget.Service
	ledger    *budget.SubsidyLedger
	relations *diplomacy.Repository
	eventMgr  *events.Manager
	horizon   int
	log       zerolog.Logger
}

// NewHandler creates a new policy handler.
func NewHandler(
	model *Model,
	params *ParamsRepository,
	decisions *DecisionRepository,
	countryRepo *countries.Repository,
	budgets *budget.Service,
	ledger *budget.SubsidyLedger,
	relations *diplomacy.Repository,
	eventMgr *events.Manager,
	horizon int,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		model:     model,
		params:    params,
		decisions: decisions,
		countries: countryRepo,
		budgets:   budgets,
		ledger:    ledger,
		relations: relations,
		eventMgr:  eventMgr,
		horizon:   horizon,
		log:       log.With().Str("handler", "policy").Logger(),
	}
}

// Routes mounts the policy routes on a router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.HandleApplyPolicy)
	r.Get("/ranges", h.HandleGetRanges)
	r.Get("/history/{iso}", h.HandleHistory)
}

// HandleApplyPolicy validates, evaluates and records a policy decision.
// The response echoes the decision with its computed effect, projection
// and retaliation assessment.
func (h *Handler) HandleApplyPolicy(w http.ResponseWriter, r *http.Request) {
	var req ApplyPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ISOCode == "" || len(req.Policy) == 0 {
		h.writeError(w, http.StatusBadRequest, "iso_code and policy are required")
		return
	}

	state, err := h.loadState(req.ISOCode)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	params, err := h.params.Get(req.ISOCode)
	if err != nil {
		params = DefaultParams()
	}

	// Evaluate every entry before recording anything, so an invalid entry
	// rejects the whole request with no partial fallout. Kinds are sorted
	// for a stable evaluation order.
	kinds := make([]string, 0, len(req.Policy))
	for kind := range req.Policy {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	type evaluation struct {
		policy      Policy
		effect      domain.EffectVector
		retaliation RetaliationAssessment
	}
	evaluations := make([]evaluation, 0, len(kinds))
	for _, kind := range kinds {
		policy := req.Policy[kind]
		if policy.Type == "" {
			policy.Type = domain.PolicyKind(kind)
		}
		if policy.Target == "" {
			policy.Target = "all"
		}

		effect, err := h.model.ComputeEffect(state, policy, params)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}

		retaliation, err := h.model.AssessRetaliation(state, policy, h.partnerGDP)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}

		evaluations = append(evaluations, evaluation{policy, effect, retaliation})
	}

	results := make(map[string]interface{}, len(evaluations))
	for _, ev := range evaluations {
		decision, err := h.decisions.Record(req.ISOCode, ev.policy)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}

		h.applyRelationFallout(state, ev.policy, ev.retaliation)

		results[string(ev.policy.Type)] = map[string]interface{}{
			"decision":          decision,
			"effect":            ev.effect,
			"projection":        projection.Project(ev.effect, h.horizon),
			"riskOfRetaliation": ev.retaliation.Label,
			"retaliationTier":   ev.retaliation.Tier,
		}

		h.eventMgr.Emit(events.PolicyApplied, "economy", map[string]interface{}{
			"country": req.ISOCode,
			"policy":  ev.policy.Type,
			"value":   ev.policy.Value,
			"target":  ev.policy.Target,
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"iso_code": req.ISOCode,
		"results":  results,
	})
}

// HandleGetRanges returns the configured policy bands for the UI sliders.
func (h *Handler) HandleGetRanges(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.model.Ranges())
}

// HandleHistory returns a country's recorded decisions, most recent first.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	iso := chi.URLParam(r, "iso")
	decisions, err := h.decisions.History(iso, 50)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"decisions": decisions})
}

// applyRelationFallout nudges relations down for protectionist decisions.
// Targeted decisions hit the target pair; global ones spread a smaller
// drop across all partners.
func (h *Handler) applyRelationFallout(state domain.EconomicState, policy Policy, retaliation RetaliationAssessment) {
	if retaliation.Tier == domain.RiskNone || policy.Type == domain.PolicySubsidy {
		return
	}

	drop := -0.02 * float64(retaliation.Tier.Rank())
	event := fmt.Sprintf("%s=%.1f", policy.Type, policy.Value)

	if policy.Target != "all" && policy.Target != "" {
		rel, err := h.relations.AdjustLevel(state.Country.ISOCode, policy.Target, drop*2, event)
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to adjust targeted relation")
			return
		}
		h.emitRelationChanged(state.Country.ISOCode, policy.Target, rel.RelationLevel, event)
		return
	}

	for _, partner := range state.Country.TradingPartners {
		rel, err := h.relations.AdjustLevel(state.Country.ISOCode, partner.Country, drop, event)
		if err != nil {
			h.log.Warn().Err(err).Str("partner", partner.Country).Msg("Failed to adjust relation")
			continue
		}
		h.emitRelationChanged(state.Country.ISOCode, partner.Country, rel.RelationLevel, event)
	}
}

func (h *Handler) emitRelationChanged(countryA, countryB string, level float64, event string) {
	h.eventMgr.Emit(events.RelationChanged, "diplomacy", map[string]interface{}{
		"country_a": countryA,
		"country_b": countryB,
		"level":     level,
		"event":     event,
	})
}

func (h *Handler) loadState(iso string) (domain.EconomicState, error) {
	country, err := h.countries.Get(iso)
	if err != nil {
		return domain.EconomicState{}, err
	}
	b, err := h.budgets.Get(country)
	if err != nil {
		return domain.EconomicState{}, err
	}
	subsidies, err := h.ledger.List(iso)
	if err != nil {
		return domain.EconomicState{}, err
	}
	return domain.EconomicState{Country: country, Budget: b, Subsidies: subsidies}, nil
}

func (h *Handler) partnerGDP(iso string) (float64, bool) {
	country, err := h.countries.Get(iso)
	if err != nil {
		return 0, false
	}
	return country.GDP, true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrPolicyValueOutOfRange), errors.Is(err, domain.ErrUnknownPolicyKind):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrValidation):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("Policy request failed")
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
