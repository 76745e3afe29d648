package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicops/attendance-service/internal/auth"
	"github.com/clinicops/attendance-service/internal/middleware"
	"github.com/clinicops/attendance-service/internal/models"
	"github.com/clinicops/attendance-service/internal/services"
)

// RuleHandler exposes attendance rule administration. Routes are mounted
// behind RequireRoles(admin, super_admin).
type RuleHandler struct {
	ruleService *services.RuleService
}

func NewRuleHandler(ruleService *services.RuleService) *RuleHandler {
	return &RuleHandler{
		ruleService: ruleService,
	}
}

// CreateRule creates a new attendance rule for the caller's organization
func (h *RuleHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, actorID, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	var req models.AttendanceRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rule, err := h.ruleService.Create(ctx, claims.OrgID, actorID, &req)
	if err != nil {
		h.writeRuleError(w, err, "Failed to create attendance rule")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(rule)
}

// GetRules retrieves all attendance rules for the caller's organization
func (h *RuleHandler) GetRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, _, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	rules, err := h.ruleService.List(ctx, claims.OrgID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list attendance rules")
		http.Error(w, "Failed to list attendance rules", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rules)
}

// GetRule retrieves a specific attendance rule
func (h *RuleHandler) GetRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, _, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid rule ID", http.StatusBadRequest)
		return
	}

	rule, err := h.ruleService.Get(ctx, claims.OrgID, id)
	if err != nil {
		h.writeRuleError(w, err, "Failed to get attendance rule")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rule)
}

// UpdateRule updates an attendance rule
func (h *RuleHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, actorID, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid rule ID", http.StatusBadRequest)
		return
	}

	var req models.AttendanceRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rule, err := h.ruleService.Update(ctx, claims.OrgID, actorID, id, &req)
	if err != nil {
		h.writeRuleError(w, err, "Failed to update attendance rule")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rule)
}

// DeleteRule deletes an attendance rule
func (h *RuleHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, actorID, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid rule ID", http.StatusBadRequest)
		return
	}

	if err := h.ruleService.Delete(ctx, claims.OrgID, actorID, id); err != nil {
		h.writeRuleError(w, err, "Failed to delete attendance rule")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RuleHandler) writeRuleError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrInvalidRule):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, services.ErrRuleNotFound):
		http.Error(w, "Attendance rule not found", http.StatusNotFound)
	default:
		log.Error().Err(err).Msg(fallback)
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}

// callerIdentity pulls the verified claims and staff ID from context,
// writing a 401 when absent.
func callerIdentity(w http.ResponseWriter, r *http.Request) (claims *auth.Claims, actorID uuid.UUID, ok bool) {
	c, found := middleware.GetClaims(r.Context())
	if !found {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, uuid.Nil, false
	}
	id, err := c.StaffID()
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, uuid.Nil, false
	}
	return c, id, true
}
