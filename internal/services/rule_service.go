package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicops/attendance-service/internal/cache"
	"github.com/clinicops/attendance-service/internal/geo"
	"github.com/clinicops/attendance-service/internal/models"
)

// Sentinel errors for rule administration.
var (
	ErrInvalidRule  = errors.New("invalid attendance rule")
	ErrRuleNotFound = errors.New("attendance rule not found")
)

// RuleAdminStore is the rule repository surface needed for administration.
type RuleAdminStore interface {
	Create(ctx context.Context, rule *models.AttendanceRule) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AttendanceRule, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.AttendanceRule, error)
	Update(ctx context.Context, rule *models.AttendanceRule) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RuleService manages tenant attendance rules (shift times and geofence).
// Every write invalidates the organization's cached rule so clock-ins pick up
// the change within one request.
type RuleService struct {
	rules RuleAdminStore
	audit AuditStore
	cache cache.Cache
}

// NewRuleService returns a RuleService with the given dependencies.
func NewRuleService(rules RuleAdminStore, audit AuditStore, c cache.Cache) *RuleService {
	return &RuleService{rules: rules, audit: audit, cache: c}
}

// Create validates and stores a new rule for the organization.
func (s *RuleService) Create(ctx context.Context, orgID, actorID uuid.UUID, req *models.AttendanceRuleRequest) (*models.AttendanceRule, error) {
	if err := validateRuleRequest(req); err != nil {
		return nil, err
	}
	rule := &models.AttendanceRule{
		OrganizationID:       orgID,
		Name:                 req.Name,
		ClockInTime:          req.ClockInTime,
		ClockOutTime:         req.ClockOutTime,
		LateThresholdMinutes: req.LateThresholdMinutes,
		RequireLocation:      req.RequireLocation,
		Latitude:             req.Latitude,
		Longitude:            req.Longitude,
		RadiusMeters:         req.RadiusMeters,
		IsActive:             true,
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, err
	}
	s.invalidate(ctx, orgID)
	s.auditChange(ctx, orgID, actorID)
	return rule, nil
}

// Get returns one rule, scoped to the organization.
func (s *RuleService) Get(ctx context.Context, orgID, id uuid.UUID) (*models.AttendanceRule, error) {
	rule, err := s.rules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rule == nil || rule.OrganizationID != orgID {
		return nil, ErrRuleNotFound
	}
	return rule, nil
}

// List returns the organization's rules.
func (s *RuleService) List(ctx context.Context, orgID uuid.UUID) ([]models.AttendanceRule, error) {
	return s.rules.ListByOrg(ctx, orgID)
}

// Update validates and applies changes to an existing rule.
func (s *RuleService) Update(ctx context.Context, orgID, actorID, id uuid.UUID, req *models.AttendanceRuleRequest) (*models.AttendanceRule, error) {
	if err := validateRuleRequest(req); err != nil {
		return nil, err
	}
	rule, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	rule.Name = req.Name
	rule.ClockInTime = req.ClockInTime
	rule.ClockOutTime = req.ClockOutTime
	rule.LateThresholdMinutes = req.LateThresholdMinutes
	rule.RequireLocation = req.RequireLocation
	rule.Latitude = req.Latitude
	rule.Longitude = req.Longitude
	rule.RadiusMeters = req.RadiusMeters

	if err := s.rules.Update(ctx, rule); err != nil {
		return nil, err
	}
	s.invalidate(ctx, orgID)
	s.auditChange(ctx, orgID, actorID)
	return rule, nil
}

// Delete removes a rule, scoped to the organization.
func (s *RuleService) Delete(ctx context.Context, orgID, actorID, id uuid.UUID) error {
	rule, err := s.Get(ctx, orgID, id)
	if err != nil {
		return err
	}
	if err := s.rules.Delete(ctx, rule.ID); err != nil {
		return err
	}
	s.invalidate(ctx, orgID)
	s.auditChange(ctx, orgID, actorID)
	return nil
}

// validateRuleRequest enforces the rule invariants: a geofence that gates
// clock-ins must have a valid reference coordinate and a positive radius.
func validateRuleRequest(req *models.AttendanceRuleRequest) error {
	if req.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRule)
	}
	if req.LateThresholdMinutes < 0 {
		return fmt.Errorf("%w: late threshold must not be negative", ErrInvalidRule)
	}
	for _, v := range []string{req.ClockInTime, req.ClockOutTime} {
		if v == "" {
			continue
		}
		if _, err := time.Parse("15:04", v); err != nil {
			return fmt.Errorf("%w: shift time must be HH:MM", ErrInvalidRule)
		}
	}
	hasFence := req.Latitude != 0 || req.Longitude != 0 || req.RadiusMeters != 0
	if req.RequireLocation || hasFence {
		if !geo.IsValidCoordinate(req.Latitude, req.Longitude) {
			return fmt.Errorf("%w: reference coordinate out of range", ErrInvalidRule)
		}
		if req.RadiusMeters <= 0 {
			return fmt.Errorf("%w: radius must be positive", ErrInvalidRule)
		}
	}
	return nil
}

func (s *RuleService) invalidate(ctx context.Context, orgID uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.RuleKey(orgID)); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate rule cache")
	}
}

func (s *RuleService) auditChange(ctx context.Context, orgID, actorID uuid.UUID) {
	entry := &models.AuditLog{
		OrganizationID: orgID,
		StaffID:        actorID,
		Action:         models.AuditActionRuleChange,
		Status:         models.AuditStatusSuccess,
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		log.Warn().Err(err).Msg("Failed to write audit log")
	}
}
