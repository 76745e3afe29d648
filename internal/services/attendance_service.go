package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicops/attendance-service/internal/auth"
	"github.com/clinicops/attendance-service/internal/cache"
	"github.com/clinicops/attendance-service/internal/geo"
	"github.com/clinicops/attendance-service/internal/metrics"
	"github.com/clinicops/attendance-service/internal/models"
)

// Sentinel errors for attendance operations; handlers map them to HTTP codes.
var (
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrAlreadyClockedIn  = errors.New("already clocked in today")
	ErrNotClockedIn      = errors.New("no clock-in record for today")
	ErrAlreadyClockedOut = errors.New("already clocked out today")
)

// GeofenceError rejects a clock-in outside a required fence. It carries the
// measured distance so the client can show how far off the staff member is.
type GeofenceError struct {
	DistanceMeters float64
	RadiusMeters   float64
}

func (e *GeofenceError) Error() string {
	return fmt.Sprintf("outside geofence: %.2fm from clinic, radius %.2fm", e.DistanceMeters, e.RadiusMeters)
}

// RuleStore is the minimal rule repository needed by the attendance service.
type RuleStore interface {
	GetActiveByOrg(ctx context.Context, orgID uuid.UUID) (*models.AttendanceRule, error)
}

// RecordStore is the minimal attendance record repository needed by the
// attendance service.
type RecordStore interface {
	GetByStaffAndDate(ctx context.Context, orgID, staffID uuid.UUID, date string) (*models.AttendanceRecord, error)
	Create(ctx context.Context, record *models.AttendanceRecord) error
	Update(ctx context.Context, record *models.AttendanceRecord) error
	List(ctx context.Context, orgID uuid.UUID, staffID *uuid.UUID, from, to string, limit, offset int) ([]models.AttendanceRecord, error)
}

// AttendanceService implements geofenced clock-in/out: one attendance record
// per staff member per day, with the measured distance and fence verdict
// persisted alongside the coordinates.
type AttendanceService struct {
	records RecordStore
	rules   RuleStore
	audit   AuditStore
	cache   cache.Cache
	ruleTTL time.Duration
	now     func() time.Time
}

// NewAttendanceService returns an AttendanceService. ruleTTL bounds how long
// a tenant's attendance rule is served from cache after an admin change.
func NewAttendanceService(records RecordStore, rules RuleStore, audit AuditStore, c cache.Cache, ruleTTL time.Duration) *AttendanceService {
	return &AttendanceService{
		records: records,
		rules:   rules,
		audit:   audit,
		cache:   c,
		ruleTTL: ruleTTL,
		now:     time.Now,
	}
}

// ClockIn records the start of a staff member's day. The submitted position
// is validated, evaluated against the organization's geofence, and rejected
// when the rule requires location and the point is outside the fence
// (inclusive boundary). A second clock-in on the same day is rejected.
func (s *AttendanceService) ClockIn(ctx context.Context, claims *auth.Claims, req *models.ClockRequest) (*models.ClockResponse, error) {
	staffID, err := claims.StaffID()
	if err != nil {
		return nil, err
	}
	if !geo.IsValidCoordinate(req.Latitude, req.Longitude) {
		return nil, ErrInvalidCoordinate
	}

	now := s.now().UTC()
	today := now.Format("2006-01-02")
	point := geo.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude}

	rule, err := s.activeRule(ctx, claims.OrgID)
	if err != nil {
		return nil, err
	}

	verdict := geo.Verdict{WithinFence: true}
	if rule != nil && rule.HasFence() {
		verdict = rule.Fence().Evaluate(point)
		metrics.GeofenceDistance.Observe(verdict.DistanceMeters)
		if rule.RequireLocation && !verdict.WithinFence {
			s.auditClock(ctx, claims.OrgID, staffID, models.AuditActionClockIn, verdict.DistanceMeters, errors.New("outside geofence"))
			return nil, &GeofenceError{
				DistanceMeters: verdict.DistanceMeters,
				RadiusMeters:   rule.RadiusMeters,
			}
		}
	}

	existing, err := s.records.GetByStaffAndDate(ctx, claims.OrgID, staffID, today)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ClockIn != nil {
		return nil, ErrAlreadyClockedIn
	}

	status := s.clockInStatus(rule, now)

	record := existing
	if record == nil {
		record = &models.AttendanceRecord{
			OrganizationID: claims.OrgID,
			StaffID:        staffID,
			RecordDate:     today,
		}
	}
	record.ClockIn = &now
	record.CheckInLatitude = req.Latitude
	record.CheckInLongitude = req.Longitude
	record.CheckInAccuracy = req.Accuracy
	record.CheckInAddress = req.Address
	record.DistanceMeters = verdict.DistanceMeters
	record.IsWithinGeofence = verdict.WithinFence
	record.Status = status

	if existing == nil {
		err = s.records.Create(ctx, record)
	} else {
		err = s.records.Update(ctx, record)
	}
	if err != nil {
		return nil, err
	}

	s.auditClock(ctx, claims.OrgID, staffID, models.AuditActionClockIn, verdict.DistanceMeters, nil)

	return &models.ClockResponse{
		RecordID:       record.ID,
		Time:           now,
		DistanceMeters: verdict.DistanceMeters,
		WithinFence:    verdict.WithinFence,
		Status:         string(status),
	}, nil
}

// ClockOut records the end of the day. It requires a prior clock-in and
// rejects a second clock-out. The position and fence verdict are recorded but
// never reject: leaving must always be possible.
func (s *AttendanceService) ClockOut(ctx context.Context, claims *auth.Claims, req *models.ClockRequest) (*models.ClockResponse, error) {
	staffID, err := claims.StaffID()
	if err != nil {
		return nil, err
	}
	if !geo.IsValidCoordinate(req.Latitude, req.Longitude) {
		return nil, ErrInvalidCoordinate
	}

	now := s.now().UTC()
	today := now.Format("2006-01-02")
	point := geo.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude}

	existing, err := s.records.GetByStaffAndDate(ctx, claims.OrgID, staffID, today)
	if err != nil {
		return nil, err
	}
	if existing == nil || existing.ClockIn == nil {
		return nil, ErrNotClockedIn
	}
	if existing.ClockOut != nil {
		return nil, ErrAlreadyClockedOut
	}

	verdict := geo.Verdict{WithinFence: true}
	rule, err := s.activeRule(ctx, claims.OrgID)
	if err != nil {
		return nil, err
	}
	if rule != nil && rule.HasFence() {
		verdict = rule.Fence().Evaluate(point)
		metrics.GeofenceDistance.Observe(verdict.DistanceMeters)
	}

	existing.ClockOut = &now
	existing.CheckOutLatitude = req.Latitude
	existing.CheckOutLongitude = req.Longitude
	existing.CheckOutAccuracy = req.Accuracy
	existing.CheckOutAddress = req.Address

	if err := s.records.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.auditClock(ctx, claims.OrgID, staffID, models.AuditActionClockOut, verdict.DistanceMeters, nil)

	return &models.ClockResponse{
		RecordID:       existing.ID,
		Time:           now,
		DistanceMeters: verdict.DistanceMeters,
		WithinFence:    verdict.WithinFence,
		Status:         string(existing.Status),
	}, nil
}

// ListRecords returns attendance records in the caller's organization.
// Staff-level callers only see their own records; admins may filter by any
// staff member.
func (s *AttendanceService) ListRecords(ctx context.Context, claims *auth.Claims, staffID *uuid.UUID, from, to string, limit, offset int) ([]models.AttendanceRecord, error) {
	if !auth.Authorize(claims, auth.RoleAdmin, auth.RoleSuperAdmin) {
		own, err := claims.StaffID()
		if err != nil {
			return nil, err
		}
		staffID = &own
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.records.List(ctx, claims.OrgID, staffID, from, to, limit, offset)
}

// clockInStatus marks the record late when the rule defines a shift start and
// the clock-in lands after start + grace period.
func (s *AttendanceService) clockInStatus(rule *models.AttendanceRule, now time.Time) models.AttendanceStatus {
	if rule == nil || rule.ClockInTime == "" {
		return models.AttendanceStatusNormal
	}
	shift, err := time.Parse("15:04", rule.ClockInTime)
	if err != nil {
		return models.AttendanceStatusNormal
	}
	start := time.Date(now.Year(), now.Month(), now.Day(), shift.Hour(), shift.Minute(), 0, 0, now.Location())
	if now.After(start.Add(time.Duration(rule.LateThresholdMinutes) * time.Minute)) {
		return models.AttendanceStatusLate
	}
	return models.AttendanceStatusNormal
}

// activeRule returns the organization's active attendance rule, via the
// shared cache when possible. Cache trouble degrades to a direct lookup.
func (s *AttendanceService) activeRule(ctx context.Context, orgID uuid.UUID) (*models.AttendanceRule, error) {
	key := cache.RuleKey(orgID)
	if data, err := s.cache.Get(ctx, key); err == nil {
		var rule models.AttendanceRule
		if err := json.Unmarshal(data, &rule); err == nil {
			return &rule, nil
		}
	}

	rule, err := s.rules.GetActiveByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if rule != nil {
		if data, err := json.Marshal(rule); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ruleTTL); err != nil {
				log.Warn().Err(err).Msg("Failed to cache attendance rule")
			}
		}
	}
	return rule, nil
}

// auditClock writes a clock event audit entry; failures are logged, never fatal.
func (s *AttendanceService) auditClock(ctx context.Context, orgID, staffID uuid.UUID, action string, distance float64, cause error) {
	entry := &models.AuditLog{
		OrganizationID: orgID,
		StaffID:        staffID,
		Action:         action,
		Status:         models.AuditStatusSuccess,
	}
	if cause != nil {
		entry.Status = models.AuditStatusFailure
		entry.ErrorMessage = fmt.Sprintf("%s (%.2fm)", cause.Error(), distance)
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		log.Warn().Err(err).Msg("Failed to write audit log")
	}
}
