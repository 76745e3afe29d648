package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicops/attendance-service/internal/auth"
	"github.com/clinicops/attendance-service/internal/models"
)

// ErrInvalidCredentials is returned for any failed login: unknown email,
// wrong password, or a deactivated account or organization. The cases are
// deliberately indistinguishable to the client.
var ErrInvalidCredentials = errors.New("invalid credentials")

// StaffStore is the minimal staff repository needed by the auth service.
type StaffStore interface {
	GetByEmail(ctx context.Context, email string) (*models.Staff, error)
	TouchLastSignedIn(ctx context.Context, id uuid.UUID, at time.Time) error
}

// AuditStore records security-relevant events.
type AuditStore interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// AuthService authenticates staff and mints session tokens.
type AuthService struct {
	staff  StaffStore
	audit  AuditStore
	hasher *auth.Hasher
	tokens *auth.TokenProvider
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(staff StaffStore, audit AuditStore, hasher *auth.Hasher, tokens *auth.TokenProvider) *AuthService {
	return &AuthService{
		staff:  staff,
		audit:  audit,
		hasher: hasher,
		tokens: tokens,
	}
}

// Login verifies email/password and returns a bearer token with the staff
// member's identity, role, and organization scope baked in. The token is
// stateless; logout is a client-side discard.
func (s *AuthService) Login(ctx context.Context, email, password, ip, userAgent string) (*models.LoginResponse, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	staff, err := s.staff.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if staff == nil || !staff.IsActive || staff.PasswordHash == "" {
		s.auditLogin(ctx, staff, ip, userAgent, "account not usable")
		return nil, ErrInvalidCredentials
	}
	if staff.Organization == nil || !staff.Organization.IsActive {
		s.auditLogin(ctx, staff, ip, userAgent, "organization inactive")
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.Compare(staff.PasswordHash, []byte(password)); err != nil {
		s.auditLogin(ctx, staff, ip, userAgent, "password mismatch")
		return nil, ErrInvalidCredentials
	}

	orgSlug := staff.Organization.Slug
	token, expiresAt, err := s.tokens.Issue(staff.ID, staff.Name, staff.Role, staff.OrganizationID, orgSlug)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.staff.TouchLastSignedIn(ctx, staff.ID, now); err != nil {
		log.Warn().Err(err).Msg("Failed to record last sign-in")
	}
	s.auditLogin(ctx, staff, ip, userAgent, "")

	return &models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Staff: models.StaffInfo{
			ID:             staff.ID,
			Name:           staff.Name,
			Email:          staff.Email,
			Role:           staff.Role,
			OrganizationID: staff.OrganizationID,
			OrgSlug:        orgSlug,
		},
	}, nil
}

// auditLogin writes a login audit entry; failures are logged, never fatal.
// errMsg empty means success.
func (s *AuthService) auditLogin(ctx context.Context, staff *models.Staff, ip, userAgent, errMsg string) {
	entry := &models.AuditLog{
		Action:       models.AuditActionLogin,
		Status:       models.AuditStatusSuccess,
		IPAddress:    ip,
		UserAgent:    userAgent,
		ErrorMessage: errMsg,
	}
	if errMsg != "" {
		entry.Status = models.AuditStatusFailure
	}
	if staff != nil {
		entry.OrganizationID = staff.OrganizationID
		entry.StaffID = staff.ID
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		log.Warn().Err(err).Msg("Failed to write audit log")
	}
}
