package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicops/attendance-service/internal/auth"
	"github.com/clinicops/attendance-service/internal/models"
)

type fakeStaffStore struct {
	byEmail map[string]*models.Staff
	lookups []string
	touched []uuid.UUID
}

func (f *fakeStaffStore) GetByEmail(ctx context.Context, email string) (*models.Staff, error) {
	f.lookups = append(f.lookups, email)
	return f.byEmail[email], nil
}

func (f *fakeStaffStore) TouchLastSignedIn(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.touched = append(f.touched, id)
	return nil
}

type authFixture struct {
	svc    *AuthService
	staff  *fakeStaffStore
	audit  *fakeAuditStore
	tokens *auth.TokenProvider
}

func newAuthFixture(t *testing.T, accounts ...*models.Staff) *authFixture {
	t.Helper()
	staff := &fakeStaffStore{byEmail: make(map[string]*models.Staff)}
	for _, s := range accounts {
		staff.byEmail[s.Email] = s
	}
	audit := &fakeAuditStore{}
	hasher := auth.NewHasher(bcrypt.MinCost)
	tokens := auth.NewTokenProvider([]byte("test-secret-key"), "attendance-service", time.Hour)
	return &authFixture{
		svc:    NewAuthService(staff, audit, hasher, tokens),
		staff:  staff,
		audit:  audit,
		tokens: tokens,
	}
}

func testAccount(t *testing.T, email, password string, role auth.Role) *models.Staff {
	t.Helper()
	hash, err := auth.NewHasher(bcrypt.MinCost).Hash([]byte(password))
	require.NoError(t, err)
	orgID := uuid.New()
	return &models.Staff{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           "Ada Chen",
		Email:          email,
		PasswordHash:   hash,
		Role:           role,
		IsActive:       true,
		Organization: &models.Organization{
			ID:       orgID,
			Name:     "Demo Clinic",
			Slug:     "demo-clinic",
			IsActive: true,
		},
	}
}

func TestLogin_Success(t *testing.T) {
	account := testAccount(t, "ada@demo-clinic.test", "s3cret-pw", auth.RoleStaff)
	f := newAuthFixture(t, account)

	resp, err := f.svc.Login(context.Background(), "ada@demo-clinic.test", "s3cret-pw", "10.0.0.1", "test-agent")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, account.ID, resp.Staff.ID)
	assert.Equal(t, auth.RoleStaff, resp.Staff.Role)
	assert.Equal(t, account.OrganizationID, resp.Staff.OrganizationID)
	assert.Equal(t, "demo-clinic", resp.Staff.OrgSlug)
	assert.WithinDuration(t, time.Now().Add(time.Hour), resp.ExpiresAt, time.Minute)

	// The issued token carries the same identity and verifies cleanly.
	claims, err := f.tokens.Verify(resp.Token)
	require.NoError(t, err)
	gotID, err := claims.StaffID()
	require.NoError(t, err)
	assert.Equal(t, account.ID, gotID)
	assert.Equal(t, account.OrganizationID, claims.OrgID)

	assert.Equal(t, []uuid.UUID{account.ID}, f.staff.touched)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, models.AuditStatusSuccess, f.audit.entries[0].Status)
	assert.Equal(t, "10.0.0.1", f.audit.entries[0].IPAddress)
}

func TestLogin_EmailNormalized(t *testing.T) {
	f := newAuthFixture(t, testAccount(t, "ada@demo-clinic.test", "s3cret-pw", auth.RoleStaff))

	_, err := f.svc.Login(context.Background(), "  Ada@Demo-Clinic.Test ", "s3cret-pw", "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ada@demo-clinic.test"}, f.staff.lookups)
}

func TestLogin_UnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), "nobody@demo-clinic.test", "whatever", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newAuthFixture(t, testAccount(t, "ada@demo-clinic.test", "s3cret-pw", auth.RoleStaff))

	_, err := f.svc.Login(context.Background(), "ada@demo-clinic.test", "not-the-password", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, models.AuditStatusFailure, f.audit.entries[0].Status)
	assert.Empty(t, f.staff.touched)
}

func TestLogin_InactiveAccount(t *testing.T) {
	account := testAccount(t, "ada@demo-clinic.test", "s3cret-pw", auth.RoleStaff)
	account.IsActive = false
	f := newAuthFixture(t, account)

	_, err := f.svc.Login(context.Background(), "ada@demo-clinic.test", "s3cret-pw", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_InactiveOrganization(t *testing.T) {
	account := testAccount(t, "ada@demo-clinic.test", "s3cret-pw", auth.RoleStaff)
	account.Organization.IsActive = false
	f := newAuthFixture(t, account)

	_, err := f.svc.Login(context.Background(), "ada@demo-clinic.test", "s3cret-pw", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_EmptyInputs(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), "", "password", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), "ada@demo-clinic.test", "", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Empty(t, f.staff.lookups, "empty credentials never reach the store")
}
