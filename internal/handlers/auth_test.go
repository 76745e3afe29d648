package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicops/attendance-service/internal/auth"
	"github.com/clinicops/attendance-service/internal/middleware"
	"github.com/clinicops/attendance-service/internal/models"
	"github.com/clinicops/attendance-service/internal/services"
)

type stubStaffStore struct {
	byEmail map[string]*models.Staff
}

func (s *stubStaffStore) GetByEmail(ctx context.Context, email string) (*models.Staff, error) {
	return s.byEmail[email], nil
}

func (s *stubStaffStore) TouchLastSignedIn(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

func newAuthTestHandler(t *testing.T, accounts ...*models.Staff) (*AuthHandler, *auth.TokenProvider) {
	t.Helper()
	store := &stubStaffStore{byEmail: make(map[string]*models.Staff)}
	for _, a := range accounts {
		store.byEmail[a.Email] = a
	}
	hasher := auth.NewHasher(bcrypt.MinCost)
	tokens := auth.NewTokenProvider([]byte("test-secret-key"), "attendance-service", time.Hour)
	svc := services.NewAuthService(store, stubAuditStore{}, hasher, tokens)
	return NewAuthHandler(svc), tokens
}

func activeAccount(t *testing.T, email, password string) *models.Staff {
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
		Role:           auth.RoleStaff,
		IsActive:       true,
		Organization: &models.Organization{
			ID:       orgID,
			Name:     "Demo Clinic",
			Slug:     "demo-clinic",
			IsActive: true,
		},
	}
}

func postLogin(h *AuthHandler, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", &buf)
	req.RemoteAddr = "10.0.0.1:54321"
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func TestLogin_OK(t *testing.T) {
	account := activeAccount(t, "ada@demo-clinic.test", "s3cret-pw")
	h, tokens := newAuthTestHandler(t, account)

	rec := postLogin(h, models.LoginRequest{Email: "ada@demo-clinic.test", Password: "s3cret-pw"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, account.ID, resp.Staff.ID)
	assert.Equal(t, "demo-clinic", resp.Staff.OrgSlug)

	claims, err := tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleStaff, claims.Role)
}

func TestLogin_InvalidCredentialsAreUniform(t *testing.T) {
	h, _ := newAuthTestHandler(t, activeAccount(t, "ada@demo-clinic.test", "s3cret-pw"))

	// Unknown email and wrong password produce identical responses.
	unknown := postLogin(h, models.LoginRequest{Email: "nobody@demo-clinic.test", Password: "s3cret-pw"})
	wrongPw := postLogin(h, models.LoginRequest{Email: "ada@demo-clinic.test", Password: "wrong"})

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	assert.Equal(t, unknown.Body.String(), wrongPw.Body.String())
}

func TestLogin_BadBody(t *testing.T) {
	h, _ := newAuthTestHandler(t)
	rec := postLogin(h, "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMe(t *testing.T) {
	h, tokens := newAuthTestHandler(t)
	staffID := uuid.New()
	orgID := uuid.New()
	token, _, err := tokens.Issue(staffID, "Ada Chen", auth.RoleAdmin, orgID, "demo-clinic")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	middleware.RequireAuth(tokens)(http.HandlerFunc(h.Me)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var info models.StaffInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, staffID, info.ID)
	assert.Equal(t, auth.RoleAdmin, info.Role)
	assert.Equal(t, orgID, info.OrganizationID)
	assert.Equal(t, "demo-clinic", info.OrgSlug)
}
