package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicops/attendance-service/internal/auth"
	"github.com/clinicops/attendance-service/internal/cache"
	"github.com/clinicops/attendance-service/internal/middleware"
	"github.com/clinicops/attendance-service/internal/models"
	"github.com/clinicops/attendance-service/internal/services"
)

const (
	testClinicLat = 25.033964
	testClinicLon = 121.564472
)

type stubRuleStore struct {
	rule *models.AttendanceRule
}

func (s *stubRuleStore) GetActiveByOrg(ctx context.Context, orgID uuid.UUID) (*models.AttendanceRule, error) {
	return s.rule, nil
}

type stubRecordStore struct {
	records map[string]*models.AttendanceRecord
}

func (s *stubRecordStore) key(staffID uuid.UUID, date string) string {
	return staffID.String() + "|" + date
}

func (s *stubRecordStore) GetByStaffAndDate(ctx context.Context, orgID, staffID uuid.UUID, date string) (*models.AttendanceRecord, error) {
	return s.records[s.key(staffID, date)], nil
}

func (s *stubRecordStore) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.records[s.key(record.StaffID, record.RecordDate)] = record
	return nil
}

func (s *stubRecordStore) Update(ctx context.Context, record *models.AttendanceRecord) error {
	s.records[s.key(record.StaffID, record.RecordDate)] = record
	return nil
}

func (s *stubRecordStore) List(ctx context.Context, orgID uuid.UUID, staffID *uuid.UUID, from, to string, limit, offset int) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, r := range s.records {
		if r.OrganizationID == orgID {
			out = append(out, *r)
		}
	}
	return out, nil
}

type stubAuditStore struct{}

func (stubAuditStore) Create(ctx context.Context, entry *models.AuditLog) error { return nil }

// attendanceTestServer mounts the attendance handler behind real token
// verification so requests travel the same path as production traffic.
type attendanceTestServer struct {
	handler *AttendanceHandler
	tokens  *auth.TokenProvider
	orgID   uuid.UUID
}

func newAttendanceTestServer(t *testing.T, rule *models.AttendanceRule) *attendanceTestServer {
	t.Helper()
	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })

	svc := services.NewAttendanceService(
		&stubRecordStore{records: make(map[string]*models.AttendanceRecord)},
		&stubRuleStore{rule: rule},
		stubAuditStore{},
		c,
		time.Minute,
	)
	orgID := uuid.New()
	if rule != nil {
		rule.OrganizationID = orgID
	}
	return &attendanceTestServer{
		handler: NewAttendanceHandler(svc),
		tokens:  auth.NewTokenProvider([]byte("test-secret-key"), "attendance-service", time.Hour),
		orgID:   orgID,
	}
}

func (ts *attendanceTestServer) do(t *testing.T, h http.HandlerFunc, staffID uuid.UUID, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	token, _, err := ts.tokens.Issue(staffID, "Test Staff", auth.RoleStaff, ts.orgID, "demo-clinic")
	require.NoError(t, err)

	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/clock-in", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	middleware.RequireAuth(ts.tokens)(h).ServeHTTP(rec, req)
	return rec
}

func testRule(required bool) *models.AttendanceRule {
	return &models.AttendanceRule{
		ID:              uuid.New(),
		Name:            "Default shift",
		RequireLocation: required,
		Latitude:        testClinicLat,
		Longitude:       testClinicLon,
		RadiusMeters:    100,
		IsActive:        true,
	}
}

func TestClockIn_OK(t *testing.T) {
	ts := newAttendanceTestServer(t, testRule(true))

	rec := ts.do(t, ts.handler.ClockIn, uuid.New(), models.ClockRequest{
		Latitude:  testClinicLat,
		Longitude: testClinicLon,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.ClockResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.WithinFence)
	assert.NotEqual(t, uuid.Nil, resp.RecordID)
}

func TestClockIn_OutsideFence(t *testing.T) {
	ts := newAttendanceTestServer(t, testRule(true))

	rec := ts.do(t, ts.handler.ClockIn, uuid.New(), models.ClockRequest{
		Latitude:  testClinicLat + 0.01,
		Longitude: testClinicLon,
	})

	require.Equal(t, http.StatusForbidden, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "outside geofence", body["error"])
	assert.Greater(t, body["distance_meters"].(float64), 100.0)
	assert.Equal(t, 100.0, body["radius_meters"])
}

func TestClockIn_InvalidCoordinate(t *testing.T) {
	ts := newAttendanceTestServer(t, testRule(true))

	rec := ts.do(t, ts.handler.ClockIn, uuid.New(), models.ClockRequest{
		Latitude:  91,
		Longitude: 0,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestClockIn_Conflict(t *testing.T) {
	ts := newAttendanceTestServer(t, testRule(true))
	staffID := uuid.New()
	req := models.ClockRequest{Latitude: testClinicLat, Longitude: testClinicLon}

	rec := ts.do(t, ts.handler.ClockIn, staffID, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, ts.handler.ClockIn, staffID, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestClockOut_WithoutClockIn(t *testing.T) {
	ts := newAttendanceTestServer(t, testRule(true))

	rec := ts.do(t, ts.handler.ClockOut, uuid.New(), models.ClockRequest{
		Latitude:  testClinicLat,
		Longitude: testClinicLon,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestClock_BadBody(t *testing.T) {
	ts := newAttendanceTestServer(t, testRule(true))

	rec := ts.do(t, ts.handler.ClockIn, uuid.New(), "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRecords_OK(t *testing.T) {
	ts := newAttendanceTestServer(t, nil)
	staffID := uuid.New()

	rec := ts.do(t, ts.handler.ClockIn, staffID, models.ClockRequest{
		Latitude:  testClinicLat,
		Longitude: testClinicLon,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	token, _, err := ts.tokens.Issue(staffID, "Test Staff", auth.RoleStaff, ts.orgID, "")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/records", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	out := httptest.NewRecorder()
	middleware.RequireAuth(ts.tokens)(http.HandlerFunc(ts.handler.ListRecords)).ServeHTTP(out, req)

	require.Equal(t, http.StatusOK, out.Code)
	var records []models.AttendanceRecord
	require.NoError(t, json.Unmarshal(out.Body.Bytes(), &records))
	assert.Len(t, records, 1)
}

func TestListRecords_BadStaffID(t *testing.T) {
	ts := newAttendanceTestServer(t, nil)
	token, _, err := ts.tokens.Issue(uuid.New(), "Test Staff", auth.RoleAdmin, ts.orgID, "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/attendance/records?staff_id=%s", "not-a-uuid"), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	out := httptest.NewRecorder()
	middleware.RequireAuth(ts.tokens)(http.HandlerFunc(ts.handler.ListRecords)).ServeHTTP(out, req)

	assert.Equal(t, http.StatusBadRequest, out.Code)
}
