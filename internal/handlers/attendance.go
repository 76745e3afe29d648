package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicops/attendance-service/internal/metrics"
	"github.com/clinicops/attendance-service/internal/middleware"
	"github.com/clinicops/attendance-service/internal/models"
	"github.com/clinicops/attendance-service/internal/services"
)

type AttendanceHandler struct {
	attendanceService *services.AttendanceService
}

func NewAttendanceHandler(attendanceService *services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{
		attendanceService: attendanceService,
	}
}

// ClockIn records the start of the caller's workday.
func (h *AttendanceHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	h.clock(w, r, "in")
}

// ClockOut records the end of the caller's workday.
func (h *AttendanceHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	h.clock(w, r, "out")
}

func (h *AttendanceHandler) clock(w http.ResponseWriter, r *http.Request, direction string) {
	ctx := r.Context()
	claims, ok := middleware.GetClaims(ctx)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.ClockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var resp *models.ClockResponse
	var err error
	if direction == "in" {
		resp, err = h.attendanceService.ClockIn(ctx, claims, &req)
	} else {
		resp, err = h.attendanceService.ClockOut(ctx, claims, &req)
	}
	if err != nil {
		h.writeClockError(w, direction, err)
		return
	}

	metrics.ClockEvents.WithLabelValues(direction, "ok").Inc()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeClockError maps service errors to HTTP responses. A geofence
// rejection includes the measured distance so the client can surface it.
func (h *AttendanceHandler) writeClockError(w http.ResponseWriter, direction string, err error) {
	var fenceErr *services.GeofenceError
	switch {
	case errors.Is(err, services.ErrInvalidCoordinate):
		metrics.ClockEvents.WithLabelValues(direction, "invalid_coordinate").Inc()
		http.Error(w, "Latitude or longitude out of range", http.StatusUnprocessableEntity)
	case errors.As(err, &fenceErr):
		metrics.ClockEvents.WithLabelValues(direction, "outside_fence").Inc()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":           "outside geofence",
			"distance_meters": fenceErr.DistanceMeters,
			"radius_meters":   fenceErr.RadiusMeters,
		})
	case errors.Is(err, services.ErrAlreadyClockedIn),
		errors.Is(err, services.ErrNotClockedIn),
		errors.Is(err, services.ErrAlreadyClockedOut):
		metrics.ClockEvents.WithLabelValues(direction, "rejected").Inc()
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		metrics.ClockEvents.WithLabelValues(direction, "error").Inc()
		log.Error().Err(err).Str("direction", direction).Msg("Clock event failed")
		http.Error(w, "Clock event failed", http.StatusInternalServerError)
	}
}

// ListRecords returns attendance records. Staff see their own; admins may
// filter by staff_id within their organization.
func (h *AttendanceHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, ok := middleware.GetClaims(ctx)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var staffID *uuid.UUID
	if v := r.URL.Query().Get("staff_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			http.Error(w, "Invalid staff_id", http.StatusBadRequest)
			return
		}
		staffID = &id
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	records, err := h.attendanceService.ListRecords(ctx, claims, staffID,
		r.URL.Query().Get("from"), r.URL.Query().Get("to"), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list attendance records")
		http.Error(w, "Failed to list attendance records", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}
