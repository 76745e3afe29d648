package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clinicops/attendance-service/internal/geo"
)

// AttendanceStatus classifies a day's attendance record.
type AttendanceStatus string

const (
	AttendanceStatusNormal AttendanceStatus = "normal"
	AttendanceStatusLate   AttendanceStatus = "late"
)

// AttendanceRule is a tenant's clock-in policy: shift times, lateness
// threshold, and the geofence around the clinic's registered location.
// Tenant administrators manage rules; the attendance service only reads them.
type AttendanceRule struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`

	// Shift boundaries in "HH:MM" local time; empty means unenforced.
	ClockInTime  string `gorm:"type:varchar(5)" json:"clock_in_time,omitempty"`
	ClockOutTime string `gorm:"type:varchar(5)" json:"clock_out_time,omitempty"`
	// LateThresholdMinutes is the grace period after ClockInTime before a
	// clock-in is marked late.
	LateThresholdMinutes int `gorm:"default:15" json:"late_threshold_minutes"`

	// RequireLocation gates clock-ins on the geofence below. When false the
	// fence is still evaluated and recorded, but never rejects.
	RequireLocation bool    `gorm:"default:false" json:"require_location"`
	Latitude        float64 `gorm:"type:double precision" json:"latitude"`
	Longitude       float64 `gorm:"type:double precision" json:"longitude"`
	RadiusMeters    float64 `gorm:"type:double precision" json:"radius_meters"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (AttendanceRule) TableName() string {
	return "attendance_rules"
}

// BeforeCreate hook
func (r *AttendanceRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// HasFence reports whether the rule carries a usable geofence.
func (r *AttendanceRule) HasFence() bool {
	return r.RadiusMeters > 0 && geo.IsValidCoordinate(r.Latitude, r.Longitude)
}

// Fence returns the rule's geofence. Only meaningful when HasFence is true.
func (r *AttendanceRule) Fence() geo.Fence {
	return geo.Fence{
		Center:       geo.Coordinate{Latitude: r.Latitude, Longitude: r.Longitude},
		RadiusMeters: r.RadiusMeters,
	}
}

// AttendanceRecord is one staff member's attendance for one calendar day.
// RecordDate is "YYYY-MM-DD"; at most one record exists per staff per day.
type AttendanceRecord struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	StaffID        uuid.UUID `gorm:"type:uuid;not null;index:idx_attendance_staff_date,unique" json:"staff_id"`
	RecordDate     string    `gorm:"type:date;not null;index:idx_attendance_staff_date,unique" json:"record_date"`

	ClockIn  *time.Time `json:"clock_in,omitempty"`
	ClockOut *time.Time `json:"clock_out,omitempty"`

	CheckInLatitude  float64  `gorm:"type:double precision" json:"check_in_latitude,omitempty"`
	CheckInLongitude float64  `gorm:"type:double precision" json:"check_in_longitude,omitempty"`
	CheckInAccuracy  *float64 `gorm:"type:double precision" json:"check_in_accuracy,omitempty"`
	CheckInAddress   string   `gorm:"type:text" json:"check_in_address,omitempty"`

	CheckOutLatitude  float64  `gorm:"type:double precision" json:"check_out_latitude,omitempty"`
	CheckOutLongitude float64  `gorm:"type:double precision" json:"check_out_longitude,omitempty"`
	CheckOutAccuracy  *float64 `gorm:"type:double precision" json:"check_out_accuracy,omitempty"`
	CheckOutAddress   string   `gorm:"type:text" json:"check_out_address,omitempty"`

	// DistanceMeters and IsWithinGeofence come from the clock-in fence
	// evaluation and are persisted with the record.
	DistanceMeters   float64          `gorm:"type:double precision" json:"distance_meters"`
	IsWithinGeofence bool             `gorm:"default:true" json:"is_within_geofence"`
	Status           AttendanceStatus `gorm:"type:varchar(20);default:'normal'" json:"status"`
	IsManualEntry    bool             `gorm:"default:false" json:"is_manual_entry"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// BeforeCreate hook
func (a *AttendanceRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ClockRequest is the clock-in / clock-out payload: the device's reported
// position in decimal degrees (WGS84) plus optional GPS metadata.
type ClockRequest struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Address   string   `json:"address,omitempty"`
}

// ClockResponse reports the persisted clock event and the fence verdict.
type ClockResponse struct {
	RecordID       uuid.UUID `json:"record_id"`
	Time           time.Time `json:"time"`
	DistanceMeters float64   `json:"distance_meters"`
	WithinFence    bool      `json:"within_fence"`
	Status         string    `json:"status,omitempty"`
}

// AttendanceRuleRequest creates or updates an attendance rule.
type AttendanceRuleRequest struct {
	Name                 string  `json:"name"`
	ClockInTime          string  `json:"clock_in_time,omitempty"`
	ClockOutTime         string  `json:"clock_out_time,omitempty"`
	LateThresholdMinutes int     `json:"late_threshold_minutes"`
	RequireLocation      bool    `json:"require_location"`
	Latitude             float64 `json:"latitude"`
	Longitude            float64 `json:"longitude"`
	RadiusMeters         float64 `json:"radius_meters"`
}
