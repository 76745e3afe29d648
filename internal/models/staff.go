package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clinicops/attendance-service/internal/auth"
)

// Staff represents a staff account that can log in and clock in/out.
// Email is unique across tenants and is the login identifier.
type Staff struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	Email          string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	PasswordHash   string    `gorm:"type:text;not null" json:"-"`
	Role           auth.Role `gorm:"type:varchar(50);not null;default:'staff'" json:"role"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	LastSignedIn   *time.Time `json:"last_signed_in,omitempty"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Staff) TableName() string {
	return "staff"
}

// BeforeCreate hook
func (s *Staff) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the bearer token and the signed-in staff profile.
// Clients treat the token as opaque.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Staff     StaffInfo `json:"staff"`
}

// StaffInfo is the public view of a staff account.
type StaffInfo struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           auth.Role `json:"role"`
	OrganizationID uuid.UUID `json:"organization_id"`
	OrgSlug        string    `json:"org_slug,omitempty"`
}
