package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit actions recorded by the service.
const (
	AuditActionLogin      = "auth.login"
	AuditActionClockIn    = "attendance.clock_in"
	AuditActionClockOut   = "attendance.clock_out"
	AuditActionRuleChange = "attendance.rule_change"
)

// Audit statuses.
const (
	AuditStatusSuccess = "success"
	AuditStatusFailure = "failure"
)

// AuditLog records a security-relevant event: login attempts, clock events,
// and rule changes.
type AuditLog struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index" json:"organization_id"`
	StaffID        uuid.UUID `gorm:"type:uuid;index" json:"staff_id"`
	Action         string    `gorm:"type:varchar(100);not null;index" json:"action"`
	Status         string    `gorm:"type:varchar(20);index" json:"status"`
	IPAddress      string    `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent      string    `gorm:"type:text" json:"user_agent"`
	ErrorMessage   string    `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time `gorm:"index" json:"timestamp"`
}

// TableName overrides the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeCreate hook
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
