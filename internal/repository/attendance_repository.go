package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clinicops/attendance-service/internal/database"
	"github.com/clinicops/attendance-service/internal/models"
)

// AttendanceRepository handles attendance record database operations
type AttendanceRepository struct{}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository() *AttendanceRepository {
	return &AttendanceRepository{}
}

// GetByStaffAndDate retrieves the staff member's record for one day
// ("YYYY-MM-DD"). Returns (nil, nil) when no record exists.
func (r *AttendanceRepository) GetByStaffAndDate(ctx context.Context, orgID, staffID uuid.UUID, date string) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := database.DB.WithContext(ctx).
		Where("organization_id = ? AND staff_id = ? AND record_date = ?", orgID, staffID, date).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance record: %w", err)
	}
	return &record, nil
}

// Create creates a new attendance record
func (r *AttendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if err := database.DB.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create attendance record: %w", err)
	}
	return nil
}

// Update updates an attendance record
func (r *AttendanceRepository) Update(ctx context.Context, record *models.AttendanceRecord) error {
	if err := database.DB.WithContext(ctx).Save(record).Error; err != nil {
		return fmt.Errorf("failed to update attendance record: %w", err)
	}
	return nil
}

// List retrieves attendance records for an organization, optionally filtered
// by staff member and date range (dates as "YYYY-MM-DD").
func (r *AttendanceRepository) List(ctx context.Context, orgID uuid.UUID, staffID *uuid.UUID, from, to string, limit, offset int) ([]models.AttendanceRecord, error) {
	query := database.DB.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("record_date DESC")

	if staffID != nil {
		query = query.Where("staff_id = ?", *staffID)
	}
	if from != "" {
		query = query.Where("record_date >= ?", from)
	}
	if to != "" {
		query = query.Where("record_date <= ?", to)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var records []models.AttendanceRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	return records, nil
}
