package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clinicops/attendance-service/internal/database"
	"github.com/clinicops/attendance-service/internal/models"
)

// StaffRepository handles staff account database operations
type StaffRepository struct{}

// NewStaffRepository creates a new staff repository
func NewStaffRepository() *StaffRepository {
	return &StaffRepository{}
}

// GetByEmail retrieves a staff account by email (case-insensitive), with the
// owning organization preloaded. Returns (nil, nil) when no account exists.
func (r *StaffRepository) GetByEmail(ctx context.Context, email string) (*models.Staff, error) {
	var staff models.Staff
	err := database.DB.WithContext(ctx).
		Preload("Organization").
		Where("lower(email) = ?", strings.ToLower(email)).
		First(&staff).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staff by email: %w", err)
	}
	return &staff, nil
}

// GetByID retrieves a staff account by ID
func (r *StaffRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Staff, error) {
	var staff models.Staff
	err := database.DB.WithContext(ctx).Where("id = ?", id).First(&staff).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staff: %w", err)
	}
	return &staff, nil
}

// Create creates a new staff account
func (r *StaffRepository) Create(ctx context.Context, staff *models.Staff) error {
	if err := database.DB.WithContext(ctx).Create(staff).Error; err != nil {
		return fmt.Errorf("failed to create staff: %w", err)
	}
	return nil
}

// TouchLastSignedIn records a successful login time
func (r *StaffRepository) TouchLastSignedIn(ctx context.Context, id uuid.UUID, at time.Time) error {
	if err := database.DB.WithContext(ctx).
		Model(&models.Staff{}).
		Where("id = ?", id).
		Update("last_signed_in", at).Error; err != nil {
		return fmt.Errorf("failed to update last signed in: %w", err)
	}
	return nil
}
