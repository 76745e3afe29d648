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

// RuleRepository handles attendance rule database operations
type RuleRepository struct{}

// NewRuleRepository creates a new rule repository
func NewRuleRepository() *RuleRepository {
	return &RuleRepository{}
}

// Create creates a new attendance rule
func (r *RuleRepository) Create(ctx context.Context, rule *models.AttendanceRule) error {
	if err := database.DB.WithContext(ctx).Create(rule).Error; err != nil {
		return fmt.Errorf("failed to create attendance rule: %w", err)
	}
	return nil
}

// GetByID retrieves an attendance rule by ID
func (r *RuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AttendanceRule, error) {
	var rule models.AttendanceRule
	err := database.DB.WithContext(ctx).Where("id = ?", id).First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance rule: %w", err)
	}
	return &rule, nil
}

// GetActiveByOrg retrieves the organization's active attendance rule.
// Returns (nil, nil) when the organization has none configured.
func (r *RuleRepository) GetActiveByOrg(ctx context.Context, orgID uuid.UUID) (*models.AttendanceRule, error) {
	var rule models.AttendanceRule
	err := database.DB.WithContext(ctx).
		Where("organization_id = ? AND is_active = ?", orgID, true).
		Order("created_at ASC").
		First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active attendance rule: %w", err)
	}
	return &rule, nil
}

// ListByOrg retrieves all attendance rules for an organization
func (r *RuleRepository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.AttendanceRule, error) {
	var rules []models.AttendanceRule
	if err := database.DB.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to list attendance rules: %w", err)
	}
	return rules, nil
}

// Update updates an attendance rule
func (r *RuleRepository) Update(ctx context.Context, rule *models.AttendanceRule) error {
	if err := database.DB.WithContext(ctx).Save(rule).Error; err != nil {
		return fmt.Errorf("failed to update attendance rule: %w", err)
	}
	return nil
}

// Delete soft deletes an attendance rule
func (r *RuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := database.DB.WithContext(ctx).Delete(&models.AttendanceRule{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete attendance rule: %w", err)
	}
	return nil
}
