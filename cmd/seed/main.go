// Command seed provisions a development organization with an admin account
// and a geofenced attendance rule.
package main

import (
	"context"
	"flag"

	"github.com/rs/zerolog/log"

	"github.com/clinicops/attendance-service/internal/auth"
	"github.com/clinicops/attendance-service/internal/config"
	"github.com/clinicops/attendance-service/internal/database"
	"github.com/clinicops/attendance-service/internal/geo"
	"github.com/clinicops/attendance-service/internal/models"
	"github.com/clinicops/attendance-service/internal/repository"
)

func main() {
	orgName := flag.String("org", "Demo Clinic", "organization name")
	orgSlug := flag.String("slug", "demo-clinic", "organization slug")
	adminEmail := flag.String("email", "admin@demo-clinic.test", "admin email")
	adminPassword := flag.String("password", "", "admin password (required)")
	lat := flag.Float64("lat", 25.033964, "clinic latitude")
	lon := flag.Float64("lon", 121.564472, "clinic longitude")
	radius := flag.Float64("radius", 100, "geofence radius in meters")
	flag.Parse()

	if *adminPassword == "" {
		log.Fatal().Msg("-password is required")
	}
	if !geo.IsValidCoordinate(*lat, *lon) || *radius <= 0 {
		log.Fatal().Msg("invalid clinic coordinate or radius")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := database.Connect(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		LogLevel: "warn",
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	ctx := context.Background()

	org := &models.Organization{
		Name:     *orgName,
		Slug:     *orgSlug,
		IsActive: true,
	}
	if err := database.DB.WithContext(ctx).Create(org).Error; err != nil {
		log.Fatal().Err(err).Msg("Failed to create organization")
	}

	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	hash, err := hasher.Hash([]byte(*adminPassword))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	staffRepo := repository.NewStaffRepository()
	admin := &models.Staff{
		OrganizationID: org.ID,
		Name:           "Administrator",
		Email:          *adminEmail,
		PasswordHash:   hash,
		Role:           auth.RoleAdmin,
		IsActive:       true,
	}
	if err := staffRepo.Create(ctx, admin); err != nil {
		log.Fatal().Err(err).Msg("Failed to create admin account")
	}

	ruleRepo := repository.NewRuleRepository()
	rule := &models.AttendanceRule{
		OrganizationID:  org.ID,
		Name:            "Default shift",
		ClockInTime:     "09:00",
		ClockOutTime:    "18:00",
		RequireLocation: true,
		Latitude:        *lat,
		Longitude:       *lon,
		RadiusMeters:    *radius,
		IsActive:        true,
	}
	if err := ruleRepo.Create(ctx, rule); err != nil {
		log.Fatal().Err(err).Msg("Failed to create attendance rule")
	}

	log.Info().
		Str("org_id", org.ID.String()).
		Str("admin_id", admin.ID.String()).
		Str("rule_id", rule.ID.String()).
		Msg("Seed complete")
}
