package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/clinicops/attendance-service/internal/auth"
	"github.com/clinicops/attendance-service/internal/cache"
	"github.com/clinicops/attendance-service/internal/config"
	"github.com/clinicops/attendance-service/internal/database"
	"github.com/clinicops/attendance-service/internal/handlers"
	"github.com/clinicops/attendance-service/internal/middleware"
	"github.com/clinicops/attendance-service/internal/repository"
	"github.com/clinicops/attendance-service/internal/services"
	"github.com/clinicops/attendance-service/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize logger
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting attendance service")

	// Connect to database
	dbConfig := database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		LogLevel: cfg.Database.LogLevel,
	}

	if err := database.Connect(dbConfig); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	// Initialize cache
	var cacheImpl cache.Cache
	if cfg.Cache.Enabled && cfg.Cache.Type == "redis" {
		addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
		cacheImpl, err = cache.NewRedisCache(addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		log.Info().Msg("Redis cache initialized")
	} else {
		cacheImpl = cache.NewMemoryCache()
		log.Info().Msg("Memory cache initialized")
	}
	defer cacheImpl.Close()

	// Initialize repositories
	staffRepo := repository.NewStaffRepository()
	ruleRepo := repository.NewRuleRepository()
	attendanceRepo := repository.NewAttendanceRepository()
	auditRepo := repository.NewAuditRepository()

	// Initialize the session authority and password hasher
	tokens := auth.NewTokenProvider([]byte(cfg.Auth.JWTSecret), cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)

	// Initialize services
	authService := services.NewAuthService(staffRepo, auditRepo, hasher, tokens)
	attendanceService := services.NewAttendanceService(attendanceRepo, ruleRepo, auditRepo, cacheImpl, cfg.Cache.RuleTTL)
	ruleService := services.NewRuleService(ruleRepo, auditRepo, cacheImpl)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService)
	attendanceHandler := handlers.NewAttendanceHandler(attendanceService)
	ruleHandler := handlers.NewRuleHandler(ruleService)

	loginLimiter := middleware.NewRateLimiter(cacheImpl, "login", cfg.RateLimit.Window, cfg.RateLimit.MaxRequests)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health endpoints (no authentication required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Login is public; throttled per client IP
		if cfg.RateLimit.Enabled {
			r.With(loginLimiter.Handler).Post("/auth/login", authHandler.Login)
		} else {
			r.Post("/auth/login", authHandler.Login)
		}

		// Everything else requires a verified bearer token
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(tokens))

			r.Get("/auth/me", authHandler.Me)

			r.Route("/attendance", func(r chi.Router) {
				r.With(middleware.RequireRoles(auth.RoleStaff, auth.RoleAdmin, auth.RoleSuperAdmin)).
					Post("/clock-in", attendanceHandler.ClockIn)
				r.With(middleware.RequireRoles(auth.RoleStaff, auth.RoleAdmin, auth.RoleSuperAdmin)).
					Post("/clock-out", attendanceHandler.ClockOut)
				r.Get("/records", attendanceHandler.ListRecords)

				// Rule administration
				r.Route("/rules", func(r chi.Router) {
					r.Use(middleware.RequireRoles(auth.RoleAdmin, auth.RoleSuperAdmin))
					r.Post("/", ruleHandler.CreateRule)
					r.Get("/", ruleHandler.GetRules)
					r.Get("/{id}", ruleHandler.GetRule)
					r.Put("/{id}", ruleHandler.UpdateRule)
					r.Delete("/{id}", ruleHandler.DeleteRule)
				})
			})
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
