// Package metrics defines the service's Prometheus collectors, exposed on
// /metrics when enabled.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttempts counts login attempts by outcome ("success", "failure",
	// "rate_limited").
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_login_attempts_total",
		Help: "Login attempts by outcome",
	}, []string{"outcome"})

	// ClockEvents counts clock-in/out attempts by direction and result
	// ("ok", "rejected", "outside_fence", "invalid_coordinate", "error").
	ClockEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_clock_events_total",
		Help: "Clock-in/out attempts by direction and result",
	}, []string{"direction", "result"})

	// GeofenceDistance observes the measured distance from the clinic
	// reference point on each fence evaluation, in meters.
	GeofenceDistance = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "attendance_geofence_distance_meters",
		Help:    "Distance from the clinic reference point at clock time",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	// AuthFailures counts rejected bearer tokens at the middleware.
	AuthFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_auth_failures_total",
		Help: "Requests rejected for missing or invalid bearer tokens",
	})
)
