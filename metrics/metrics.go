package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestCounter counts HTTP requests by status code, method, and route.
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compete_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"status", "method", "path"},
	)

	// RequestDuration measures HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compete_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status", "method", "path"},
	)

	// RegistrationsTotal counts registration attempts by outcome
	// (accepted, capacity, eligibility, state, conflict, payment).
	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compete_registrations_total",
			Help: "Total registration attempts by outcome",
		},
		[]string{"outcome"},
	)

	// BracketsGenerated counts generated brackets by format.
	BracketsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compete_brackets_generated_total",
			Help: "Total brackets generated by tournament format",
		},
		[]string{"format"},
	)

	// MatchesCompleted counts completed matches by format.
	MatchesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compete_matches_completed_total",
			Help: "Total completed matches by tournament format",
		},
		[]string{"format"},
	)

	// TournamentsCompleted counts tournaments reaching a terminal status.
	TournamentsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compete_tournaments_finished_total",
			Help: "Total tournaments reaching completed or canceled",
		},
		[]string{"status"},
	)
)
