package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "jobboard"

var (
	emailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "emails_total",
			Help:      "Emails handed to a transport, by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	applicationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "applications_total",
			Help:      "Applications submitted.",
		},
	)

	listingsPostedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "listings_posted_total",
			Help:      "Listings created by employers.",
		},
	)

	statusChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "status_changes_total",
			Help:      "Application status changes, by new status.",
		},
		[]string{"status"},
	)

	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts, by outcome.",
		},
		[]string{"outcome"},
	)

	otpsIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "otps_issued_total",
			Help:      "One-time codes stored on accounts, by purpose.",
		},
		[]string{"purpose"},
	)

	chatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Chat completions, by model and outcome.",
		},
		[]string{"model", "outcome"},
	)
)

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// EmailSent counts a delivery attempt.
func EmailSent(kind string, ok bool) { emailsTotal.WithLabelValues(kind, outcome(ok)).Inc() }

// ApplicationSubmitted counts a new application.
func ApplicationSubmitted() { applicationsTotal.Inc() }

// ListingPosted counts a new listing.
func ListingPosted() { listingsPostedTotal.Inc() }

// StatusChanged counts an effective status change.
func StatusChanged(status string) { statusChangesTotal.WithLabelValues(status).Inc() }

// LoginAttempt counts a login by outcome label
// (success, bad_credentials, rate_limited, locked, rejected).
func LoginAttempt(result string) { loginsTotal.WithLabelValues(result).Inc() }

// OTPIssued counts a stored code; purpose is "verify" or "reset".
func OTPIssued(purpose string) { otpsIssuedTotal.WithLabelValues(purpose).Inc() }

// ChatCompletion counts a model call.
func ChatCompletion(model string, ok bool) { chatRequestsTotal.WithLabelValues(model, outcome(ok)).Inc() }
