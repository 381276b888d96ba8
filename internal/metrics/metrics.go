// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UsersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "userdirectory_users_created_total",
		Help: "Number of users created.",
	})

	UsersUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "userdirectory_users_updated_total",
		Help: "Number of successful user updates.",
	})

	StatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "userdirectory_status_changes_total",
		Help: "Status change requests by outcome (changed or unchanged).",
	}, []string{"outcome"})

	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "userdirectory_login_attempts_total",
		Help: "Login attempts by result (success, rejected or error).",
	}, []string{"result"})

	// DuplicateEntries counts writes rejected by a uniqueness constraint.
	DuplicateEntries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "userdirectory_duplicate_entries_total",
		Help: "Number of writes rejected because the email or phone was taken.",
	})
)
