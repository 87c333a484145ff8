// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_step_transitions_total",
			Help: "Total number of wizard navigation attempts by outcome",
		},
		[]string{"from", "to", "result"},
	)

	Uploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_uploads_total",
			Help: "Total number of document uploads by slot and outcome",
		},
		[]string{"slot", "result"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_submissions_total",
			Help: "Total number of application submissions by delivery backend and outcome",
		},
		[]string{"backend", "result"},
	)

	DraftStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_draft_store_errors_total",
			Help: "Total number of draft store failures by operation",
		},
		[]string{"op"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wizard_active_sessions",
			Help: "Number of wizard sessions held in memory",
		},
	)
)
