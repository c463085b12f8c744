package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// workflowEvents counts workflow hook invocations.
	// Labels:
	// - kind:    onQuoteValidated, onQuoteSent, ...
	// - outcome: "applied", "duplicate" or "error"
	workflowEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsflow",
			Subsystem: "workflow",
			Name:      "events_total",
			Help:      "Number of workflow events dispatched, by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	// notificationsSent counts outbound emails.
	// Labels:
	// - type:    confirmation, quote or intervention_date
	// - outcome: "sent" or "failed"
	notificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsflow",
			Subsystem: "notification",
			Name:      "emails_total",
			Help:      "Number of notification emails attempted, by type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	// documentUploads counts generated documents pushed to object storage.
	documentUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsflow",
			Subsystem: "storage",
			Name:      "uploads_total",
			Help:      "Number of document uploads, by bucket and outcome.",
		},
		[]string{"bucket", "outcome"},
	)

	// followupReminders counts followups included in reminder runs.
	followupReminders = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "opsflow",
			Subsystem: "followup",
			Name:      "reminders_total",
			Help:      "Number of due followups included in reminder emails.",
		},
	)

	// jobRuns times scheduled job executions.
	// Labels:
	// - job:     job name
	// - trigger: "schedule" or "manual"
	// - outcome: "success" or "error"
	jobRuns = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "opsflow",
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Scheduled job run duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"job", "trigger", "outcome"},
	)
)

// IncWorkflowEvent increments the workflow counter for kind and outcome.
func IncWorkflowEvent(kind, outcome string) {
	if kind == "" {
		kind = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	workflowEvents.WithLabelValues(kind, outcome).Inc()
}

func IncNotification(emailType, outcome string) {
	if emailType == "" {
		emailType = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	notificationsSent.WithLabelValues(emailType, outcome).Inc()
}

func IncDocumentUpload(bucket, outcome string) {
	if bucket == "" {
		bucket = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	documentUploads.WithLabelValues(bucket, outcome).Inc()
}

func AddFollowupReminders(count int) {
	if count <= 0 {
		return
	}
	followupReminders.Add(float64(count))
}

func ObserveJobRun(job, trigger, outcome string, duration time.Duration) {
	jobRuns.WithLabelValues(job, trigger, outcome).Observe(duration.Seconds())
}
