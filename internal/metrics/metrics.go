// Package metrics exposes Prometheus instrumentation for assessment submissions.
//
// The CLI is short-lived, so instead of serving /metrics the collected values
// are written to a node-exporter textfile after each run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes used as the "outcome" label.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dora_submissions_total",
		Help: "Submission attempts by outcome",
	}, []string{"outcome"})

	deliveryFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dora_delivery_failures_total",
		Help: "Report deliveries that returned false or an error",
	})

	chartUnavailableTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dora_chart_unavailable_total",
		Help: "Submissions that proceeded without a chart image",
	})

	submissionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dora_submission_duration_seconds",
		Help:    "Wall time from entering Submitting to a terminal state",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
	})

	draftsSavedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dora_drafts_saved_total",
		Help: "Drafts handed to the draft store",
	})
)

// RecordSubmission counts one submission attempt with the given outcome and
// records its duration. Rejected attempts never entered Submitting, so their
// duration is not observed.
func RecordSubmission(outcome string, d time.Duration) {
	submissionsTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeRejected {
		submissionDuration.Observe(d.Seconds())
	}
}

// RecordDeliveryFailure counts a failed report delivery.
func RecordDeliveryFailure() {
	deliveryFailuresTotal.Inc()
}

// RecordChartUnavailable counts a submission that went ahead without a chart.
func RecordChartUnavailable() {
	chartUnavailableTotal.Inc()
}

// RecordDraftSaved counts a persisted draft.
func RecordDraftSaved() {
	draftsSavedTotal.Inc()
}

// WriteTextfile writes every registered metric in the Prometheus text format
// to path, for collection by node_exporter's textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
