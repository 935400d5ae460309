// Package metrics provides Prometheus metrics for the discussion host components.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Discussion flow metrics
var (
	// meetingCreationsTotal records meeting-creation requests.
	// Labels:
	//   - status: "success", "failed", "rejected" (validation)
	meetingCreationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discussion_meeting_creations_total",
			Help: "Total number of meeting creation attempts",
		},
		[]string{"status"},
	)

	// analysisSubmissionsTotal records analysis uploads.
	// Labels:
	//   - status: "success", "http_error", "parse_error", "transport_error", "no_artifact"
	analysisSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discussion_analysis_submissions_total",
			Help: "Total number of analysis submissions by outcome",
		},
		[]string{"status"},
	)

	// analysisCompletionsTotal records which signal resolved an analysis first.
	// Labels:
	//   - source: "http" or "realtime"
	analysisCompletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discussion_analysis_completions_total",
			Help: "Total number of analysis completions by winning signal",
		},
		[]string{"source"},
	)

	// analysisDuration records wall time between upload start and response.
	// Buckets: 1s, 5s, 10s, 30s, 60s, 120s, 300s, 600s
	analysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discussion_analysis_duration_seconds",
			Help:    "Duration of analysis requests in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// recordingsTotal records finished recordings.
	// Labels:
	//   - trigger: "user" or "countdown"
	recordingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discussion_recordings_total",
			Help: "Total number of stopped recordings by trigger",
		},
		[]string{"trigger"},
	)

	// recordingDuration records elapsed recording time at stop.
	recordingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discussion_recording_duration_seconds",
			Help:    "Elapsed recording time at stop in seconds",
			Buckets: []float64{30, 60, 300, 600, 1800, 3600},
		},
	)

	// realtimeEventsTotal records rows received on the realtime channel.
	// Labels:
	//   - action: row action tag, "result" or "other"
	realtimeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discussion_realtime_events_total",
			Help: "Total number of realtime insert events received",
		},
		[]string{"action"},
	)
)

func init() {
	prometheus.MustRegister(meetingCreationsTotal)
	prometheus.MustRegister(analysisSubmissionsTotal)
	prometheus.MustRegister(analysisCompletionsTotal)
	prometheus.MustRegister(analysisDuration)
	prometheus.MustRegister(recordingsTotal)
	prometheus.MustRegister(recordingDuration)
	prometheus.MustRegister(realtimeEventsTotal)
}

// RecordMeetingCreation records a meeting-creation attempt.
func RecordMeetingCreation(status string) {
	meetingCreationsTotal.WithLabelValues(status).Inc()
}

// RecordAnalysisSubmission records an analysis submission outcome.
func RecordAnalysisSubmission(status string) {
	analysisSubmissionsTotal.WithLabelValues(status).Inc()
}

// RecordAnalysisDuration records the duration of one analysis request.
func RecordAnalysisDuration(durationSeconds float64) {
	analysisDuration.Observe(durationSeconds)
}

// RecordAnalysisCompletion records which signal resolved the analysis.
func RecordAnalysisCompletion(source string) {
	analysisCompletionsTotal.WithLabelValues(source).Inc()
}

// RecordRecordingStopped records a stopped recording and its elapsed seconds.
func RecordRecordingStopped(trigger string, elapsedSeconds int) {
	recordingsTotal.WithLabelValues(trigger).Inc()
	recordingDuration.Observe(float64(elapsedSeconds))
}

// RecordRealtimeEvent records one realtime row by its action tag.
func RecordRealtimeEvent(action string) {
	if action != "result" {
		action = "other"
	}
	realtimeEventsTotal.WithLabelValues(action).Inc()
}
