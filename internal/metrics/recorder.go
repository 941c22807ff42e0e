// Package metrics defines observability hooks for the conversion
// pipeline, job tracker, and file reaper.
package metrics

import "time"

// Outcome labels for conversion and job counters.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Recorder defines observability hooks for conversions and background
// services. Implementations may forward to Prometheus, OpenTelemetry,
// etc. All methods must be safe on the NoopRecorder so injection stays
// optional.
type Recorder interface {
	ObserveConversionDuration(inputFormat, outputFormat string, d time.Duration)
	IncConversionOutcome(outcome string)
	ObserveStageDuration(stage string, d time.Duration)
	ObserveExportSize(format string, sizeBytes int64)
	IncJobOutcome(outcome string)
	SetTrackedJobs(n int)
	AddReapedFiles(n int)
	SetReaperRunning(running bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveConversionDuration(string, string, time.Duration) {}
func (NoopRecorder) IncConversionOutcome(string)                             {}
func (NoopRecorder) ObserveStageDuration(string, time.Duration)              {}
func (NoopRecorder) ObserveExportSize(string, int64)                         {}
func (NoopRecorder) IncJobOutcome(string)                                    {}
func (NoopRecorder) SetTrackedJobs(int)                                      {}
func (NoopRecorder) AddReapedFiles(int)                                      {}
func (NoopRecorder) SetReaperRunning(bool)                                   {}
