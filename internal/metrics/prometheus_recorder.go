package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once               sync.Once
	conversionDuration *prom.HistogramVec
	conversionOutcome  *prom.CounterVec
	stageDuration      *prom.HistogramVec
	exportSize         *prom.HistogramVec
	jobOutcome         *prom.CounterVec
	trackedJobs        prom.Gauge
	reapedFiles        prom.Counter
	reaperRunning      prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.conversionDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "meshforge",
			Name:      "conversion_duration_seconds",
			Help:      "Duration of full conversions by input and output format",
			Buckets:   prom.DefBuckets,
		}, []string{"input_format", "output_format"})
		pr.conversionOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "meshforge",
			Name:      "conversion_outcomes_total",
			Help:      "Conversion outcomes by final status",
		}, []string{"outcome"})
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "meshforge",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.exportSize = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "meshforge",
			Name:      "export_size_bytes",
			Help:      "Size of exported mesh files",
			Buckets:   prom.ExponentialBuckets(1024, 4, 10),
		}, []string{"format"})
		pr.jobOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "meshforge",
			Name:      "job_outcomes_total",
			Help:      "Async job outcomes by final status",
		}, []string{"outcome"})
		pr.trackedJobs = prom.NewGauge(prom.GaugeOpts{
			Namespace: "meshforge",
			Name:      "tracked_jobs",
			Help:      "Number of job records currently held by the tracker",
		})
		pr.reapedFiles = prom.NewCounter(prom.CounterOpts{
			Namespace: "meshforge",
			Name:      "reaped_files_total",
			Help:      "Files deleted by the TTL reaper",
		})
		pr.reaperRunning = prom.NewGauge(prom.GaugeOpts{
			Namespace: "meshforge",
			Name:      "reaper_running",
			Help:      "Whether the TTL reaper loop is running (1) or stopped (0)",
		})
		reg.MustRegister(pr.conversionDuration, pr.conversionOutcome, pr.stageDuration,
			pr.exportSize, pr.jobOutcome, pr.trackedJobs, pr.reapedFiles, pr.reaperRunning)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveConversionDuration(inputFormat, outputFormat string, d time.Duration) {
	if p == nil || p.conversionDuration == nil {
		return
	}
	p.conversionDuration.WithLabelValues(inputFormat, outputFormat).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncConversionOutcome(outcome string) {
	if p == nil || p.conversionOutcome == nil {
		return
	}
	p.conversionOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveExportSize(format string, sizeBytes int64) {
	if p == nil || p.exportSize == nil {
		return
	}
	p.exportSize.WithLabelValues(format).Observe(float64(sizeBytes))
}

func (p *PrometheusRecorder) IncJobOutcome(outcome string) {
	if p == nil || p.jobOutcome == nil {
		return
	}
	p.jobOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetTrackedJobs(n int) {
	if p == nil || p.trackedJobs == nil {
		return
	}
	p.trackedJobs.Set(float64(n))
}

func (p *PrometheusRecorder) AddReapedFiles(n int) {
	if p == nil || p.reapedFiles == nil || n <= 0 {
		return
	}
	p.reapedFiles.Add(float64(n))
}

func (p *PrometheusRecorder) SetReaperRunning(running bool) {
	if p == nil || p.reaperRunning == nil {
		return
	}
	v := 0.0
	if running {
		v = 1.0
	}
	p.reaperRunning.Set(v)
}
