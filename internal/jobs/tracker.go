// Package jobs tracks asynchronous conversion jobs in memory. Records
// exist only for async submissions; synchronous conversions never
// materialize a job. State does not survive a process restart.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"git.home.luguber.info/inful/meshforge/internal/logfields"
	"git.home.luguber.info/inful/meshforge/internal/metrics"
)

// Status is a job lifecycle state.
type Status string

const (
	// StatusPending marks a job accepted but not yet dispatched. The
	// tracker itself records IN_PROGRESS as soon as execution starts;
	// PENDING appears only in acceptance responses.
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether s is an end state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one tracked conversion.
type Job struct {
	ID         string    `json:"job_id"`
	Status     Status    `json:"status"`
	InputFile  string    `json:"input_file,omitempty"`
	OutputFile string    `json:"output_file,omitempty"`
	Message    string    `json:"message,omitempty"`
	Submitted  time.Time `json:"submitted_at"`
	Finished   time.Time `json:"finished_at,omitzero"`
}

// RunFunc executes one conversion and returns the output path.
type RunFunc func(ctx context.Context) (string, error)

// Tracker owns the job map. Each job id is written by exactly one
// submission goroutine; readers get copies.
type Tracker struct {
	mu       sync.RWMutex
	jobs     map[string]*Job
	recorder metrics.Recorder
	wg       sync.WaitGroup
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) TrackerOption {
	return func(t *Tracker) { t.recorder = r }
}

// NewTracker creates an empty tracker.
func NewTracker(options ...TrackerOption) *Tracker {
	t := &Tracker{
		jobs:     make(map[string]*Job),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

// SubmitAsync records the job as IN_PROGRESS and runs fn in a
// goroutine. Every failure, panics included, is captured into the
// job's FAILED state; this call never returns an error. A duplicate
// id is rejected by leaving the existing record untouched.
func (t *Tracker) SubmitAsync(ctx context.Context, jobID, inputFile string, fn RunFunc) {
	t.mu.Lock()
	if _, exists := t.jobs[jobID]; exists {
		t.mu.Unlock()
		slog.Warn("Duplicate job id ignored", logfields.JobID(jobID))
		return
	}
	t.jobs[jobID] = &Job{
		ID:        jobID,
		Status:    StatusInProgress,
		InputFile: inputFile,
		Submitted: time.Now(),
	}
	n := len(t.jobs)
	t.mu.Unlock()
	t.recorder.SetTrackedJobs(n)

	slog.Info("Job started", logfields.JobID(jobID), logfields.Path(inputFile))

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				t.finish(jobID, "", fmt.Errorf("panic during conversion: %v", r))
			}
		}()
		outputFile, err := fn(ctx)
		t.finish(jobID, outputFile, err)
	}()
}

// finish moves the job to its terminal state.
func (t *Tracker) finish(jobID, outputFile string, err error) {
	t.mu.Lock()
	job, ok := t.jobs[jobID]
	if !ok {
		t.mu.Unlock()
		return
	}
	job.Finished = time.Now()
	if err != nil {
		job.Status = StatusFailed
		job.Message = err.Error()
	} else {
		job.Status = StatusCompleted
		job.OutputFile = outputFile
		job.Message = "conversion completed"
	}
	snapshot := *job
	t.mu.Unlock()

	if err != nil {
		t.recorder.IncJobOutcome(metrics.OutcomeFailed)
		slog.Error("Job failed", logfields.JobID(jobID), logfields.Error(err))
		return
	}
	t.recorder.IncJobOutcome(metrics.OutcomeSuccess)
	slog.Info("Job completed",
		logfields.JobID(jobID),
		logfields.Path(snapshot.OutputFile),
		logfields.DurationMS(float64(snapshot.Finished.Sub(snapshot.Submitted).Milliseconds())))
}

// Get returns a copy of the job record. For completed jobs the output
// file is re-checked: the path stays stable, but a reaped file is
// flagged in the message so clients learn the download window closed.
func (t *Tracker) Get(jobID string) (Job, bool) {
	t.mu.RLock()
	job, ok := t.jobs[jobID]
	if !ok {
		t.mu.RUnlock()
		return Job{}, false
	}
	out := *job
	t.mu.RUnlock()

	if out.Status == StatusCompleted && out.OutputFile != "" {
		if _, err := os.Stat(out.OutputFile); err != nil {
			out.Message = "output file expired and was removed"
		}
	}
	return out, true
}

// Snapshot returns copies of all job records, newest first.
func (t *Tracker) Snapshot() []Job {
	t.mu.RLock()
	out := make([]Job, 0, len(t.jobs))
	for _, job := range t.jobs {
		out = append(out, *job)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Submitted.After(out[j].Submitted)
	})
	return out
}

// Prune removes terminal job records older than maxAge and returns the
// number removed. In-progress jobs are never pruned.
func (t *Tracker) Prune(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	t.mu.Lock()
	removed := 0
	for id, job := range t.jobs {
		if job.Status.Terminal() && job.Finished.Before(cutoff) {
			delete(t.jobs, id)
			removed++
		}
	}
	n := len(t.jobs)
	t.mu.Unlock()

	t.recorder.SetTrackedJobs(n)
	if removed > 0 {
		slog.Info("Pruned job records", logfields.Count(removed))
	}
	return removed
}

// Len returns the number of tracked jobs.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.jobs)
}

// Wait blocks until all submitted jobs have reached a terminal state.
// Used during shutdown and in tests.
func (t *Tracker) Wait() {
	t.wg.Wait()
}
