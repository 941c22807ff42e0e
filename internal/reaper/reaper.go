// Package reaper deletes expired files from the service's working
// directories. It runs independently of job state on a fixed schedule;
// its only shared resource with the pipeline is the filesystem, and
// deletion races are benign.
package reaper

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/meshforge/internal/logfields"
	"git.home.luguber.info/inful/meshforge/internal/metrics"
)

// Stats is a point-in-time observation of the reaper. Purely
// informational; collecting it has no side effects.
type Stats struct {
	Running     bool           `json:"running"`
	TTL         string         `json:"ttl"`
	Directories []string       `json:"directories"`
	FileCounts  map[string]int `json:"file_counts"`
}

// Reaper sweeps the configured directories and removes regular files
// older than the TTL, recursing into subdirectories and removing any
// directory left empty.
type Reaper struct {
	mu          sync.Mutex
	directories []string
	ttl         time.Duration
	interval    time.Duration
	running     bool

	scheduler gocron.Scheduler
	recorder  metrics.Recorder

	// recentlyDeleted avoids duplicate delete attempts when a path is
	// revisited through directory re-entry within a cycle. Revalidated
	// each sweep to bound its size.
	recentlyDeleted map[string]struct{}
}

// Option configures a Reaper.
type Option func(*Reaper)

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(rp *Reaper) { rp.recorder = r }
}

// New creates a reaper for the given directories. The sweep job is
// registered but does not run until Start.
func New(directories []string, ttl, interval time.Duration, options ...Option) (*Reaper, error) {
	r := &Reaper{
		directories:     directories,
		ttl:             ttl,
		interval:        interval,
		recorder:        metrics.NoopRecorder{},
		recentlyDeleted: make(map[string]struct{}),
	}
	for _, opt := range options {
		opt(r)
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create reaper scheduler: %w", err)
	}
	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(r.Sweep),
		gocron.WithName("file-reaper"),
	); err != nil {
		return nil, fmt.Errorf("failed to schedule reaper sweep: %w", err)
	}
	r.scheduler = s
	return r, nil
}

// Start begins the sweep loop. Calling Start on a running reaper is a
// no-op logged as a warning.
func (r *Reaper) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		slog.Warn("File reaper already running")
		return
	}
	r.running = true
	r.mu.Unlock()

	slog.Info("Starting file reaper",
		slog.Duration("ttl", r.ttl),
		slog.Duration("interval", r.interval),
		logfields.Count(len(r.directories)))
	r.scheduler.Start()
	r.recorder.SetReaperRunning(true)
}

// Stop cancels the loop and returns once it has exited. Stopping a
// stopped reaper is a no-op.
func (r *Reaper) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	r.mu.Unlock()

	slog.Info("Stopping file reaper")
	err := r.scheduler.Shutdown()
	r.recorder.SetReaperRunning(false)
	return err
}

// SetTTL updates the expiry threshold; the next sweep uses the new
// value. Used by config hot-reload.
func (r *Reaper) SetTTL(ttl time.Duration) {
	r.mu.Lock()
	old := r.ttl
	r.ttl = ttl
	r.mu.Unlock()
	if old != ttl {
		slog.Info("Reaper TTL updated",
			slog.Duration("old", old),
			slog.Duration("new", ttl))
	}
}

// Stats reports the reaper's current state and per-directory file
// counts.
func (r *Reaper) Stats() Stats {
	r.mu.Lock()
	stats := Stats{
		Running:     r.running,
		TTL:         r.ttl.String(),
		Directories: append([]string(nil), r.directories...),
		FileCounts:  make(map[string]int, len(r.directories)),
	}
	r.mu.Unlock()

	for _, dir := range stats.Directories {
		stats.FileCounts[dir] = countFiles(dir)
	}
	return stats
}

// Sweep runs one reap cycle over all configured directories.
func (r *Reaper) Sweep() {
	r.mu.Lock()
	ttl := r.ttl
	dirs := append([]string(nil), r.directories...)
	r.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	deleted := 0
	for _, dir := range dirs {
		deleted += r.sweepDir(dir, cutoff, false)
	}

	r.revalidate(cutoff)

	if deleted > 0 {
		r.recorder.AddReapedFiles(deleted)
		slog.Info("Reap cycle completed", logfields.Count(deleted))
	}
}

// sweepDir reaps one directory tree and returns the number of files
// deleted. removeSelf controls whether the directory itself is removed
// when left empty; the configured roots are always kept.
func (r *Reaper) sweepDir(dir string, cutoff time.Time, removeSelf bool) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to read directory", logfields.Directory(dir), logfields.Error(err))
		}
		return 0
	}

	deleted := 0
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			deleted += r.sweepDir(path, cutoff, true)
			continue
		}

		if r.alreadyDeleted(path) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(path); err != nil {
			// Concurrent deletion is benign.
			if !os.IsNotExist(err) {
				slog.Warn("Failed to delete expired file", logfields.Path(path), logfields.Error(err))
			}
			continue
		}
		r.markDeleted(path)
		deleted++
		slog.Debug("Deleted expired file", logfields.Path(path))
	}

	if removeSelf {
		// Remove the directory if reaping emptied it. ENOTEMPTY from a
		// concurrent writer is fine.
		if remaining, err := os.ReadDir(dir); err == nil && len(remaining) == 0 {
			if err := os.Remove(dir); err == nil {
				slog.Debug("Removed empty directory", logfields.Directory(dir))
			}
		}
	}
	return deleted
}

func (r *Reaper) alreadyDeleted(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.recentlyDeleted[path]
	return ok
}

func (r *Reaper) markDeleted(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recentlyDeleted[path] = struct{}{}
}

// revalidate drops set entries whose paths have been recreated with a
// fresh mtime, and keeps the set bounded to paths that are still gone
// or still expired.
func (r *Reaper) revalidate(cutoff time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for path := range r.recentlyDeleted {
		info, err := os.Stat(path)
		if err != nil {
			// Still gone: the entry served its purpose this cycle.
			delete(r.recentlyDeleted, path)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			// Recreated since deletion; eligible again.
			delete(r.recentlyDeleted, path)
		}
	}
}

func countFiles(dir string) int {
	count := 0
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	return count
}
