package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/meshforge/internal/config"
	"git.home.luguber.info/inful/meshforge/internal/jobs"
	"git.home.luguber.info/inful/meshforge/internal/metrics"
	"git.home.luguber.info/inful/meshforge/internal/pipeline"
	"git.home.luguber.info/inful/meshforge/internal/reaper"
	"git.home.luguber.info/inful/meshforge/internal/server"
)

const shutdownTimeout = 15 * time.Second

// runServe wires the full service: metrics, pipeline, job tracker,
// file reaper, job pruning, config hot-reload, and the HTTP server.
// Blocks until SIGINT/SIGTERM, then shuts everything down in reverse
// order.
func runServe(cfg *config.Config) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var serverOpts []server.Option
	if cfg.Metrics.Enabled {
		registry := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
		serverOpts = append(serverOpts, server.WithMetricsHandler(metrics.HTTPHandler(registry)))
	}

	// No geometry kernel binding is compiled in; B-rep inputs rely on
	// the placeholder fallback when geometry.allow_placeholder is set.
	pl := pipeline.New(nil, cfg.Storage.OutputDir, pipeline.WithRecorder(recorder))
	tracker := jobs.NewTracker(jobs.WithRecorder(recorder))

	rp, err := reaper.New(cfg.ReapedDirectories(), cfg.Cleanup.TTL, cfg.Cleanup.Interval,
		reaper.WithRecorder(recorder))
	if err != nil {
		return err
	}
	if cfg.Cleanup.Enabled {
		rp.Start()
	}
	defer func() {
		if err := rp.Stop(); err != nil {
			slog.Error("Failed to stop file reaper", "error", err)
		}
	}()

	pruneAge := &atomicDuration{}
	pruneAge.Store(cfg.Jobs.PruneAge)

	pruner, err := startJobPruner(tracker, cfg.Jobs.PruneInterval, pruneAge)
	if err != nil {
		return err
	}
	if pruner != nil {
		defer func() { _ = pruner.Shutdown() }()
	}

	watcher, err := config.NewWatcher(CLI.Config, func(next *config.Config) {
		rp.SetTTL(next.Cleanup.TTL)
		pruneAge.Store(next.Jobs.PruneAge)
		applyLogLevel(next.Logging.Level)
	})
	if err != nil {
		slog.Warn("Config watcher unavailable", "error", err)
	} else {
		if err := watcher.Start(context.Background()); err != nil {
			slog.Warn("Config watcher failed to start", "error", err)
		} else {
			defer func() { _ = watcher.Stop() }()
		}
	}

	srv := server.New(cfg, pl, tracker, rp, serverOpts...)
	if err := srv.Start(context.Background()); err != nil {
		return err
	}

	slog.Info("Service started",
		slog.String("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)),
		slog.Bool("cleanup", cfg.Cleanup.Enabled),
		slog.Bool("metrics", cfg.Metrics.Enabled))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	slog.Info("Shutting down", slog.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}

	// Let in-flight async jobs reach a terminal state before the
	// process exits; their outputs stay on disk for later pickup runs.
	done := make(chan struct{})
	go func() {
		tracker.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		slog.Warn("Shutdown timeout reached with jobs still in flight")
	}
	return nil
}

// startJobPruner schedules periodic eviction of terminal job records.
// Returns nil when pruning is disabled. The age is read per run so
// config hot-reload takes effect without rescheduling.
func startJobPruner(tracker *jobs.Tracker, interval time.Duration, age *atomicDuration) (gocron.Scheduler, error) {
	if age.Load() <= 0 || interval <= 0 {
		return nil, nil
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create prune scheduler: %w", err)
	}
	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if maxAge := age.Load(); maxAge > 0 {
				tracker.Prune(maxAge)
			}
		}),
		gocron.WithName("job-pruner"),
	); err != nil {
		return nil, fmt.Errorf("failed to schedule job pruning: %w", err)
	}
	s.Start()
	return s, nil
}

// atomicDuration shares a mutable duration between the config watcher
// and the prune schedule.
type atomicDuration struct {
	v atomic.Int64
}

func (d *atomicDuration) Store(val time.Duration) { d.v.Store(int64(val)) }
func (d *atomicDuration) Load() time.Duration     { return time.Duration(d.v.Load()) }
