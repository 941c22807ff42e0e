package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAsyncSuccess(t *testing.T) {
	tr := NewTracker()
	outFile := filepath.Join(t.TempDir(), "result.obj")
	require.NoError(t, os.WriteFile(outFile, []byte("v 0 0 0\n"), 0o644))

	tr.SubmitAsync(context.Background(), "job-1", "input.stl", func(context.Context) (string, error) {
		return outFile, nil
	})
	tr.Wait()

	job, ok := tr.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, job.Status)
	assert.Equal(t, outFile, job.OutputFile)
	assert.False(t, job.Finished.IsZero())

	// Repeated polls return a stable output file.
	again, ok := tr.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, job.OutputFile, again.OutputFile)
}

func TestSubmitAsyncFailureCaptured(t *testing.T) {
	tr := NewTracker()

	tr.SubmitAsync(context.Background(), "job-1", "input.stl", func(context.Context) (string, error) {
		return "", errors.New("tessellation failed")
	})
	tr.Wait()

	job, ok := tr.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, StatusFailed, job.Status)
	assert.Contains(t, job.Message, "tessellation failed")
	assert.Empty(t, job.OutputFile)
}

func TestSubmitAsyncPanicCaptured(t *testing.T) {
	tr := NewTracker()

	tr.SubmitAsync(context.Background(), "job-1", "input.stl", func(context.Context) (string, error) {
		panic("kernel crashed")
	})
	tr.Wait()

	job, ok := tr.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, StatusFailed, job.Status)
	assert.Contains(t, job.Message, "kernel crashed")
}

func TestSubmitAsyncRecordsInProgressImmediately(t *testing.T) {
	tr := NewTracker()
	release := make(chan struct{})

	tr.SubmitAsync(context.Background(), "job-1", "input.stl", func(context.Context) (string, error) {
		<-release
		return "", nil
	})

	job, ok := tr.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, StatusInProgress, job.Status)

	close(release)
	tr.Wait()
}

func TestGetUnknownJob(t *testing.T) {
	tr := NewTracker()
	_, ok := tr.Get("nope")
	assert.False(t, ok)
}

func TestDuplicateJobIDIgnored(t *testing.T) {
	tr := NewTracker()

	tr.SubmitAsync(context.Background(), "job-1", "first.stl", func(context.Context) (string, error) {
		return "", nil
	})
	tr.Wait()

	tr.SubmitAsync(context.Background(), "job-1", "second.stl", func(context.Context) (string, error) {
		t.Error("duplicate submission must not run")
		return "", nil
	})
	tr.Wait()

	job, ok := tr.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, "first.stl", job.InputFile)
	assert.Equal(t, 1, tr.Len())
}

func TestGetFlagsExpiredOutputFile(t *testing.T) {
	tr := NewTracker()
	outFile := filepath.Join(t.TempDir(), "result.obj")
	require.NoError(t, os.WriteFile(outFile, []byte("x"), 0o644))

	tr.SubmitAsync(context.Background(), "job-1", "input.stl", func(context.Context) (string, error) {
		return outFile, nil
	})
	tr.Wait()

	require.NoError(t, os.Remove(outFile))

	job, ok := tr.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, job.Status)
	assert.Equal(t, outFile, job.OutputFile)
	assert.Contains(t, job.Message, "expired")
}

func TestConcurrentJobsIndependent(t *testing.T) {
	tr := NewTracker()

	for i := 0; i < 20; i++ {
		id := string(rune('a' + i))
		fail := i%2 == 0
		tr.SubmitAsync(context.Background(), id, "input.stl", func(context.Context) (string, error) {
			if fail {
				return "", errors.New("boom")
			}
			return "/out/" + id, nil
		})
	}
	tr.Wait()

	assert.Equal(t, 20, tr.Len())
	for i := 0; i < 20; i++ {
		job, ok := tr.Get(string(rune('a' + i)))
		require.True(t, ok)
		if i%2 == 0 {
			assert.Equal(t, StatusFailed, job.Status)
		} else {
			assert.Equal(t, StatusCompleted, job.Status)
		}
	}
}

func TestPruneRemovesOnlyOldTerminalJobs(t *testing.T) {
	tr := NewTracker()

	tr.SubmitAsync(context.Background(), "old", "a.stl", func(context.Context) (string, error) {
		return "", errors.New("x")
	})
	tr.Wait()

	// Backdate the finished record.
	tr.mu.Lock()
	tr.jobs["old"].Finished = time.Now().Add(-2 * time.Hour)
	tr.mu.Unlock()

	release := make(chan struct{})
	tr.SubmitAsync(context.Background(), "running", "b.stl", func(context.Context) (string, error) {
		<-release
		return "", nil
	})

	removed := tr.Prune(time.Hour)
	assert.Equal(t, 1, removed)

	_, ok := tr.Get("old")
	assert.False(t, ok)
	_, ok = tr.Get("running")
	assert.True(t, ok)

	close(release)
	tr.Wait()
}

func TestSnapshotNewestFirst(t *testing.T) {
	tr := NewTracker()

	tr.SubmitAsync(context.Background(), "first", "a.stl", func(context.Context) (string, error) {
		return "", nil
	})
	tr.Wait()
	time.Sleep(5 * time.Millisecond)
	tr.SubmitAsync(context.Background(), "second", "b.stl", func(context.Context) (string, error) {
		return "", nil
	})
	tr.Wait()

	snap := tr.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "second", snap[0].ID)
	assert.Equal(t, "first", snap[1].ID)
}
