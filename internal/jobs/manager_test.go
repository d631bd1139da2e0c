package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalErrors "github.com/gcbaptista/go-archive-search/internal/errors"
	"github.com/gcbaptista/go-archive-search/model"
)

func waitForStatus(t *testing.T, m *Manager, jobID string, want model.JobStatus) *model.Job {
	t.Helper()
	var job *model.Job
	require.Eventually(t, func() bool {
		j, err := m.GetJob(jobID)
		if err != nil {
			return false
		}
		job = j
		return j.Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestJobManager_CreateJob(t *testing.T) {
	manager := NewManager(2, time.Hour)
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeRebuild, map[string]string{"records_path": "records.jsonl"})
	require.NotEmpty(t, jobID)

	job, err := manager.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobTypeRebuild, job.Type)
	assert.Equal(t, model.JobStatusPending, job.Status)
	assert.Equal(t, "records.jsonl", job.Metadata["records_path"])

	// Copies are detached from the tracked job
	job.Metadata["records_path"] = "changed"
	again, err := manager.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, "records.jsonl", again.Metadata["records_path"])
}

func TestJobManager_GetJobNotFound(t *testing.T) {
	manager := NewManager(1, time.Hour)
	defer manager.Stop()

	_, err := manager.GetJob("missing")
	assert.ErrorIs(t, err, internalErrors.ErrJobNotFound)
}

func TestJobManager_ExecuteJob(t *testing.T) {
	manager := NewManager(2, time.Hour)
	manager.Start()
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeRebuild, nil)
	err := manager.ExecuteJob(jobID, func(ctx context.Context, id string) error {
		manager.UpdateJobProgress(id, 50, 100, "Halfway done")
		manager.UpdateJobProgress(id, 100, 100, "Completed")
		return nil
	})
	require.NoError(t, err)

	job := waitForStatus(t, manager, jobID, model.JobStatusCompleted)
	require.NotNil(t, job.Progress)
	assert.Equal(t, 100, job.Progress.Current)
	assert.Equal(t, 100.0, job.Progress.GetProgressPercentage())
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.CompletedAt)

	metrics := manager.GetMetrics()
	assert.Equal(t, int64(1), metrics.JobsCompleted)
	assert.Equal(t, int64(1), metrics.JobsByStatus[model.JobStatusCompleted])
	assert.Equal(t, int64(0), manager.metrics.CurrentWorkload())
}

func TestJobManager_FailedJob(t *testing.T) {
	manager := NewManager(1, time.Hour)
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeRebuild, nil)
	require.NoError(t, manager.ExecuteJob(jobID, func(ctx context.Context, id string) error {
		return errors.New("records file missing")
	}))

	job := waitForStatus(t, manager, jobID, model.JobStatusFailed)
	assert.Equal(t, "records file missing", job.Error)
	assert.Equal(t, 0.0, manager.GetMetrics().SuccessRate)
}

func TestJobManager_ExecuteTwiceIsRejected(t *testing.T) {
	manager := NewManager(1, time.Hour)
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeRebuild, nil)
	require.NoError(t, manager.ExecuteJob(jobID, func(ctx context.Context, id string) error { return nil }))
	assert.Error(t, manager.ExecuteJob(jobID, func(ctx context.Context, id string) error { return nil }))
}

func TestJobManager_StopCancelsRunningJobs(t *testing.T) {
	manager := NewManager(1, time.Hour)

	started := make(chan struct{})
	jobID := manager.CreateJob(model.JobTypeRebuild, nil)
	require.NoError(t, manager.ExecuteJob(jobID, func(ctx context.Context, id string) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))

	<-started
	manager.Stop()

	job, err := manager.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCancelled, job.Status)
}

func TestJobManager_ExecuteJobDoesNotWaitForWorker(t *testing.T) {
	manager := NewManager(1, time.Hour)
	defer manager.Stop()

	release := make(chan struct{})
	first := manager.CreateJob(model.JobTypeRebuild, nil)
	require.NoError(t, manager.ExecuteJob(first, func(ctx context.Context, id string) error {
		<-release
		return nil
	}))
	waitForStatus(t, manager, first, model.JobStatusRunning)

	second := manager.CreateJob(model.JobTypeRebuild, nil)
	returned := make(chan error, 1)
	go func() {
		returned <- manager.ExecuteJob(second, func(ctx context.Context, id string) error { return nil })
	}()

	select {
	case err := <-returned:
		require.NoError(t, err)
	case <-time.After(time.Second):
		close(release)
		t.Fatal("ExecuteJob blocked while every worker was busy")
	}

	job, err := manager.GetJob(second)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, job.Status)

	// A queued job cannot be scheduled a second time
	assert.Error(t, manager.ExecuteJob(second, func(ctx context.Context, id string) error { return nil }))

	close(release)
	waitForStatus(t, manager, first, model.JobStatusCompleted)
	waitForStatus(t, manager, second, model.JobStatusCompleted)
}

func TestJobManager_StopCancelsQueuedJobs(t *testing.T) {
	manager := NewManager(1, time.Hour)

	started := make(chan struct{})
	running := manager.CreateJob(model.JobTypeRebuild, nil)
	require.NoError(t, manager.ExecuteJob(running, func(ctx context.Context, id string) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	<-started

	queued := manager.CreateJob(model.JobTypeRebuild, nil)
	ran := false
	require.NoError(t, manager.ExecuteJob(queued, func(ctx context.Context, id string) error {
		ran = true
		return nil
	}))

	manager.Stop()

	job, err := manager.GetJob(queued)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCancelled, job.Status)
	assert.False(t, ran)

	late := manager.CreateJob(model.JobTypeRebuild, nil)
	assert.Error(t, manager.ExecuteJob(late, func(ctx context.Context, id string) error { return nil }))
}

func TestJobManager_ListAndCleanup(t *testing.T) {
	manager := NewManager(2, time.Hour)
	defer manager.Stop()

	done := manager.CreateJob(model.JobTypeRebuild, nil)
	pending := manager.CreateJob(model.JobTypeRebuild, nil)
	require.NoError(t, manager.ExecuteJob(done, func(ctx context.Context, id string) error { return nil }))
	waitForStatus(t, manager, done, model.JobStatusCompleted)

	assert.Len(t, manager.ListJobs(nil), 2)
	status := model.JobStatusPending
	listed := manager.ListJobs(&status)
	require.Len(t, listed, 1)
	assert.Equal(t, pending, listed[0].ID)

	assert.Equal(t, 0, manager.CleanupOldJobs(time.Hour))
	assert.Equal(t, 1, manager.CleanupOldJobs(-time.Second))

	_, err := manager.GetJob(done)
	assert.ErrorIs(t, err, internalErrors.ErrJobNotFound)
	_, err = manager.GetJob(pending)
	assert.NoError(t, err)
}
