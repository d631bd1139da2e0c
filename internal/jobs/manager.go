// Package jobs runs long operations, such as index rebuilds, in the
// background and tracks their status for polling clients.
package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	internalErrors "github.com/gcbaptista/go-archive-search/internal/errors"
	"github.com/gcbaptista/go-archive-search/internal/logging"
	"github.com/gcbaptista/go-archive-search/model"
)

// Func is the body of a job. It must return promptly once ctx is done.
type Func func(ctx context.Context, jobID string) error

// Manager handles background job execution and tracking
type Manager struct {
	mu        sync.RWMutex
	jobs      map[string]*model.Job
	scheduled map[string]struct{} // Pending jobs already handed to ExecuteJob
	workers   chan struct{}       // Limits concurrent jobs
	ctx       context.Context
	cancel    context.CancelFunc
	stopOnce  sync.Once
	wg        sync.WaitGroup
	retention time.Duration
	metrics   *JobMetrics
	logger    *logrus.Entry
}

// NewManager creates a job manager running at most maxWorkers jobs at once.
// Finished jobs are forgotten after retention.
func NewManager(maxWorkers int, retention time.Duration) *Manager {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		jobs:      make(map[string]*model.Job),
		scheduled: make(map[string]struct{}),
		workers:   make(chan struct{}, maxWorkers),
		ctx:       ctx,
		cancel:    cancel,
		retention: retention,
		metrics:   NewJobMetrics(),
		logger:    logging.WithComponent("jobs"),
	}
}

// Start begins background cleanup of finished jobs.
func (m *Manager) Start() {
	m.logger.WithField("max_workers", cap(m.workers)).Info("job manager started")
	go m.cleanupRoutine()
}

// Stop cancels running jobs and waits for them to return.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		// Cancelling under mu orders it against the wg.Add in ExecuteJob.
		m.mu.Lock()
		m.cancel()
		m.mu.Unlock()
		m.wg.Wait()
		m.logger.Info("job manager stopped")
	})
}

// CreateJob registers a pending job and returns its ID.
func (m *Manager) CreateJob(jobType model.JobType, metadata map[string]string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := &model.Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    model.JobStatusPending,
		CreatedAt: time.Now(),
		Metadata:  metadata,
	}

	m.jobs[job.ID] = job
	m.metrics.RecordJobCreated(jobType)
	m.logger.WithFields(logrus.Fields{"job_id": job.ID, "type": job.Type}).Info("job created")
	return job.ID
}

// GetJob returns a copy of the job with the given ID.
func (m *Manager) GetJob(jobID string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return nil, internalErrors.NewJobNotFoundError(jobID)
	}
	return copyJob(job), nil
}

// ListJobs returns copies of all tracked jobs, newest first, optionally
// filtered by status.
func (m *Manager) ListJobs(status *model.JobStatus) []*model.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*model.Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		if status == nil || job.Status == *status {
			result = append(result, copyJob(job))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// ExecuteJob schedules fn for a pending job and returns immediately. The job
// stays pending until a worker slot frees up; poll GetJob for the outcome.
func (m *Manager) ExecuteJob(jobID string, fn Func) error {
	m.mu.Lock()
	job, exists := m.jobs[jobID]
	if !exists {
		m.mu.Unlock()
		return internalErrors.NewJobNotFoundError(jobID)
	}
	if _, queued := m.scheduled[jobID]; queued || job.Status != model.JobStatusPending {
		m.mu.Unlock()
		return fmt.Errorf("job with ID '%s' is not in pending status (current: %s)", jobID, job.Status)
	}
	if m.ctx.Err() != nil {
		m.mu.Unlock()
		return fmt.Errorf("job manager is shutting down")
	}
	m.scheduled[jobID] = struct{}{}
	m.wg.Add(1)
	jobType := job.Type
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()

		select {
		case m.workers <- struct{}{}:
		case <-m.ctx.Done():
			m.dequeue(jobID, model.JobStatusCancelled, "job manager shutting down")
			m.logger.WithField("job_id", jobID).Warn("queued job cancelled")
			return
		}
		defer func() { <-m.workers }()

		if m.ctx.Err() != nil {
			m.dequeue(jobID, model.JobStatusCancelled, "job manager shutting down")
			return
		}
		m.dequeue(jobID, model.JobStatusRunning, "")

		startTime := time.Now()
		err := fn(m.ctx, jobID)
		executionTime := time.Since(startTime)

		entry := m.logger.WithFields(logrus.Fields{"job_id": jobID, "elapsed": executionTime})
		switch {
		case err != nil && m.ctx.Err() != nil:
			m.updateJobStatus(jobID, model.JobStatusCancelled, err.Error())
			entry.WithError(err).Warn("job cancelled")
		case err != nil:
			m.updateJobStatus(jobID, model.JobStatusFailed, err.Error())
			m.metrics.RecordJobFailed(jobType)
			entry.WithError(err).Error("job failed")
		default:
			m.updateJobStatus(jobID, model.JobStatusCompleted, "")
			m.metrics.RecordJobCompleted(jobType, executionTime)
			entry.Info("job completed")
		}
	}()

	return nil
}

// dequeue leaves the scheduled set and moves to status in one step, so a
// job is never pending and unscheduled at the same time.
func (m *Manager) dequeue(jobID string, status model.JobStatus, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.scheduled, jobID)
	m.setJobStatusLocked(jobID, status, errorMsg)
}

// UpdateJobProgress updates the progress of a running job
func (m *Manager) UpdateJobProgress(jobID string, current, total int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}
	if job.Progress == nil {
		job.Progress = &model.JobProgress{}
	}
	job.Progress.Current = current
	job.Progress.Total = total
	job.Progress.Message = message
}

func (m *Manager) updateJobStatus(jobID string, status model.JobStatus, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setJobStatusLocked(jobID, status, errorMsg)
}

func (m *Manager) setJobStatusLocked(jobID string, status model.JobStatus, errorMsg string) {
	job, exists := m.jobs[jobID]
	if !exists {
		return
	}

	oldStatus := job.Status
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}

	now := time.Now()
	if status == model.JobStatusRunning {
		job.StartedAt = &now
	}
	if status.IsTerminal() {
		job.CompletedAt = &now
	}

	m.metrics.RecordJobStatusChange(oldStatus, status)
}

func (m *Manager) cleanupRoutine() {
	interval := m.retention / 24
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanupOldJobs(m.retention)
		case <-m.ctx.Done():
			return
		}
	}
}

// CleanupOldJobs removes finished jobs that completed more than maxAge ago.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	cleaned := 0
	for jobID, job := range m.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, jobID)
			cleaned++
		}
	}

	if cleaned > 0 {
		m.logger.WithField("count", cleaned).Info("cleaned up old jobs")
	}
	return cleaned
}

// GetMetrics returns current job performance metrics
func (m *Manager) GetMetrics() JobMetricsData {
	return m.metrics.GetMetrics()
}

func copyJob(job *model.Job) *model.Job {
	jobCopy := *job
	if job.Progress != nil {
		progressCopy := *job.Progress
		jobCopy.Progress = &progressCopy
	}
	if job.Metadata != nil {
		jobCopy.Metadata = make(map[string]string, len(job.Metadata))
		for k, v := range job.Metadata {
			jobCopy.Metadata[k] = v
		}
	}
	return &jobCopy
}
