package engine

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/gcbaptista/go-archive-search/index"
	internalErrors "github.com/gcbaptista/go-archive-search/internal/errors"
	"github.com/gcbaptista/go-archive-search/internal/persistence"
	"github.com/gcbaptista/go-archive-search/model"
	"github.com/gcbaptista/go-archive-search/services"
)

// progressEvery controls how often a rebuild reports progress to its job.
const progressEvery = 10000

// RebuildAsync starts a background job that builds a new index from a
// records file, optionally persists it, then swaps it in. The serving index
// keeps answering queries throughout; if any step fails it stays in place.
func (e *Engine) RebuildAsync(req services.RebuildRequest) (string, error) {
	if req.RecordsPath == "" {
		return "", internalErrors.NewValidationError("records_path", "is required")
	}

	metadata := map[string]string{
		"operation":    "rebuild",
		"records_path": req.RecordsPath,
	}
	if req.OutputPath != "" {
		metadata["output_path"] = req.OutputPath
	}
	jobID := e.jobManager.CreateJob(model.JobTypeRebuild, metadata)

	err := e.jobManager.ExecuteJob(jobID, func(ctx context.Context, jobID string) error {
		return e.executeRebuildJob(ctx, req, jobID)
	})
	if err != nil {
		return "", fmt.Errorf("failed to start rebuild job: %w", err)
	}
	return jobID, nil
}

func (e *Engine) executeRebuildJob(ctx context.Context, req services.RebuildRequest, jobID string) error {
	logger := e.logger.WithFields(logrus.Fields{"job_id": jobID, "records_path": req.RecordsPath})

	f, err := os.Open(req.RecordsPath)
	if err != nil {
		return internalErrors.NewIOError("open", req.RecordsPath, err)
	}
	defer f.Close()

	e.jobManager.UpdateJobProgress(jobID, 0, 0, "building index")
	idx, err := index.Build(ctx, f, func(records int) {
		if records%progressEvery == 0 {
			e.jobManager.UpdateJobProgress(jobID, records, 0, "indexed "+strconv.Itoa(records)+" records")
		}
	})
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"documents": idx.NumDocuments(),
		"terms":     idx.NumTerms(),
	}).Info("rebuild finished building")

	if req.OutputPath != "" {
		e.jobManager.UpdateJobProgress(jobID, idx.NumDocuments(), idx.NumDocuments(), "saving index")
		if err := persistence.SaveIndex(req.OutputPath, idx, e.compression); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	generation := e.Swap(idx)
	e.jobManager.UpdateJobProgress(jobID, idx.NumDocuments(), idx.NumDocuments(),
		"serving generation "+strconv.FormatUint(generation, 10))
	return nil
}

// GetJob retrieves a job by ID.
func (e *Engine) GetJob(jobID string) (*model.Job, error) {
	return e.jobManager.GetJob(jobID)
}

// ListJobs lists tracked jobs, optionally filtered by status.
func (e *Engine) ListJobs(status *model.JobStatus) []*model.Job {
	return e.jobManager.ListJobs(status)
}
