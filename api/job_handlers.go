package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/go-archive-search/internal/errors"
	"github.com/gcbaptista/go-archive-search/model"
	"github.com/gcbaptista/go-archive-search/services"
)

// RebuildRequest is the body of POST /admin/rebuild. Omitted fields fall back
// to the configured defaults; supplied ones must lie inside Options.RebuildDir.
type RebuildRequest struct {
	RecordsPath string `json:"records_path"`
	OutputPath  string `json:"output_path"`
}

// RebuildHandler starts a background rebuild-and-swap job.
func (api *API) RebuildHandler(c *gin.Context) {
	var req RebuildRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			SendInvalidJSONError(c, err)
			return
		}
	}
	if result := ConfineRebuildPaths(&req, api.opts.RebuildDir); result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}
	if req.RecordsPath == "" {
		req.RecordsPath = api.opts.DefaultRebuild.RecordsPath
	}
	if req.OutputPath == "" {
		req.OutputPath = api.opts.DefaultRebuild.OutputPath
	}
	if result := ValidateRebuildRequest(&req); result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}

	jobID, err := api.engine.RebuildAsync(services.RebuildRequest{
		RecordsPath: req.RecordsPath,
		OutputPath:  req.OutputPath,
	})
	if err != nil {
		if errors.Is(err, internalErrors.ErrInvalidInput) {
			api.sendEngineError(c, "rebuild", err)
			return
		}
		SendJobExecutionError(c, "rebuild", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Index rebuild started from '" + req.RecordsPath + "'",
		"job_id":  jobID,
	})
}

// GetJobHandler handles requests to get job status by ID
func (api *API) GetJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	job, err := api.engine.GetJob(jobID)
	if err != nil {
		if errors.Is(err, internalErrors.ErrJobNotFound) {
			SendJobNotFoundError(c, jobID)
			return
		}
		SendInternalError(c, "get job", err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListJobsHandler lists tracked jobs, optionally filtered by ?status=.
func (api *API) ListJobsHandler(c *gin.Context) {
	var statusFilter *model.JobStatus
	if statusParam := c.Query("status"); statusParam != "" {
		status := model.JobStatus(statusParam)
		statusFilter = &status
	}

	jobs := api.engine.ListJobs(statusFilter)
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// GetJobMetricsHandler handles requests to get job performance metrics
func (api *API) GetJobMetricsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"metrics": api.engine.JobMetrics()})
}
