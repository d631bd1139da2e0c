package services

import (
	"context"
	"time"

	"github.com/gcbaptista/go-archive-search/index"
	"github.com/gcbaptista/go-archive-search/internal/jobs"
	"github.com/gcbaptista/go-archive-search/model"
)

// Snapshot is the index being served at one instant.
// The Index it points to is immutable and may be used without locking.
type Snapshot struct {
	Index      *index.Index
	Generation uint64    // Incremented on every swap
	LoadedAt   time.Time // When this index became the serving one
}

// IndexProvider hands out the current serving index.
type IndexProvider interface {
	Read() (Snapshot, error)
}

// QuerySource records how the query terms were obtained.
type QuerySource string

const (
	QuerySourceTerms   QuerySource = "terms"
	QuerySourceArchive QuerySource = "archive"
)

// SearchQuery is a ranked-retrieval request.
type SearchQuery struct {
	Terms     []string    // Query term multiset; repeats count
	MaxLength *int        // Optional: maximum number of matches returned (default unbounded)
	MinScore  *float64    // Optional: only scores strictly greater are returned (default 0)
	Source    QuerySource // Used for metrics and logging only
}

// Searcher runs queries against the serving index.
type Searcher interface {
	Search(ctx context.Context, query SearchQuery) (model.SearchResult, error)
	SearchByEntries(ctx context.Context, entryNames []string, maxLength *int, minScore *float64) (model.SearchResult, error)
}

// RebuildRequest describes a cold rebuild from a records file.
type RebuildRequest struct {
	RecordsPath string // Line-delimited JSON build records
	OutputPath  string // Optional: where to persist the new index before swapping
}

// IndexManager exposes the serving state and its lifecycle to the API layer.
type IndexManager interface {
	IndexProvider
	Stats() (model.IndexStats, error)
	RebuildAsync(req RebuildRequest) (string, error)
	GetJob(jobID string) (*model.Job, error)
	ListJobs(status *model.JobStatus) []*model.Job
	JobMetrics() jobs.JobMetricsData
}
