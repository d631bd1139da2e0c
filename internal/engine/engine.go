// Package engine owns the serving state: the index currently answering
// queries, how it is loaded, and how a rebuilt one replaces it.
package engine

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gcbaptista/go-archive-search/index"
	internalErrors "github.com/gcbaptista/go-archive-search/internal/errors"
	"github.com/gcbaptista/go-archive-search/internal/jobs"
	"github.com/gcbaptista/go-archive-search/internal/logging"
	"github.com/gcbaptista/go-archive-search/internal/metrics"
	"github.com/gcbaptista/go-archive-search/internal/persistence"
	"github.com/gcbaptista/go-archive-search/model"
	"github.com/gcbaptista/go-archive-search/services"
)

// Options configures an Engine.
type Options struct {
	Compression  persistence.Compression // Used when a rebuild persists its output
	MaxJobs      int                     // Concurrent background jobs
	JobRetention time.Duration           // How long finished jobs stay visible
	Metrics      *metrics.Metrics        // Optional
}

// Engine holds the serving index behind a read-write lock.
// It implements the services.IndexManager interface.
//
// Queries take a Snapshot under the read lock and score without holding it;
// the Index a Snapshot points to is never mutated. A rebuild constructs the
// new Index entirely outside the lock and publishes it with Swap, so readers
// observe either the old index or the new one, never a mixture.
type Engine struct {
	mu       sync.RWMutex
	snapshot services.Snapshot

	compression persistence.Compression
	jobManager  *jobs.Manager
	metrics     *metrics.Metrics
	logger      *logrus.Entry
}

// NewEngine creates an engine with no index loaded.
func NewEngine(opts Options) *Engine {
	if opts.Compression == "" {
		opts.Compression = persistence.CompressionZstd
	}
	if opts.MaxJobs <= 0 {
		opts.MaxJobs = 1
	}
	jobManager := jobs.NewManager(opts.MaxJobs, opts.JobRetention)
	jobManager.Start()

	return &Engine{
		compression: opts.Compression,
		jobManager:  jobManager,
		metrics:     opts.Metrics,
		logger:      logging.WithComponent("engine"),
	}
}

// Read returns the current snapshot, or ErrIndexNotLoaded.
func (e *Engine) Read() (services.Snapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.snapshot.Index == nil {
		return services.Snapshot{}, internalErrors.ErrIndexNotLoaded
	}
	return e.snapshot, nil
}

// Swap makes idx the serving index and returns its generation.
// idx must not be modified afterwards.
func (e *Engine) Swap(idx *index.Index) uint64 {
	e.mu.Lock()
	generation := e.snapshot.Generation + 1
	e.snapshot = services.Snapshot{
		Index:      idx,
		Generation: generation,
		LoadedAt:   time.Now(),
	}
	e.mu.Unlock()

	e.metrics.SetIndex(idx.NumDocuments(), idx.NumTerms(), generation)
	e.logger.WithFields(logrus.Fields{
		"generation": generation,
		"documents":  idx.NumDocuments(),
		"terms":      idx.NumTerms(),
	}).Info("serving index swapped")
	return generation
}

// Stats describes the serving index.
func (e *Engine) Stats() (model.IndexStats, error) {
	snapshot, err := e.Read()
	if err != nil {
		return model.IndexStats{}, err
	}
	idx := snapshot.Index
	return model.IndexStats{
		Documents:    idx.NumDocuments(),
		Terms:        idx.NumTerms(),
		Pairs:        idx.PairCount(),
		AvgDocLength: idx.AvgDocLength,
		Generation:   snapshot.Generation,
		LoadedAt:     snapshot.LoadedAt.UTC().Format(time.RFC3339),
	}, nil
}

// JobMetrics reports background job counters.
func (e *Engine) JobMetrics() jobs.JobMetricsData {
	return e.jobManager.GetMetrics()
}

// Close stops background jobs, cancelling any rebuild in progress.
func (e *Engine) Close() {
	e.jobManager.Stop()
}
