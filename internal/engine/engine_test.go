package engine

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalErrors "github.com/gcbaptista/go-archive-search/internal/errors"
	"github.com/gcbaptista/go-archive-search/internal/metrics"
	"github.com/gcbaptista/go-archive-search/internal/persistence"
	testutil "github.com/gcbaptista/go-archive-search/internal/testing"
	"github.com/gcbaptista/go-archive-search/model"
	"github.com/gcbaptista/go-archive-search/services"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(Options{Compression: persistence.CompressionZstd, MaxJobs: 1, JobRetention: time.Hour, Metrics: metrics.New()})
	t.Cleanup(e.Close)
	return e
}

var (
	buildTestIndex = testutil.BuildIndex
	writeFile      = testutil.WriteFile
)

func waitForJob(t *testing.T, e *Engine, jobID string) *model.Job {
	t.Helper()
	return testutil.WaitForJob(t, e, jobID, testutil.DefaultJobPollingOptions())
}

func TestEngine_ReadBeforeLoad(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Read()
	assert.ErrorIs(t, err, internalErrors.ErrIndexNotLoaded)

	_, err = e.Stats()
	assert.ErrorIs(t, err, internalErrors.ErrIndexNotLoaded)
}

func TestEngine_SwapIncrementsGeneration(t *testing.T) {
	e := newTestEngine(t)

	first := buildTestIndex(t, model.Record{Name: "x", Files: []string{"a"}})
	second := buildTestIndex(t, model.Record{Name: "y", Files: []string{"b"}})

	assert.Equal(t, uint64(1), e.Swap(first))
	snap, err := e.Read()
	require.NoError(t, err)
	assert.Same(t, first, snap.Index)

	assert.Equal(t, uint64(2), e.Swap(second))
	snap, err = e.Read()
	require.NoError(t, err)
	assert.Same(t, second, snap.Index)
	assert.Equal(t, uint64(2), snap.Generation)
}

func TestEngine_Stats(t *testing.T) {
	e := newTestEngine(t)
	e.Swap(buildTestIndex(t,
		model.Record{Name: "doc_a", Files: []string{"a/b", "c"}},
		model.Record{Name: "doc_b", Files: []string{"a/b"}},
	))

	stats, err := e.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 3, stats.Terms)
	assert.Equal(t, 5, stats.Pairs)
	assert.Equal(t, 2.5, stats.AvgDocLength)
	assert.Equal(t, uint64(1), stats.Generation)
	assert.NotEmpty(t, stats.LoadedAt)
}

func TestEngine_LoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.bin")
	idx := buildTestIndex(t, model.Record{Name: "doc", Files: []string{"lib/x.jar"}})
	require.NoError(t, persistence.SaveIndex(path, idx, persistence.CompressionZstd))

	e := newTestEngine(t)
	require.NoError(t, e.LoadFromFile(path))

	snap, err := e.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"doc"}, snap.Index.Documents)

	// SaveToFile round-trips the serving index
	copyPath := filepath.Join(dir, "copy.bin")
	require.NoError(t, e.SaveToFile(copyPath))
	reloaded, err := persistence.LoadIndex(copyPath)
	require.NoError(t, err)
	assert.Equal(t, snap.Index.Documents, reloaded.Documents)
}

func TestEngine_LoadFailureKeepsServingIndex(t *testing.T) {
	dir := t.TempDir()
	e := newTestEngine(t)
	serving := buildTestIndex(t, model.Record{Name: "x", Files: []string{"a"}})
	e.Swap(serving)

	err := e.LoadFromFile(filepath.Join(dir, "missing.bin"))
	assert.ErrorIs(t, err, internalErrors.ErrIO)

	corrupt := writeFile(t, dir, "corrupt.bin", "not an index")
	err = e.LoadFromFile(corrupt)
	assert.ErrorIs(t, err, internalErrors.ErrCodec)

	snap, err := e.Read()
	require.NoError(t, err)
	assert.Same(t, serving, snap.Index)
	assert.Equal(t, uint64(1), snap.Generation)
}

func TestEngine_RebuildAsync(t *testing.T) {
	dir := t.TempDir()
	recordsPath := writeFile(t, dir, "records.jsonl", testutil.TwoDocRecords)
	outputPath := filepath.Join(dir, "out", "index.bin")

	e := newTestEngine(t)
	jobID, err := e.RebuildAsync(services.RebuildRequest{RecordsPath: recordsPath, OutputPath: outputPath})
	require.NoError(t, err)

	job := waitForJob(t, e, jobID)
	require.Equal(t, model.JobStatusCompleted, job.Status, job.Error)
	assert.Equal(t, model.JobTypeRebuild, job.Type)
	assert.Equal(t, recordsPath, job.Metadata["records_path"])

	snap, err := e.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"doc_a", "doc_b"}, snap.Index.Documents)

	saved, err := persistence.LoadIndex(outputPath)
	require.NoError(t, err)
	assert.Equal(t, snap.Index.Documents, saved.Documents)

	assert.Len(t, e.ListJobs(nil), 1)
	assert.Equal(t, int64(1), e.JobMetrics().JobsCompleted)
}

func TestEngine_RebuildFailureKeepsServingIndex(t *testing.T) {
	dir := t.TempDir()
	e := newTestEngine(t)
	serving := buildTestIndex(t, model.Record{Name: "x", Files: []string{"a"}})
	e.Swap(serving)

	cases := map[string]string{
		"malformed": writeFile(t, dir, "bad.jsonl", "{\"name\":\"a\",\"files\":[]}\nnot json\n"),
		"empty":     writeFile(t, dir, "empty.jsonl", ""),
		"missing":   filepath.Join(dir, "missing.jsonl"),
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			jobID, err := e.RebuildAsync(services.RebuildRequest{RecordsPath: path})
			require.NoError(t, err)

			job := waitForJob(t, e, jobID)
			assert.Equal(t, model.JobStatusFailed, job.Status)
			assert.NotEmpty(t, job.Error)

			snap, err := e.Read()
			require.NoError(t, err)
			assert.Same(t, serving, snap.Index)
		})
	}
}

func TestEngine_RebuildRequiresRecordsPath(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.RebuildAsync(services.RebuildRequest{})
	assert.ErrorIs(t, err, internalErrors.ErrInvalidInput)
}

func TestEngine_ReadersSeeWholeIndexesDuringSwaps(t *testing.T) {
	e := newTestEngine(t)
	small := buildTestIndex(t, model.Record{Name: "s", Files: []string{"a"}})
	large := buildTestIndex(t,
		model.Record{Name: "l1", Files: []string{"a"}},
		model.Record{Name: "l2", Files: []string{"a", "b"}},
	)
	e.Swap(small)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap, err := e.Read()
				if !assert.NoError(t, err) {
					return
				}
				n := snap.Index.NumDocuments()
				assert.True(t, n == 1 || n == 2)
				assert.Len(t, snap.Index.DocLength, n)
			}
		}()
	}

	for i := 0; i < 100; i++ {
		if i%2 == 0 {
			e.Swap(large)
		} else {
			e.Swap(small)
		}
	}
	close(stop)
	wg.Wait()

	snap, err := e.Read()
	require.NoError(t, err)
	assert.Equal(t, uint64(101), snap.Generation)
}
