// Package testing provides fixtures and helpers shared by the archive search tests.
package testing

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-archive-search/index"
	"github.com/gcbaptista/go-archive-search/model"
)

// TwoDocRecords is the two-archive fixture used across packages: doc_a holds
// "a/b" and "c", doc_b holds "a/b".
const TwoDocRecords = `{"name":"doc_a","files":["a/b","c"]}
{"name":"doc_b","files":["a/b"]}
`

// BuildIndex builds an in-memory index from records.
func BuildIndex(t *testing.T, records ...model.Record) *index.Index {
	t.Helper()
	b := index.NewBuilder()
	for _, rec := range records {
		b.Add(rec)
	}
	idx, err := b.Finish()
	require.NoError(t, err)
	return idx
}

// TwoDocIndex builds the index described by TwoDocRecords.
func TwoDocIndex(t *testing.T) *index.Index {
	t.Helper()
	return BuildIndex(t,
		model.Record{Name: "doc_a", Files: []string{"a/b", "c"}},
		model.Record{Name: "doc_b", Files: []string{"a/b"}},
	)
}

// WriteFile writes content to dir/name and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// WriteRecords encodes records as JSON lines into dir/name.
func WriteRecords(t *testing.T, dir, name string, records ...model.Record) string {
	t.Helper()
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	for _, rec := range records {
		require.NoError(t, enc.Encode(rec))
	}
	return WriteFile(t, dir, name, sb.String())
}

// JobGetter is satisfied by anything that reports job state.
type JobGetter interface {
	GetJob(jobID string) (*model.Job, error)
}

// JobPollingOptions configures job polling behavior
type JobPollingOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

// DefaultJobPollingOptions returns sensible defaults for job polling
func DefaultJobPollingOptions() JobPollingOptions {
	return JobPollingOptions{
		Timeout:      5 * time.Second,
		PollInterval: 10 * time.Millisecond,
	}
}

// WaitForJob polls until the job reaches a terminal status and returns it.
func WaitForJob(t *testing.T, jobs JobGetter, jobID string, opts JobPollingOptions) *model.Job {
	t.Helper()
	var job *model.Job
	require.Eventually(t, func() bool {
		j, err := jobs.GetJob(jobID)
		if err != nil {
			return false
		}
		job = j
		return j.Status.IsTerminal()
	}, opts.Timeout, opts.PollInterval, "job %s did not finish", jobID)
	return job
}
