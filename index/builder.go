package index

import (
	"bufio"
	"bytes"
	"context"
	"io"

	internalErrors "github.com/gcbaptista/go-archive-search/internal/errors"
	"github.com/gcbaptista/go-archive-search/internal/tokenizer"
	"github.com/gcbaptista/go-archive-search/model"
)

// Builder ingests records one at a time and produces an Index.
// A Builder is not safe for concurrent use and must not be reused after Finish.
type Builder struct {
	idx         *Index
	totalLength uint64
}

// NewBuilder creates a builder over an empty index.
func NewBuilder() *Builder {
	return &Builder{idx: New()}
}

// Add ingests one archive and returns the internal ID assigned to it.
func (b *Builder) Add(rec model.Record) uint32 {
	docID := uint32(len(b.idx.Documents))
	b.idx.Documents = append(b.idx.Documents, rec.Name)

	terms := tokenizer.TokenizeItems(rec.Files)
	for _, term := range terms {
		td, exists := b.idx.Terms[term]
		if !exists {
			td = &TermData{Postings: make(Postings)}
			b.idx.Terms[term] = td
		}
		td.Postings[docID]++
	}
	docLen := uint32(len(terms))

	b.idx.DocLength[docID] = docLen
	b.totalLength += uint64(docLen)
	return docID
}

// Count returns the number of records ingested so far.
func (b *Builder) Count() int {
	return len(b.idx.Documents)
}

// Finish computes the average document length and the IDF of every term and
// returns the completed index. An empty builder is a DivisionByZeroError.
func (b *Builder) Finish() (*Index, error) {
	n := len(b.idx.Documents)
	if n == 0 {
		return nil, internalErrors.NewDivisionByZeroError("average document length")
	}
	b.idx.AvgDocLength = float64(b.totalLength) / float64(n)
	ComputeIDF(b.idx)

	idx := b.idx
	b.idx = nil
	return idx, nil
}

// ProgressFunc is called after each ingested record with the running count.
type ProgressFunc func(records int)

// Build reads line-delimited JSON records from r and builds an index.
// Any malformed line aborts the build with an InputParseError naming the
// 1-based line number. ctx is checked between records.
func Build(ctx context.Context, r io.Reader, progress ProgressFunc) (*Index, error) {
	builder := NewBuilder()
	reader := bufio.NewReaderSize(r, 1<<20)

	line := 0
	for {
		raw, readErr := reader.ReadBytes('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, internalErrors.NewIOError("read", "build records", readErr)
		}
		if len(raw) == 0 && readErr == io.EOF {
			break
		}
		line++

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw = bytes.TrimSuffix(raw, []byte("\n"))
		raw = bytes.TrimSuffix(raw, []byte("\r"))
		rec, err := model.ParseRecord(raw)
		if err != nil {
			return nil, internalErrors.NewInputParseError(line, err)
		}
		builder.Add(rec)
		if progress != nil {
			progress(builder.Count())
		}

		if readErr == io.EOF {
			break
		}
	}

	return builder.Finish()
}
