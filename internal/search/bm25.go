package search

import (
	"cmp"
	"slices"

	"github.com/gcbaptista/go-archive-search/index"
)

// BM25 parameters
const (
	K1 = 1.6  // Controls term frequency saturation
	B  = 0.75 // Controls how much effect document length has
)

// ScoredDoc is one candidate archive and its accumulated BM25 score.
type ScoredDoc struct {
	DocID uint32
	Name  string
	Score float64
}

// TermScore returns the BM25 contribution of a single query-term occurrence
// to a document: idf * (f*(k1+1)) / (f + k1*(1 - b + b*|d|/avgdl)).
func TermScore(idf float64, termFreq, docLength uint32, avgDocLength float64) float64 {
	tf := float64(termFreq)
	return idf * (tf * (K1 + 1)) / (tf + K1*(1-B+B*float64(docLength)/avgDocLength))
}

// Score ranks every document that contains at least one query term.
//
// Query terms are a multiset: a term given twice contributes twice. Terms
// absent from the index contribute nothing. Documents touched by no query
// term are not returned. Results are ordered by score descending under a
// total order on float64 (NaN sorts last), ties broken by internal document
// ID, so the same index and query always produce the same slice.
//
// Score only reads idx.
func Score(idx *index.Index, terms []string) []ScoredDoc {
	if idx == nil || len(terms) == 0 {
		return []ScoredDoc{}
	}

	scores := make(map[uint32]float64)
	for _, term := range terms {
		td, ok := idx.Lookup(term)
		if !ok {
			continue
		}
		for docID, freq := range td.Postings {
			scores[docID] += TermScore(td.IDF, freq, idx.DocLength[docID], idx.AvgDocLength)
		}
	}

	ranked := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		ranked = append(ranked, ScoredDoc{DocID: docID, Name: idx.DocumentName(docID), Score: score})
	}
	slices.SortFunc(ranked, compareScoredDocs)
	return ranked
}

// compareScoredDocs orders by score descending, then by DocID ascending.
// cmp.Compare is a total order on floats: NaN is below every number.
func compareScoredDocs(a, b ScoredDoc) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	return cmp.Compare(a.DocID, b.DocID)
}
