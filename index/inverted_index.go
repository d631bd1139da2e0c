// Package index holds the in-memory BM25 index over archive listings and the
// builder that produces it.
package index

// Index maps path-component terms to the archives containing them.
//
// An Index is immutable once Builder.Finish returns it (or once it has been
// decoded from disk) and may then be shared by any number of readers without
// locking. Internal document IDs are dense, assigned in build order, and are
// not stable across rebuilds; only the external identifiers in Documents are.
type Index struct {
	Documents    []string             // External identifier by internal ID
	Terms        map[string]*TermData // Term -> postings and IDF
	DocLength    map[uint32]uint32    // Internal ID -> number of terms
	AvgDocLength float64
}

// New returns an empty index ready to be filled by a Builder.
func New() *Index {
	return &Index{
		Documents: make([]string, 0),
		Terms:     make(map[string]*TermData),
		DocLength: make(map[uint32]uint32),
	}
}

// NumDocuments returns the number of indexed archives.
func (idx *Index) NumDocuments() int {
	return len(idx.Documents)
}

// NumTerms returns the number of distinct terms.
func (idx *Index) NumTerms() int {
	return len(idx.Terms)
}

// PairCount returns the number of (term, document) postings entries.
func (idx *Index) PairCount() int {
	n := 0
	for _, td := range idx.Terms {
		n += len(td.Postings)
	}
	return n
}

// Lookup returns the data for term, if indexed.
func (idx *Index) Lookup(term string) (*TermData, bool) {
	td, ok := idx.Terms[term]
	return td, ok
}

// DocumentName returns the external identifier for an internal ID.
func (idx *Index) DocumentName(docID uint32) string {
	return idx.Documents[docID]
}
