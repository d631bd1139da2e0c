package index

import "math"

// IDF returns the BM25 inverse document frequency of a term contained in nq
// of n documents. The +1 inside the logarithm keeps it non-negative for nq <= n.
func IDF(n, nq int) float64 {
	N := float64(n)
	q := float64(nq)
	return math.Log((N-q+0.5)/(q+0.5) + 1.0)
}

// ComputeIDF sets the IDF of every term from its postings cardinality.
// It must run after the last document has been added.
func ComputeIDF(idx *Index) {
	n := len(idx.Documents)
	for _, td := range idx.Terms {
		td.IDF = IDF(n, len(td.Postings))
	}
}
