package index

// Postings maps an internal document ID to the number of times a term occurs
// in that document. Frequencies are always positive.
type Postings map[uint32]uint32

// TermData holds everything the index knows about a single term.
type TermData struct {
	Postings Postings
	IDF      float64 // Set by ComputeIDF once all documents are ingested
}

// DocumentFrequency is the number of distinct documents containing the term.
func (td *TermData) DocumentFrequency() int {
	return len(td.Postings)
}
