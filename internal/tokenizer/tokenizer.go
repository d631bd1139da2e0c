// Package tokenizer turns archive file listings into index and query terms.
package tokenizer

import (
	"strings"
)

// PathDelimiter separates path components inside an archive listing.
const PathDelimiter = "/"

// Tokenize splits a single raw item on the path delimiter.
// Empty components produced by leading, trailing or repeated delimiters are
// kept, so "a/" yields ["a", ""] and "" yields [""].
func Tokenize(item string) []string {
	return strings.Split(item, PathDelimiter)
}

// TokenizeItems concatenates the terms of every raw item in input order.
// The length of the result is the document length.
func TokenizeItems(items []string) []string {
	terms := make([]string, 0, len(items)*2)
	for _, item := range items {
		terms = append(terms, Tokenize(item)...)
	}
	return terms
}

// QueryTermsFromEntries derives query terms from the entry names of an
// uploaded archive. Every entry name is followed by the delimiter and the
// concatenation is split by Tokenize, so the listing is tokenized exactly as
// indexed documents are, including a trailing empty term.
func QueryTermsFromEntries(names []string) []string {
	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteString(PathDelimiter)
	}
	return Tokenize(sb.String())
}
