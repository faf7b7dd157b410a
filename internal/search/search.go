// Package search finds timeline spans by name.
package search

import (
	"strings"

	"github.com/mmcdole/splice/internal/domain"
	"github.com/sahilm/fuzzy"
)

// Result is a matching span with highlight positions
type Result struct {
	Span           domain.Span
	MatchedIndexes []int // Positions in Span.Name that matched
	Score          int   // Higher is better
}

// spanIndex implements fuzzy.Source over lowercase span names
type spanIndex struct {
	spans []domain.Span
	lower []string
}

func (idx spanIndex) String(i int) string { return idx.lower[i] }
func (idx spanIndex) Len() int            { return len(idx.spans) }

// FindSpans returns spans whose names fuzzy-match query, best first.
// An empty query matches nothing.
func FindSpans(query string, spans []domain.Span) []Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	idx := spanIndex{spans: spans, lower: make([]string, len(spans))}
	for i, s := range spans {
		idx.lower[i] = strings.ToLower(s.Name)
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), idx)
	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{
			Span:           spans[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}
