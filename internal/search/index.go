// Package search provides a small, deterministic, concurrency-safe in-memory
// index over records (technicians, work-log lines, chat messages) used by
// list endpoints to filter a fetched collection by free text.
//
//   - No logging in the library (callers decide how/what to log)
//   - Accent- and case-insensitive tokenization ("Régie" matches "regie")
//   - Immutable, read-only index after construction (safe for concurrent use)
//   - Deterministic scoring and sorting (stable order for ties)
//
// Match keeps records where every query token prefixes some record token.
// TopK ranks records by Jaccard similarity between the query token set and
// each record's token set: score = |Q ∩ D| / |Q ∪ D|.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Doc is one searchable record: an identifier and its text fields.
type Doc struct {
	ID     string
	Fields []string
}

// Result is a ranked record with its similarity score.
type Result struct {
	ID    string
	Score float64
}

// Index is the minimal interface implemented by all search indices.
type Index interface {
	// Match returns the ids of records containing every query token as a
	// token prefix, in insertion order. An empty query matches everything.
	Match(query string) []string
	// TopK returns up to k records ranked by similarity.
	TopK(query string, k int) []Result
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	stopwords map[string]struct{}
}

func defaultConfig() config {
	return config{stopwords: nil}
}

// WithStopwords drops the given words from both records and queries.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = fold(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	id     string
	tokens map[string]struct{}
	tLen   int
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndex builds an Index over docs. Records without any token are kept
// so an empty query still returns them from Match.
func NewIndex(docs []Doc, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	out := make([]doc, 0, len(docs))
	for _, d := range docs {
		toks := tokenize(strings.Join(d.Fields, " "), cfg.stopwords)
		out = append(out, doc{id: d.ID, tokens: toks, tLen: len(toks)})
	}
	return &index{cfg: cfg, docs: out}
}

// Filter returns the items whose fields match query, preserving order.
func Filter[T any](items []T, query string, fields func(T) []string) []T {
	if strings.TrimSpace(query) == "" {
		return items
	}
	qTokens := tokenize(query, nil)
	if len(qTokens) == 0 {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if containsAll(tokenize(strings.Join(fields(it), " "), nil), qTokens) {
			out = append(out, it)
		}
	}
	return out
}

func (i *index) Match(q string) []string {
	qTokens := tokenize(q, i.cfg.stopwords)
	out := make([]string, 0, len(i.docs))
	for _, d := range i.docs {
		if len(qTokens) == 0 || containsAll(d.tokens, qTokens) {
			out = append(out, d.id)
		}
	}
	return out
}

// TopK returns up to k best-matching records by Jaccard similarity.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 {
		return nil
	}
	if strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	buf := make([]Result, 0, min(k*4, len(i.docs)))
	for _, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + d.tLen - over)
		if union <= 0 {
			continue
		}
		buf = append(buf, Result{ID: d.id, Score: float64(over) / union})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].Score != buf[b].Score {
			return buf[a].Score > buf[b].Score
		}
		return buf[a].ID < buf[b].ID
	})

	if k > len(buf) {
		k = len(buf)
	}
	return buf[:k]
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

// fold lower-cases s and strips combining marks (é → e).
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(fold(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

// containsAll reports whether every query token prefixes a record token.
func containsAll(docTokens, qTokens map[string]struct{}) bool {
	for q := range qTokens {
		if _, ok := docTokens[q]; ok {
			continue
		}
		found := false
		for d := range docTokens {
			if strings.HasPrefix(d, q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
