// Package index maintains the inverted indices described in spec §4.2
// that let the store narrow an O(N) scan down to a candidate set before
// the full matcher runs. The index is a must-not-drop-matches filter:
// false positives are fine, false negatives are not. Callers are
// responsible for serialising access (the store holds the coarse-grained
// lock that covers both the expectation map and this index).
package index

import (
	"strings"

	"github.com/getmockd/mockd/internal/matching"
	"github.com/getmockd/mockd/pkg/expectation"
)

// Index holds the three structures named in spec §4.2.
type Index struct {
	byMethod     map[string]map[string]struct{}
	byPathPrefix map[string]map[string]struct{}
	wildcards    map[string]struct{}
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		byMethod:     make(map[string]map[string]struct{}),
		byPathPrefix: make(map[string]map[string]struct{}),
		wildcards:    make(map[string]struct{}),
	}
}

// Add admits id into the buckets its matcher shape implies.
func (ix *Index) Add(id string, e *expectation.Expectation) {
	m := e.RequestMatcher

	if method, ok := literalMethod(&m); ok {
		bucket, exists := ix.byMethod[method]
		if !exists {
			bucket = make(map[string]struct{})
			ix.byMethod[method] = bucket
		}
		bucket[id] = struct{}{}
	}

	if prefix, ok := literalPathPrefix(&m); ok {
		bucket, exists := ix.byPathPrefix[prefix]
		if !exists {
			bucket = make(map[string]struct{})
			ix.byPathPrefix[prefix] = bucket
		}
		bucket[id] = struct{}{}
	}

	if isWildcardEligible(e) {
		ix.wildcards[id] = struct{}{}
	}
}

// Remove de-indexes id symmetrically with Add.
func (ix *Index) Remove(id string, e *expectation.Expectation) {
	m := e.RequestMatcher

	if method, ok := literalMethod(&m); ok {
		if bucket, exists := ix.byMethod[method]; exists {
			delete(bucket, id)
			if len(bucket) == 0 {
				delete(ix.byMethod, method)
			}
		}
	}

	if prefix, ok := literalPathPrefix(&m); ok {
		if bucket, exists := ix.byPathPrefix[prefix]; exists {
			delete(bucket, id)
			if len(bucket) == 0 {
				delete(ix.byPathPrefix, prefix)
			}
		}
	}

	delete(ix.wildcards, id)
}

// Clear empties every bucket.
func (ix *Index) Clear() {
	ix.byMethod = make(map[string]map[string]struct{})
	ix.byPathPrefix = make(map[string]map[string]struct{})
	ix.wildcards = make(map[string]struct{})
}

// Candidates returns the must-not-drop-matches candidate set for a request
// with the given method and path, per spec §4.2's two-step union.
func (ix *Index) Candidates(method, path string) map[string]struct{} {
	out := make(map[string]struct{})

	for id := range ix.byMethod[strings.ToUpper(method)] {
		out[id] = struct{}{}
	}
	for id := range ix.wildcards {
		out[id] = struct{}{}
	}
	for id := range ix.byPathPrefix[firstSegment(path)] {
		out[id] = struct{}{}
	}

	return out
}

// Buckets reports the bucket sizes, for diagnostics/tests.
func (ix *Index) Buckets() (methods, prefixes, wildcards int) {
	return len(ix.byMethod), len(ix.byPathPrefix), len(ix.wildcards)
}

func literalMethod(m *expectation.RequestMatcher) (string, bool) {
	if m.Method == nil || m.Method.Not {
		return "", false
	}
	return strings.ToUpper(m.Method.Value), true
}

func literalPathPrefix(m *expectation.RequestMatcher) (string, bool) {
	if m.Path == nil || m.Path.Not {
		return "", false
	}
	path := m.Path.Value
	if _, ok := matching.IsRegexLiteral(path); ok {
		return "", false
	}
	if matching.ContainsWildcard(path) {
		return "", false
	}
	if matching.ContainsRegexMeta(path) {
		return "", false
	}
	return firstSegment(path), true
}

// isWildcardEligible reports whether e must be considered for every path
// and every method: forwards (never narrowed by path), non-literal or
// inverted path matchers, and non-literal or inverted method matchers.
func isWildcardEligible(e *expectation.Expectation) bool {
	if e.Forward != nil {
		return true
	}
	if _, ok := literalPathPrefix(&e.RequestMatcher); !ok {
		return true
	}
	if _, ok := literalMethod(&e.RequestMatcher); !ok {
		return true
	}
	return false
}

// firstSegment returns the first path segment (e.g. "/api/users" -> "/api").
func firstSegment(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return "/"
	}
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		return "/" + trimmed[:idx]
	}
	return "/" + trimmed
}
