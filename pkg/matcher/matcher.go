// Package matcher composes the pure predicates in internal/matching with
// the expectation data model to decide whether a single expectation
// matches a single request record.
package matcher

import (
	"strings"

	"github.com/getmockd/mockd/internal/matching"
	"github.com/getmockd/mockd/pkg/expectation"
	"github.com/getmockd/mockd/pkg/request"
)

// Matches reports whether m matches rec, honouring match_type and every
// per-field "not" inversion named in spec §4.1.
func Matches(m *expectation.RequestMatcher, rec *request.Record) bool {
	strict := m.MatchType == expectation.Strict

	if m.Method != nil {
		ok := strings.EqualFold(m.Method.Value, rec.Method)
		if ok == m.Method.Not {
			return false
		}
	}

	if m.Path != nil {
		ok := matching.Path(m.Path.Value, rec.Path)
		if ok == m.Path.Not {
			return false
		}
	}

	if m.QueryParams != nil {
		ok := matching.MultiValue(m.QueryParams.Values, rec.QueryMap(), strict, nil)
		if ok == m.QueryParams.Not {
			return false
		}
	} else if strict && len(rec.Query) > 0 {
		return false
	}

	if m.Headers != nil {
		whitelist := effectiveWhitelist(m.Headers.Values)
		ok := matching.MultiValue(m.Headers.Values, rec.HeadersMap(), strict, whitelist)
		if ok == m.Headers.Not {
			return false
		}
	} else if strict && hasNonWhitelistedHeaders(rec.HeadersMap()) {
		return false
	}

	if m.Body != nil {
		ok := matchBody(m.Body, rec.RawBody)
		if ok == m.Body.Not {
			return false
		}
	}

	return true
}

func matchBody(b *expectation.BodyMatcher, body []byte) bool {
	switch b.Kind {
	case expectation.BodyString:
		return matching.BodyString(b.StringValue, body)
	case expectation.BodyJSON:
		return matching.BodyJSON(b.JSONValue, body, b.JSONMode == expectation.JSONContains)
	case expectation.BodyJSONPath:
		return matching.JSONPath(b.JSONPathExpr, body)
	case expectation.BodyXPath:
		return matching.XPath(b.XPathExpr, body)
	case expectation.BodyRegex:
		return matching.BodyRegex(b.RegexPattern, body)
	default:
		return false
	}
}

// effectiveWhitelist returns the standard-header whitelist with any header
// the expectation explicitly asserts on removed, per spec §9's resolution
// of the STRICT/whitelist open question.
func effectiveWhitelist(expected map[string][]string) map[string]bool {
	whitelist := make(map[string]bool, len(matching.StandardHeaders))
	for k, v := range matching.StandardHeaders {
		whitelist[k] = v
	}
	for name := range expected {
		delete(whitelist, strings.ToLower(name))
	}
	return whitelist
}

func hasNonWhitelistedHeaders(actual map[string][]string) bool {
	for name := range actual {
		if !matching.StandardHeaders[strings.ToLower(name)] {
			return true
		}
	}
	return false
}
