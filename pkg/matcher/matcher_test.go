package matcher

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/getmockd/mockd/pkg/expectation"
	"github.com/getmockd/mockd/pkg/request"
)

func rec(method, path, body string) *request.Record {
	return &request.Record{
		Method:  method,
		Path:    path,
		Query:   url.Values{},
		Headers: http.Header{},
		RawBody: []byte(body),
	}
}

func TestMatchesExactJSON(t *testing.T) {
	m := &expectation.RequestMatcher{
		Method: &expectation.StringMatch{Value: "POST"},
		Path:   &expectation.StringMatch{Value: "/api/users"},
		Body: &expectation.BodyMatcher{
			Kind:     expectation.BodyJSON,
			JSONValue: map[string]any{"name": "Alice", "age": float64(30)},
			JSONMode: expectation.JSONExact,
		},
	}
	r := rec("POST", "/api/users", `{"name":"Alice","age":30}`)
	if !Matches(m, r) {
		t.Fatal("expected exact JSON body match")
	}

	r2 := rec("POST", "/api/users", `{"name":"Bob","age":30}`)
	if Matches(m, r2) {
		t.Fatal("expected no match on differing JSON field")
	}
}

func TestMatchesWildcardPath(t *testing.T) {
	m := &expectation.RequestMatcher{
		Path: &expectation.StringMatch{Value: "/api/users/*"},
	}
	if !Matches(m, rec("GET", "/api/users/42", "")) {
		t.Error("expected wildcard path to match")
	}
	if Matches(m, rec("GET", "/other/42", "")) {
		t.Error("expected wildcard path to not match unrelated path")
	}
}

func TestMatchesJSONUnitPlaceholder(t *testing.T) {
	m := &expectation.RequestMatcher{
		Body: &expectation.BodyMatcher{
			Kind: expectation.BodyJSON,
			JSONValue: map[string]any{
				"id":   "${json-unit.any-number}",
				"name": "${json-unit.any-string}",
			},
			JSONMode: expectation.JSONExact,
		},
	}
	if !Matches(m, rec("POST", "/x", `{"id":7,"name":"bob"}`)) {
		t.Error("expected any-number/any-string placeholders to match numeric id and string name")
	}
	if Matches(m, rec("POST", "/x", `{"id":"7","name":"bob"}`)) {
		t.Error("expected any-number placeholder to reject a string-typed id")
	}
}

func TestMatchesNotInversion(t *testing.T) {
	m := &expectation.RequestMatcher{
		Method: &expectation.StringMatch{Value: "GET", Not: true},
	}
	if Matches(m, rec("GET", "/x", "")) {
		t.Error("inverted method matcher should reject an actual GET")
	}
	if !Matches(m, rec("POST", "/x", "")) {
		t.Error("inverted method matcher should accept a non-GET method")
	}
}

func TestMatchesHeadersCaseInsensitive(t *testing.T) {
	m := &expectation.RequestMatcher{
		Headers: &expectation.MultiValueMatch{
			Values: map[string][]string{"X-Api-Key": {"secret"}},
		},
	}
	r := rec("GET", "/x", "")
	r.Headers.Set("x-api-key", "secret")
	if !Matches(m, r) {
		t.Error("expected case-insensitive header name match")
	}
}

func TestMatchesStrictRejectsUnexpectedHeaders(t *testing.T) {
	m := &expectation.RequestMatcher{
		MatchType: expectation.Strict,
	}
	r := rec("GET", "/x", "")
	r.Headers.Set("X-Custom", "value")
	if Matches(m, r) {
		t.Error("STRICT match_type should reject a request with an unexpected non-whitelisted header")
	}

	r2 := rec("GET", "/x", "")
	r2.Headers.Set("Accept", "application/json")
	if !Matches(m, r2) {
		t.Error("STRICT match_type should tolerate whitelisted standard headers")
	}
}
