// Package request holds the internal request record the framing layer
// builds from each incoming HTTP request before it reaches the index,
// matcher and executor.
package request

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
)

// Record is the engine's view of an incoming request: method, path
// (without query), parsed query multimap, case-insensitive header
// multimap, and the raw body bytes. No parsed form of the body is kept;
// body matchers parse RawBody themselves.
type Record struct {
	Method string
	Path   string
	Query  url.Values
	// RawQuery is the exact query string the client sent, byte for byte,
	// used to forward requests without reordering or re-escaping params.
	RawQuery string
	Headers  http.Header
	// RawBody is the exact bytes the client sent, required for faithful
	// forwarding.
	RawBody []byte
}

// FromHTTP builds a Record from an *http.Request, consuming and replacing
// its body so downstream handlers can still read it.
func FromHTTP(r *http.Request) (*Record, error) {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))
	}

	return &Record{
		Method:   r.Method,
		Path:     r.URL.Path,
		Query:    r.URL.Query(),
		RawQuery: r.URL.RawQuery,
		Headers:  r.Header,
		RawBody:  body,
	}, nil
}

// Header returns the (case-insensitive) values for name.
func (rec *Record) Header(name string) []string {
	return rec.Headers.Values(name)
}

// HeadersMap returns headers as a plain map[string][]string for the
// multi-value matcher.
func (rec *Record) HeadersMap() map[string][]string {
	return map[string][]string(rec.Headers)
}

// QueryMap returns query parameters as a plain map[string][]string for the
// multi-value matcher.
func (rec *Record) QueryMap() map[string][]string {
	return map[string][]string(rec.Query)
}
