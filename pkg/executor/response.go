// Package executor realises a matched expectation's action — a canned
// response or a forward — against the live http.ResponseWriter, once the
// store has already selected which expectation wins.
package executor

import (
	"net/http"
	"strings"
	"time"

	"github.com/getmockd/mockd/pkg/expectation"
)

// WriteResponse realises a CannedResponse: it sleeps for the configured
// delay, then writes the status code, headers and body.
func WriteResponse(w http.ResponseWriter, resp *expectation.CannedResponse) {
	if resp.Delay != nil {
		time.Sleep(resp.Delay.Duration())
	}

	userSetContentType := false
	for name, values := range resp.Headers {
		for i, v := range values {
			if i == 0 {
				w.Header().Set(name, v)
			} else {
				w.Header().Add(name, v)
			}
		}
		if strings.EqualFold(name, "Content-Type") {
			userSetContentType = true
		}
	}

	body := resp.Body.Raw

	if !userSetContentType {
		switch {
		case resp.Body.IsJSON:
			w.Header().Set("Content-Type", "application/json")
		case looksLikeXML(body):
			w.Header().Set("Content-Type", "application/xml")
		case len(body) > 0:
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		}
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}

func looksLikeXML(body []byte) bool {
	s := strings.TrimSpace(string(body))
	return strings.HasPrefix(s, "<?xml") || strings.HasPrefix(s, "<")
}
