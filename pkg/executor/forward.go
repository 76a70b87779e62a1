package executor

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/getmockd/mockd/pkg/expectation"
	"github.com/getmockd/mockd/pkg/request"
)

// hopByHopHeaders are stripped before forwarding, mirroring the reverse
// proxy's header scrub.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"TE",
	"Trailers",
	"Transfer-Encoding",
	"Upgrade",
	"Content-Length",
	"Host",
	"X-Forwarded-For",
	"X-Forwarded-Host",
	"X-Forwarded-Proto",
	"X-Real-Ip",
}

// Client is the HTTP client used for forwarding. Exposed so callers can
// override transport settings (timeouts, proxies) in tests.
var Client = &http.Client{
	Transport: &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // expectd forwards to arbitrary, often self-signed, test upstreams
	},
	Timeout: 30 * time.Second,
}

// Forward realises a Forward action: it builds the upstream URL, issues the
// request with the original method, query and body, and streams the
// upstream response back to w. Any upstream I/O error is reported to the
// client as a 502 JSON diagnostic rather than propagated.
func Forward(w http.ResponseWriter, rec *request.Record, fwd *expectation.Forward, log *slog.Logger) {
	if fwd.Delay != nil {
		time.Sleep(fwd.Delay.Duration())
	}

	targetURL := buildTargetURL(fwd, rec)

	outReq, err := http.NewRequest(rec.Method, targetURL, bytes.NewReader(rec.RawBody))
	if err != nil {
		writeBadGateway(w, err)
		return
	}

	copyHeaders(outReq.Header, rec.Headers)
	for _, h := range hopByHopHeaders {
		outReq.Header.Del(h)
	}
	outReq.Host = fwd.Host
	outReq.Header.Set("Host", hostHeader(fwd))

	resp, err := Client.Do(outReq)
	if err != nil {
		if log != nil {
			log.Warn("forward failed", "target", targetURL, "error", err)
		}
		writeBadGateway(w, err)
		return
	}
	defer resp.Body.Close()

	dst := w.Header()
	for key, values := range resp.Header {
		if strings.EqualFold(key, "Connection") || strings.EqualFold(key, "Transfer-Encoding") {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

func buildTargetURL(fwd *expectation.Forward, rec *request.Record) string {
	scheme := strings.ToLower(string(fwd.Scheme))
	if scheme == "" {
		scheme = "http"
	}

	host := fwd.Host
	if fwd.Port != 0 && !isDefaultPort(scheme, fwd.Port) {
		host = fmt.Sprintf("%s:%d", fwd.Host, fwd.Port)
	}

	rawQuery := rec.RawQuery
	if rawQuery == "" {
		rawQuery = rec.Query.Encode()
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     rec.Path,
		RawQuery: rawQuery,
	}
	return u.String()
}

func isDefaultPort(scheme string, port int) bool {
	return (scheme == "http" && port == 80) || (scheme == "https" && port == 443)
}

func hostHeader(fwd *expectation.Forward) string {
	if fwd.Port == 0 || isDefaultPort(strings.ToLower(string(fwd.Scheme)), fwd.Port) {
		return fwd.Host
	}
	return fmt.Sprintf("%s:%d", fwd.Host, fwd.Port)
}

func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

func writeBadGateway(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	body, marshalErr := json.Marshal(map[string]string{
		"error":   "forward_failed",
		"message": err.Error(),
	})
	if marshalErr != nil {
		_, _ = w.Write([]byte(`{"error":"forward_failed"}`))
		return
	}
	_, _ = w.Write(body)
}
