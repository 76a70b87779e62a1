package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/getmockd/mockd/pkg/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st := store.New(nil, nil)
	return New("127.0.0.1:0", 0, 0, st, nil), st
}

func doRequest(t *testing.T, s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, r)
	return rec
}

func TestPutExpectationThenMatchingRequest(t *testing.T) {
	s, _ := newTestServer(t)

	putBody := []byte(`{"httpRequest":{"method":"POST","path":"/api/users","body":{"json":{"value":{"name":"Alice","age":30}}}},"httpResponse":{"statusCode":201,"body":{"status":"created"}}}`)
	rec := doRequest(t, s, http.MethodPut, "/mockserver/expectation", putBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 from PUT expectation, got %d: %s", rec.Code, rec.Body.String())
	}

	var admitted []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &admitted); err != nil {
		t.Fatalf("failed to decode admitted expectations: %v", err)
	}
	if len(admitted) != 1 || admitted[0]["id"] == "" {
		t.Fatalf("expected one admitted expectation with an assigned id, got %v", admitted)
	}

	postBody := []byte(`{"name":"Alice","age":30}`)
	matchRec := doRequest(t, s, http.MethodPost, "/api/users", postBody)
	if matchRec.Code != 201 {
		t.Fatalf("expected 201 from matched expectation, got %d", matchRec.Code)
	}
	var respBody map[string]string
	if err := json.Unmarshal(matchRec.Body.Bytes(), &respBody); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if respBody["status"] != "created" {
		t.Errorf("unexpected response body: %v", respBody)
	}
}

func TestWildcardPathFallsThroughTo404(t *testing.T) {
	s, _ := newTestServer(t)
	putBody := []byte(`{"httpRequest":{"path":"/api/users/*"},"httpResponse":{"statusCode":200}}`)
	doRequest(t, s, http.MethodPut, "/mockserver/expectation", putBody)

	if rec := doRequest(t, s, http.MethodGet, "/api/users/42", nil); rec.Code != 200 {
		t.Errorf("expected 200 for wildcard match, got %d", rec.Code)
	}
	if rec := doRequest(t, s, http.MethodGet, "/other/42", nil); rec.Code != 404 {
		t.Errorf("expected 404 for unmatched path, got %d", rec.Code)
	}
}

func TestPriorityWinnerSelectsHigherPriority(t *testing.T) {
	s, _ := newTestServer(t)
	low := []byte(`{"id":"low","priority":1,"httpRequest":{"method":"GET","path":"/x"},"httpResponse":{"statusCode":200,"body":"low"}}`)
	high := []byte(`{"id":"high","priority":10,"httpRequest":{"method":"GET","path":"/x"},"httpResponse":{"statusCode":200,"body":"high"}}`)
	doRequest(t, s, http.MethodPut, "/mockserver/expectation", low)
	doRequest(t, s, http.MethodPut, "/mockserver/expectation", high)

	rec := doRequest(t, s, http.MethodGet, "/x", nil)
	if rec.Body.String() != "high" {
		t.Errorf("expected the priority-10 expectation to win, got body %q", rec.Body.String())
	}
}

func TestDeleteExpectationByID(t *testing.T) {
	s, _ := newTestServer(t)

	putBody := []byte(`{"id":"to-delete","httpRequest":{"path":"/x"},"httpResponse":{"statusCode":200}}`)
	doRequest(t, s, http.MethodPut, "/mockserver/expectation", putBody)

	rec := doRequest(t, s, http.MethodDelete, "/mockserver/expectation/to-delete", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", rec.Code)
	}

	rec2 := doRequest(t, s, http.MethodDelete, "/mockserver/expectation/to-delete", nil)
	if rec2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 deleting an unknown id, got %d", rec2.Code)
	}
}

func TestClearAllViaDeleteCollection(t *testing.T) {
	s, _ := newTestServer(t)
	doRequest(t, s, http.MethodPut, "/mockserver/expectation", []byte(`{"httpRequest":{"path":"/x"},"httpResponse":{"statusCode":200}}`))

	rec := doRequest(t, s, http.MethodDelete, "/mockserver/expectation", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on clear-all, got %d", rec.Code)
	}

	listRec := doRequest(t, s, http.MethodGet, "/mockserver/expectation", nil)
	var list []any
	_ = json.Unmarshal(listRec.Body.Bytes(), &list)
	if len(list) != 0 {
		t.Errorf("expected empty expectation list after clear, got %d", len(list))
	}
}

func TestStatusReportsPort(t *testing.T) {
	st := store.New(nil, nil)
	s := New("127.0.0.1:4321", 4321, 0, st, nil)
	rec := doRequest(t, s, http.MethodPut, "/mockserver/status", nil)
	var body map[string][]int
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode status body: %v", err)
	}
	if len(body["ports"]) != 1 || body["ports"][0] != 4321 {
		t.Errorf("expected ports to report [4321], got %v", body["ports"])
	}
}

func TestInvalidExpectationBodyReturns400(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodPut, "/mockserver/expectation", []byte(`not json`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on malformed JSON body, got %d", rec.Code)
	}
}

func TestSemanticallyInvalidExpectationReturns400(t *testing.T) {
	s, _ := newTestServer(t)
	// Neither httpResponse nor httpForward set.
	rec := doRequest(t, s, http.MethodPut, "/mockserver/expectation", []byte(`{"httpRequest":{"path":"/x"}}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a validation failure, got %d", rec.Code)
	}
}

func TestDelayHonouredBeforeResponseWritten(t *testing.T) {
	s, _ := newTestServer(t)
	doRequest(t, s, http.MethodPut, "/mockserver/expectation",
		[]byte(`{"httpRequest":{"path":"/slow"},"httpResponse":{"statusCode":200,"delay":{"timeUnit":"MILLISECONDS","value":50}}}`))

	start := time.Now()
	rec := doRequest(t, s, http.MethodGet, "/slow", nil)
	elapsed := time.Since(start)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if elapsed < 50*time.Millisecond {
		t.Errorf("expected at least a 50ms delay, took %s", elapsed)
	}
}
