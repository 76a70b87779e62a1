package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/getmockd/mockd/pkg/expectation"
	"github.com/getmockd/mockd/pkg/httputil"
	"github.com/getmockd/mockd/pkg/store"
)

// maxExpectationBody bounds how much of a PUT body the control plane will
// read before giving up; matches the spec's header-size-cap posture for
// request framing in general.
const maxExpectationBody = 16 << 20 // 16 MiB

// handlePutExpectation accepts a single expectation or a JSON array of
// them, validates each via Store.Upsert, and returns 201 with the admitted
// documents (ids included). A decode failure or an admission-gate
// validation failure (shape, bad regex, unknown matchType, missing
// action, bad ranges) is reported as 400 "incorrect request format"; 406
// "invalid expectation" is reserved for a semantic rejection distinct
// from the admission gate, which Store.Upsert does not currently raise.
func (s *Server) handlePutExpectation(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxExpectationBody+1))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "incorrect request format", err.Error())
		return
	}

	items, err := decodeExpectations(body)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "incorrect request format", err.Error())
		return
	}

	admitted := make([]*expectation.Expectation, 0, len(items))
	for _, e := range items {
		saved, err := s.st.Upsert(e)
		if err != nil {
			var valErr *expectation.ValidationError
			if errors.As(err, &valErr) {
				httputil.WriteError(w, http.StatusBadRequest, "incorrect request format", err.Error())
				return
			}
			httputil.WriteError(w, http.StatusNotAcceptable, "invalid expectation", err.Error())
			return
		}
		admitted = append(admitted, saved)
	}

	httputil.WriteJSON(w, http.StatusCreated, admitted)
}

// decodeExpectations accepts either a bare expectation object or a JSON
// array of expectations.
func decodeExpectations(body []byte) ([]*expectation.Expectation, error) {
	var arr []*expectation.Expectation
	if err := json.Unmarshal(body, &arr); err == nil {
		return arr, nil
	}

	var single expectation.Expectation
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, err
	}
	return []*expectation.Expectation{&single}, nil
}

func (s *Server) handleListExpectations(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.st.List())
}

func (s *Server) handleGetExpectation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	e, ok := s.st.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExpectation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.st.Delete(id) {
		httputil.WriteError(w, http.StatusBadRequest, "incorrect request format", "unknown expectation id: "+id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	s.st.Clear(nil)
	w.WriteHeader(http.StatusNoContent)
}

// clearRequest mirrors the body accepted by PUT /mockserver/clear: either
// an id, or a request-definition's method and path.
type clearRequest struct {
	ID          string `json:"id"`
	HTTPRequest *struct {
		Method string `json:"method"`
		Path   string `json:"path"`
	} `json:"httpRequest"`
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	filter, err := readClearFilter(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "incorrect request format", err.Error())
		return
	}
	s.st.Clear(filter)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.st.Clear(nil)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"ports": []int{s.port},
	})
}

func readClearFilter(r *http.Request) (*store.ClearFilter, error) {
	if r.ContentLength == 0 {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxExpectationBody+1))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}

	var req clearRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	if req.ID != "" {
		return &store.ClearFilter{ID: req.ID}, nil
	}
	if req.HTTPRequest != nil {
		return &store.ClearFilter{Method: req.HTTPRequest.Method, Path: req.HTTPRequest.Path}, nil
	}
	return nil, nil
}
