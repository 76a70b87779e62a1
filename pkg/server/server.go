// Package server wires the store and executor to a single net/http
// listener: every request is first offered to the control plane
// (/mockserver/...), and anything unclaimed falls through to expectation
// matching.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/getmockd/mockd/pkg/executor"
	"github.com/getmockd/mockd/pkg/logging"
	"github.com/getmockd/mockd/pkg/request"
	"github.com/getmockd/mockd/pkg/store"
)

// Server is the single-port HTTP server: control plane and expectation
// matching share one listener, per spec §6.
type Server struct {
	addr string
	port int
	st   *store.Store
	log  *slog.Logger
	mux  *http.ServeMux
	http *http.Server
}

// New builds a Server bound to addr ("host:port"), backed by st. port is
// the listen port reported by PUT /mockserver/status. maxHeaderBytes caps
// the size of request headers the listener will accept (0 uses net/http's
// own default).
func New(addr string, port int, maxHeaderBytes int, st *store.Store, log *slog.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	s := &Server{
		addr: addr,
		port: port,
		st:   st,
		log:  log,
		mux:  http.NewServeMux(),
	}
	s.routes()
	s.http = &http.Server{
		Addr:           addr,
		Handler:        s.mux,
		MaxHeaderBytes: maxHeaderBytes,
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("PUT /mockserver/expectation", s.handlePutExpectation)
	s.mux.HandleFunc("GET /mockserver/expectation", s.handleListExpectations)
	s.mux.HandleFunc("DELETE /mockserver/expectation", s.handleClearAll)
	s.mux.HandleFunc("GET /mockserver/expectation/active", s.handleListExpectations)
	s.mux.HandleFunc("GET /mockserver/expectation/{id}", s.handleGetExpectation)
	s.mux.HandleFunc("DELETE /mockserver/expectation/{id}", s.handleDeleteExpectation)
	s.mux.HandleFunc("PUT /mockserver/clear", s.handleClear)
	s.mux.HandleFunc("PUT /mockserver/reset", s.handleReset)
	s.mux.HandleFunc("PUT /mockserver/status", s.handleStatus)

	// Anything not claimed by a control-plane pattern above falls through
	// to expectation matching.
	s.mux.HandleFunc("/", s.handleMock)
}

// handleMock runs the index -> matcher -> executor pipeline for a plain
// client request. A request matching no expectation is a 404: the mock
// server has no other handler to fall through to.
func (s *Server) handleMock(w http.ResponseWriter, r *http.Request) {
	rec, err := request.FromHTTP(r)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	e := s.st.Find(rec)
	if e == nil {
		s.log.Debug("no expectation matched", "method", rec.Method, "path", rec.Path)
		http.NotFound(w, r)
		return
	}

	s.log.Debug("expectation matched", "id", e.ID, "method", rec.Method, "path", rec.Path)
	executor.Execute(w, rec, e, s.log)
}

// Start begins serving and blocks until the listener stops. It returns nil
// on a graceful Stop, any other error otherwise.
func (s *Server) Start() error {
	s.log.Info("expectd listening", "addr", s.addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop drains in-flight handlers (bounded by ctx) and closes the listener.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("expectd shutting down")
	return s.http.Shutdown(ctx)
}

// Addr returns the address the server is configured to listen on.
func (s *Server) Addr() string {
	return s.addr
}
