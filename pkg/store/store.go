// Package store owns the authoritative id -> expectation mapping, drives
// the index, and admits/evicts expectations on behalf of the control plane
// and the initialization-file loader.
package store

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/getmockd/mockd/pkg/expectation"
	"github.com/getmockd/mockd/pkg/index"
	"github.com/getmockd/mockd/pkg/logging"
	"github.com/getmockd/mockd/pkg/matcher"
	"github.com/getmockd/mockd/pkg/request"
)

// Persister is the interface the store hands post-mutation snapshots to.
// Implementations (pkg/persistence) serialise writes on their own path so
// that persistence I/O never happens while the store's lock is held.
type Persister interface {
	Save(snapshot []*expectation.Expectation)
}

// ClearFilter narrows a Clear call, per spec §4.3.
type ClearFilter struct {
	// ID, if set, behaves like a single Delete.
	ID string
	// Method and Path, if set, remove every expectation whose matcher's
	// literal method and literal path equal these.
	Method string
	Path   string
}

// Store is the in-memory authoritative expectation store. The zero value
// is not usable; construct with New.
type Store struct {
	mu        sync.RWMutex
	data      map[string]*expectation.Expectation
	idx       *index.Index
	persister Persister
	log       *slog.Logger
}

// New constructs an empty Store. persister may be nil to disable
// persistence (tests construct their own Store with persister == nil).
func New(persister Persister, log *slog.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{
		data:      make(map[string]*expectation.Expectation),
		idx:       index.New(),
		persister: persister,
		log:       log,
	}
}

// Initialize loads a persisted set (e.g. from pkg/persistence at startup),
// deduplicating ids and rebuilding the index. A persistence load failure is
// the caller's concern — Initialize just admits whatever slice it's given,
// which may be empty.
func (s *Store) Initialize(loaded []*expectation.Expectation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]*expectation.Expectation, len(loaded))
	s.idx = index.New()

	seen := make(map[string]bool, len(loaded))
	for _, e := range loaded {
		if e.ID == "" || seen[e.ID] {
			old := e.ID
			e.ID = uuid.NewString()
			s.log.Warn("duplicate or missing expectation id on load, reassigned", "old_id", old, "new_id", e.ID)
		}
		seen[e.ID] = true
		s.data[e.ID] = e
		s.idx.Add(e.ID, e)
	}
}

// Add assigns an id if absent, rejects on id collision by assigning a
// fresh id, validates, inserts, indexes and persists.
func (s *Store) Add(e *expectation.Expectation) (*expectation.Expectation, error) {
	if err := expectation.Validate(e); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	} else if _, exists := s.data[e.ID]; exists {
		s.log.Warn("expectation id collision on add, reassigned", "id", e.ID)
		e.ID = uuid.NewString()
	}
	s.data[e.ID] = e
	s.idx.Add(e.ID, e)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(snapshot)
	return e, nil
}

// Upsert replaces e.ID's expectation in place if it exists, otherwise
// inserts it, preserving the supplied id.
func (s *Store) Upsert(e *expectation.Expectation) (*expectation.Expectation, error) {
	if err := expectation.Validate(e); err != nil {
		return nil, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	s.mu.Lock()
	if old, exists := s.data[e.ID]; exists {
		s.idx.Remove(e.ID, old)
	}
	s.data[e.ID] = e
	s.idx.Add(e.ID, e)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(snapshot)
	return e, nil
}

// Get returns the expectation for id, if any.
func (s *Store) Get(id string) (*expectation.Expectation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[id]
	return e, ok
}

// List returns a snapshot of every expectation currently admitted.
func (s *Store) List() []*expectation.Expectation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Delete removes id. Returns false (no error) if id is unknown.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	e, exists := s.data[id]
	if !exists {
		s.mu.Unlock()
		return false
	}
	delete(s.data, id)
	s.idx.Remove(id, e)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(snapshot)
	return true
}

// Clear removes expectations matching filter (or every expectation, if
// filter is nil), persisting once.
func (s *Store) Clear(filter *ClearFilter) int {
	if filter != nil && filter.ID != "" {
		if s.Delete(filter.ID) {
			return 1
		}
		return 0
	}

	s.mu.Lock()
	removed := 0
	if filter != nil && (filter.Method != "" || filter.Path != "") {
		for id, e := range s.data {
			if matchesLiteral(e, filter.Method, filter.Path) {
				delete(s.data, id)
				s.idx.Remove(id, e)
				removed++
			}
		}
	} else {
		removed = len(s.data)
		s.data = make(map[string]*expectation.Expectation)
		s.idx.Clear()
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(snapshot)
	return removed
}

// Find runs the index -> matcher -> selection pipeline of spec §4.2/§4.5
// and returns the selected expectation, or nil if none matches.
func (s *Store) Find(rec *request.Record) *expectation.Expectation {
	s.mu.RLock()
	candidateIDs := s.idx.Candidates(rec.Method, rec.Path)
	candidates := make([]*expectation.Expectation, 0, len(candidateIDs))
	for id := range candidateIDs {
		if e, ok := s.data[id]; ok {
			candidates = append(candidates, e)
		}
	}
	s.mu.RUnlock()

	var responses, forwards []*expectation.Expectation
	for _, e := range candidates {
		if !matcher.Matches(&e.RequestMatcher, rec) {
			continue
		}
		if e.CannedResponse != nil {
			responses = append(responses, e)
		} else {
			forwards = append(forwards, e)
		}
	}

	pool := responses
	if len(pool) == 0 {
		pool = forwards
	}
	if len(pool) == 0 {
		return nil
	}

	sort.Slice(pool, func(i, j int) bool {
		if pool[i].Priority != pool[j].Priority {
			return pool[i].Priority > pool[j].Priority
		}
		return pool[i].ID > pool[j].ID
	})
	return pool[0]
}

func (s *Store) snapshotLocked() []*expectation.Expectation {
	out := make([]*expectation.Expectation, 0, len(s.data))
	for _, e := range s.data {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) persist(snapshot []*expectation.Expectation) {
	if s.persister != nil {
		s.persister.Save(snapshot)
	}
}

func matchesLiteral(e *expectation.Expectation, method, path string) bool {
	m := e.RequestMatcher
	if method != "" {
		if m.Method == nil || m.Method.Not || m.Method.Value != method {
			return false
		}
	}
	if path != "" {
		if m.Path == nil || m.Path.Not || m.Path.Value != path {
			return false
		}
	}
	return true
}
