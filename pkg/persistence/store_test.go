package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/getmockd/mockd/pkg/expectation"
)

func sample(id string) *expectation.Expectation {
	return &expectation.Expectation{
		ID:             id,
		RequestMatcher: expectation.RequestMatcher{Path: &expectation.StringMatch{Value: "/x"}},
		CannedResponse: &expectation.CannedResponse{StatusCode: 200},
	}
}

func TestFileStoreLoadOnMissingFileReturnsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expectations.json")
	fs := NewFileStore(path, nil)
	defer fs.Close()

	loaded, err := fs.Load()
	if err != nil {
		t.Fatalf("unexpected error loading a missing file: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected empty slice for a missing file, got %d entries", len(loaded))
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expectations.json")
	fs := NewFileStore(path, nil)

	fs.Save([]*expectation.Expectation{sample("one"), sample("two")})
	if err := fs.Close(); err != nil {
		t.Fatalf("unexpected error closing file store: %v", err)
	}

	fs2 := NewFileStore(path, nil)
	defer fs2.Close()

	loaded, err := fs2.Load()
	if err != nil {
		t.Fatalf("unexpected error reloading: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 expectations after round trip, got %d", len(loaded))
	}
	ids := map[string]bool{}
	for _, e := range loaded {
		ids[e.ID] = true
	}
	if !ids["one"] || !ids["two"] {
		t.Errorf("expected ids 'one' and 'two' to survive the round trip, got %v", loaded)
	}
}

func TestFileStoreSaveDebouncesBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expectations.json")
	fs := NewFileStore(path, nil)
	defer fs.Close()

	for i := 0; i < 5; i++ {
		fs.Save([]*expectation.Expectation{sample("burst")})
	}

	// Give the debounced writer a chance to run once.
	time.Sleep(fs.saveDebounce + 100*time.Millisecond)

	loaded, err := fs.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "burst" {
		t.Errorf("expected the single coalesced snapshot to have persisted, got %v", loaded)
	}
}

func TestFileStoreSaveAfterCompletedWriteIsNotLost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expectations.json")
	fs := NewFileStore(path, nil)
	defer fs.Close()

	fs.Save([]*expectation.Expectation{sample("first")})
	time.Sleep(fs.saveDebounce + 50*time.Millisecond)

	fs.Save([]*expectation.Expectation{sample("second")})
	if err := fs.Close(); err != nil {
		t.Fatalf("unexpected error closing file store: %v", err)
	}

	fs2 := NewFileStore(path, nil)
	defer fs2.Close()
	loaded, err := fs2.Load()
	if err != nil {
		t.Fatalf("unexpected error reloading: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "second" {
		t.Errorf("expected the later save to win and not be dropped, got %v", loaded)
	}
}
