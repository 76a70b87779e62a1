package persistence

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/getmockd/mockd/pkg/expectation"
	"github.com/getmockd/mockd/pkg/logging"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
}

func TestLoadInitializationFileSkipsInvalidEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "init.json")
	writeFile(t, path, `[
		{"httpRequest":{"path":"/good"},"httpResponse":{"statusCode":200}},
		{"httpRequest":{"path":"/bad"}}
	]`)

	loaded, err := LoadInitializationFile(path, logging.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected exactly one valid entry to be admitted, got %d", len(loaded))
	}
	if loaded[0].RequestMatcher.Path.Value != "/good" {
		t.Errorf("expected the valid entry to be the one with a response, got %+v", loaded[0])
	}
}

func TestLoadInitializationFileMissingFileErrors(t *testing.T) {
	_, err := LoadInitializationFile(filepath.Join(t.TempDir(), "nope.json"), logging.Nop())
	if err == nil {
		t.Fatal("expected an error for a missing initialization file")
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "init.json")
	writeFile(t, path, `[{"httpRequest":{"path":"/v1"},"httpResponse":{"statusCode":200}}]`)

	reloaded := make(chan []*expectation.Expectation, 1)
	var saving atomic.Bool
	w := NewWatcher(path, 20*time.Millisecond, &saving, logging.Nop(), func(loaded []*expectation.Expectation) {
		reloaded <- loaded
	})
	w.Start()
	defer w.Stop()

	writeFile(t, path, `[{"httpRequest":{"path":"/v2"},"httpResponse":{"statusCode":200}}]`)

	select {
	case loaded := <-reloaded:
		if len(loaded) != 1 || loaded[0].RequestMatcher.Path.Value != "/v2" {
			t.Errorf("expected reload to reflect the updated content, got %+v", loaded)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watcher to detect file change")
	}
}

func TestWatcherSuppressedWhileSaving(t *testing.T) {
	path := filepath.Join(t.TempDir(), "init.json")
	writeFile(t, path, `[{"httpRequest":{"path":"/v1"},"httpResponse":{"statusCode":200}}]`)

	reloaded := make(chan []*expectation.Expectation, 1)
	var saving atomic.Bool
	saving.Store(true)
	w := NewWatcher(path, 20*time.Millisecond, &saving, logging.Nop(), func(loaded []*expectation.Expectation) {
		reloaded <- loaded
	})
	w.Start()
	defer w.Stop()

	writeFile(t, path, `[{"httpRequest":{"path":"/v2"},"httpResponse":{"statusCode":200}}]`)

	select {
	case loaded := <-reloaded:
		t.Fatalf("expected watcher to suppress reload while saving, got %+v", loaded)
	case <-time.After(200 * time.Millisecond):
		// expected: no reload fired
	}
}
