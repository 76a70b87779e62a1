package persistence

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/getmockd/mockd/pkg/expectation"
)

// LoadInitializationFile reads a JSON array of expectations from path,
// skipping (and logging) any entry that fails validation rather than
// failing the whole load, per spec §6's initialization-file semantics.
func LoadInitializationFile(path string, log *slog.Logger) ([]*expectation.Expectation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make([]*expectation.Expectation, 0, len(raw))
	for i, entry := range raw {
		var e expectation.Expectation
		if err := json.Unmarshal(entry, &e); err != nil {
			log.Warn("skipping malformed expectation in initialization file", "index", i, "error", err)
			continue
		}
		if err := expectation.Validate(&e); err != nil {
			log.Warn("skipping invalid expectation in initialization file", "index", i, "error", err)
			continue
		}
		out = append(out, &e)
	}
	return out, nil
}

// Watcher polls an initialization file for content changes and invokes
// onChange with the freshly loaded, validated set whenever the content
// hash changes. It never reloads while saving is true, so that a store
// that happens to share its path with the watched file does not trigger
// a spurious reload of its own write.
type Watcher struct {
	path     string
	interval time.Duration
	saving   *atomic.Bool
	log      *slog.Logger
	lastHash [32]byte
	onChange func([]*expectation.Expectation)

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewWatcher constructs a Watcher. saving may be nil if there is no shared
// write path to guard against.
func NewWatcher(path string, interval time.Duration, saving *atomic.Bool, log *slog.Logger, onChange func([]*expectation.Expectation)) *Watcher {
	return &Watcher{
		path:     path,
		interval: interval,
		saving:   saving,
		log:      log,
		onChange: onChange,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins polling in a background goroutine. It captures the current
// file hash first, so the initial load (already performed by the caller)
// doesn't immediately re-fire.
func (w *Watcher) Start() {
	if data, err := os.ReadFile(w.path); err == nil {
		w.lastHash = sha256.Sum256(data)
	}
	go w.loop()
}

// Stop halts polling and waits for the loop to exit.
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

func (w *Watcher) loop() {
	defer close(w.doneCh)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	if w.saving != nil && w.saving.Load() {
		return
	}

	data, err := os.ReadFile(w.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.log.Warn("failed to read initialization file during watch", "error", err)
		}
		return
	}

	hash := sha256.Sum256(data)
	if hash == w.lastHash {
		return
	}

	loaded, err := LoadInitializationFile(w.path, w.log)
	if err != nil {
		w.log.Error("failed to reload initialization file, keeping last known good set", "error", err)
		return
	}

	w.lastHash = hash
	w.onChange(loaded)
}
