// Package persistence provides durable storage for the expectation set:
// a debounced, lock-protected JSON file for the authoritative store, and a
// separate loader/watcher for the read-only initialization file.
package persistence

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getmockd/mockd/pkg/expectation"
	"github.com/getmockd/mockd/pkg/logging"
)

// FileStore persists the expectation set to a single JSON file, debouncing
// writes so a burst of control-plane calls produces one write instead of
// many. It implements store.Persister.
type FileStore struct {
	path         string
	log          *slog.Logger
	mu           sync.Mutex
	pending      []*expectation.Expectation
	dirty        atomic.Bool
	saving       atomic.Bool
	saveDebounce time.Duration
	saveCh       chan struct{}
	closeCh      chan struct{}
	closeOnce    sync.Once
	closedCh     chan struct{}
}

// NewFileStore constructs a FileStore writing to path. The background save
// loop starts immediately; call Close to flush and stop it.
func NewFileStore(path string, log *slog.Logger) *FileStore {
	if log == nil {
		log = logging.Nop()
	}
	fs := &FileStore{
		path:         path,
		log:          log,
		saveDebounce: 250 * time.Millisecond,
		saveCh:       make(chan struct{}, 1),
		closeCh:      make(chan struct{}),
		closedCh:     make(chan struct{}),
	}
	go fs.saveLoop()
	return fs
}

// Save implements store.Persister: it records the latest snapshot and
// schedules a debounced write. It never blocks on disk I/O.
func (fs *FileStore) Save(snapshot []*expectation.Expectation) {
	fs.mu.Lock()
	fs.pending = snapshot
	fs.mu.Unlock()

	fs.dirty.Store(true)
	select {
	case fs.saveCh <- struct{}{}:
	default:
	}
}

// lockPath returns the sidecar lock file both Load and doSave coordinate
// on, so a reader's shared lock and a writer's exclusive lock contend for
// the same fd rather than two unrelated files.
func (fs *FileStore) lockPath() string {
	return fs.path + ".lock"
}

// openLockFile opens (creating if needed) the sidecar lock file used to
// coordinate Load and doSave across processes sharing fs.path.
func (fs *FileStore) openLockFile() (*os.File, error) {
	if dir := filepath.Dir(fs.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(fs.lockPath(), os.O_CREATE|os.O_RDWR, 0o600)
}

// Load reads the persisted file, if any. A missing file is not an error:
// it returns an empty slice, matching a fresh install. It takes a shared
// advisory lock on the sidecar lock file so it only contends with a
// concurrent doSave, not with other readers.
func (fs *FileStore) Load() ([]*expectation.Expectation, error) {
	lockFH, err := fs.openLockFile()
	if err != nil {
		return nil, err
	}
	defer lockFH.Close()
	if err := lockFileShared(lockFH); err != nil {
		return nil, err
	}
	defer unlockFile(lockFH)

	f, err := os.Open(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var list []*expectation.Expectation
	if err := json.NewDecoder(f).Decode(&list); err != nil {
		return nil, err
	}
	return list, nil
}

// Close flushes any pending write and stops the save loop.
func (fs *FileStore) Close() error {
	fs.closeOnce.Do(func() { close(fs.closeCh) })
	<-fs.closedCh
	return nil
}

func (fs *FileStore) saveLoop() {
	defer close(fs.closedCh)
	var timer *time.Timer
	for {
		select {
		case <-fs.saveCh:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(fs.saveDebounce, func() {
				if fs.dirty.Load() && !fs.saving.Load() {
					if err := fs.doSave(); err != nil {
						fs.log.Error("failed to persist expectations", "error", err)
					}
				}
			})
		case <-fs.closeCh:
			if timer != nil {
				timer.Stop()
			}
			if fs.dirty.Load() {
				if err := fs.doSave(); err != nil {
					fs.log.Error("failed to persist expectations on shutdown", "error", err)
				}
			}
			return
		}
	}
}

func (fs *FileStore) doSave() error {
	if !fs.saving.CompareAndSwap(false, true) {
		return nil
	}
	defer fs.saving.Store(false)

	// Clear dirty before snapshotting, not after writing: a Save() that
	// lands while we're mid-write sets dirty back to true, so the next
	// saveCh tick still picks it up instead of finding a stale false.
	fs.dirty.Store(false)

	fs.mu.Lock()
	snapshot := fs.pending
	fs.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	lockFH, err := fs.openLockFile()
	if err != nil {
		return err
	}
	defer lockFH.Close()
	if err := lockFile(lockFH); err != nil {
		return err
	}
	defer unlockFile(lockFH)

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return nil
}
