//go:build !windows

package persistence

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockFile takes an advisory exclusive lock on f, blocking until it is
// available. Writers use this so only one process at a time can save.
func lockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

// lockFileShared takes an advisory shared lock on f, blocking until it is
// available. Readers use this so concurrent loads don't serialize against
// each other, only against a writer's exclusive lock.
func lockFileShared(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_SH)
}

// unlockFile releases a lock taken by lockFile or lockFileShared.
func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
