//go:build windows

package persistence

import "os"

// lockFile is a no-op on Windows: the rename-based atomic write gives us
// enough safety for a single-process server, and Windows advisory locking
// needs a different syscall surface than unix.Flock.
func lockFile(f *os.File) error {
	return nil
}

func lockFileShared(f *os.File) error {
	return nil
}

func unlockFile(f *os.File) error {
	return nil
}
