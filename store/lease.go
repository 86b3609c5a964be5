package store

import (
	"fmt"
	"os"
)

// Lease is a single-process-at-a-time advisory lock over one database path,
// implemented as an exclusively-created marker file next to it: at most one
// orchestrator may hold a given database open for writing at a time. No
// well-established advisory file-locking library was pulled in for this,
// so it is built directly on os.OpenFile's O_EXCL guarantee rather than
// invented tooling.
type Lease struct {
	path string
	file *os.File
}

// AcquireLease creates dbPath+".lock" exclusively. It fails immediately
// (does not block) if another process already holds the lease.
func AcquireLease(dbPath string) (*Lease, error) {
	lockPath := dbPath + ".lock"
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("store: acquiring lease on %q: %w", dbPath, err)
	}
	return &Lease{path: lockPath, file: f}, nil
}

// Release closes and removes the lease file. Safe to call once; a second
// call returns an error because the file is already closed.
func (l *Lease) Release() error {
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("store: closing lease file: %w", err)
	}
	if err := os.Remove(l.path); err != nil {
		return fmt.Errorf("store: removing lease file: %w", err)
	}
	return nil
}
