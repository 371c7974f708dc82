package remover

import (
	"os"
	"sync"
)

// Deleter abstracts filesystem removals so dry runs and tests never touch
// the disk.
type Deleter interface {
	Remove(path string) error
	RemoveAll(path string) error
}

// OSDeleter removes paths permanently.
type OSDeleter struct{}

// Remove deletes a single file.
func (OSDeleter) Remove(path string) error {
	return os.Remove(path)
}

// RemoveAll deletes a directory and everything below it. A path that is
// already gone is an error, unlike os.RemoveAll.
func (OSDeleter) RemoveAll(path string) error {
	if _, err := os.Lstat(path); err != nil {
		return err
	}
	return os.RemoveAll(path)
}

// DryRunDeleter records removals without performing them.
type DryRunDeleter struct {
	mu    sync.Mutex
	calls []string
}

// Remove records "rm:<path>".
func (d *DryRunDeleter) Remove(path string) error {
	d.record("rm:" + path)
	return nil
}

// RemoveAll records "rmall:<path>".
func (d *DryRunDeleter) RemoveAll(path string) error {
	d.record("rmall:" + path)
	return nil
}

// Calls returns the recorded operations in order.
func (d *DryRunDeleter) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *DryRunDeleter) record(call string) {
	d.mu.Lock()
	d.calls = append(d.calls, call)
	d.mu.Unlock()
}
