// Package lockedfile provides an inter-process mutex backed by an
// exclusive lock on a file.
package lockedfile

import (
	"fmt"
	"os"

	"github.com/qiniu/x/log"
)

// releaseFile is unlockFile, replaced in tests.
var releaseFile = unlockFile

// A Mutex provides mutual exclusion between processes using a lock file.
// The file is created if needed and never removed.
type Mutex struct {
	Path string
}

// MutexAt returns a new Mutex with Path set to path.
func MutexAt(path string) *Mutex {
	if path == "" {
		panic("lockedfile.MutexAt: path must be non-empty")
	}
	return &Mutex{Path: path}
}

func (mu *Mutex) String() string {
	return fmt.Sprintf("lockedfile.Mutex(%s)", mu.Path)
}

// Lock blocks until the lock is held and returns a function that releases
// it.
func (mu *Mutex) Lock() (unlock func(), err error) {
	if mu.Path == "" {
		panic("lockedfile.Mutex: missing Path during Lock")
	}
	f, err := os.OpenFile(mu.Path, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, err
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, &os.PathError{Op: "lock", Path: mu.Path, Err: err}
	}
	return func() {
		if err := releaseFile(f); err != nil {
			log.Debugf("lockedfile: unlock %s: %v", mu.Path, err)
		}
		f.Close()
	}, nil
}
