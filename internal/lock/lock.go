// Package lock keeps two runs from driving the display bus at once.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const fileName = "display-toggle.pid"

// ErrLocked is returned when another live process holds the lock
var ErrLocked = errors.New("another display-toggle run is in progress")

// DefaultPath returns the PID file location in the user runtime directory.
// Without a usable runtime directory (no login session) the file goes to the
// temp dir, suffixed with the uid since that directory is shared.
func DefaultPath() string {
	path, err := xdg.RuntimeFile(fileName)
	if err != nil || filepath.Dir(path) != filepath.Clean(xdg.RuntimeDir) {
		return filepath.Join(os.TempDir(), fmt.Sprintf("display-toggle-%d.pid", os.Getuid()))
	}
	return path
}

// PIDLock is a PID file lock
type PIDLock struct {
	path string
}

func New(path string) *PIDLock {
	if path == "" {
		path = DefaultPath()
	}
	return &PIDLock{path: path}
}

// Path returns the PID file path
func (l *PIDLock) Path() string {
	return l.path
}

// Acquire takes the lock for the current process. A file left behind by a
// process that is no longer alive is removed first.
func (l *PIDLock) Acquire() error {
	running, pid, err := l.IsRunning()
	if err != nil {
		return err
	}
	if running {
		if pid == os.Getpid() {
			return nil
		}
		return errors.Wrapf(ErrLocked, "pid %d holds %s", pid, l.path)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return errors.Wrap(err, "failed to create lock directory")
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return errors.Wrapf(ErrLocked, "lock file %s appeared concurrently", l.path)
		}
		return errors.Wrap(err, "failed to create lock file")
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%d", os.Getpid()); err != nil {
		return errors.Wrap(err, "failed to write lock file")
	}
	log.Trace().Str("path", l.path).Msg("Lock acquired")
	return nil
}

// Release removes the PID file if it belongs to the current process
func (l *PIDLock) Release() error {
	pid, err := l.ReadPID()
	if err != nil {
		return err
	}
	if pid != 0 && pid != os.Getpid() {
		return nil
	}
	return l.remove()
}

// ReadPID returns the PID in the lock file, or 0 when there is none
func (l *PIDLock) ReadPID() (int, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to read PID file")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.Wrap(err, "invalid PID in file")
	}
	return pid, nil
}

// IsRunning reports whether the lock holder is alive. Stale and corrupt
// files are removed.
func (l *PIDLock) IsRunning() (bool, int, error) {
	pid, err := l.ReadPID()
	if err != nil {
		log.Debug().Err(err).Str("path", l.path).Msg("Removing unreadable lock file")
		return false, 0, l.remove()
	}
	if pid == 0 {
		return false, 0, nil
	}

	if !processAlive(pid) {
		log.Debug().Int("pid", pid).Msg("Removing stale lock file")
		return false, 0, l.remove()
	}
	return true, pid, nil
}

func (l *PIDLock) remove() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove PID file")
	}
	return nil
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
