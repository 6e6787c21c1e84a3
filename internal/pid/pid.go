package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/mutker/atkctl/internal/errors"
)

const (
	pidFile = "atkctl.pid"
)

// Path returns the PID file location inside dir. An empty dir means the
// system temporary directory.
func Path(dir string) string {
	if dir == "" {
		dir = os.TempDir()
	}

	return filepath.Join(dir, pidFile)
}

// Write writes the current process ID to the PID file in dir. It fails with
// ErrAlreadyRunning when the file names a live process. A stale or
// unreadable file is replaced.
func Write(dir string) error {
	errFactory := errors.New()
	path := Path(dir)

	if data, err := os.ReadFile(path); err == nil {
		if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && pid != os.Getpid() && alive(pid) {
			return errFactory.WithData(errors.ErrAlreadyRunning, pid)
		}
	} else if !os.IsNotExist(err) {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file in dir.
func Remove(dir string) error {
	if err := os.Remove(Path(dir)); err != nil && !os.IsNotExist(err) {
		return errors.New().Wrap(errors.ErrInternal, err)
	}

	return nil
}
