package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// ErrAlreadyRunning is returned by Acquire when the PID file names a live
// process other than the caller.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Lock is a held PID file.
type Lock struct {
	path string
	pid  int
}

// Running reads the PID file at path and reports the PID it names when that
// process is alive. A missing, unreadable or malformed file means nothing is
// running.
func Running(path string) (int, bool) {
	pid, ok := readPID(path)
	if !ok {
		return 0, false
	}
	alive, err := process.PidExists(int32(pid))
	if err != nil || !alive {
		return 0, false
	}
	return pid, true
}

// Acquire records the current process in the PID file at path. A stale file
// left by a dead process is overwritten.
func Acquire(path string) (*Lock, error) {
	self := os.Getpid()
	if pid, ok := Running(path); ok && pid != self {
		return nil, fmt.Errorf("%w (pid %d, %s)", ErrAlreadyRunning, pid, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create pid dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(self)+"\n"), 0644); err != nil {
		return nil, fmt.Errorf("write pid file: %w", err)
	}
	return &Lock{path: path, pid: self}, nil
}

// Release removes the PID file if it still names this process.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if pid, ok := readPID(l.path); !ok || pid != l.pid {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove pid file: %w", err)
	}
	return nil
}

func (l *Lock) Path() string { return l.path }

func readPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}
