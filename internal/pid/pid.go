package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/roverdash/internal/errors"
)

const (
	pidPrefix = "roverdash-"
	pidSuffix = ".pid"
)

// Path returns the PID file that guards device
func Path(device string) string {
	name := strings.Trim(filepath.Clean(device), string(filepath.Separator))
	name = strings.NewReplacer(string(filepath.Separator), "_", ":", "_").Replace(name)

	return filepath.Join(os.TempDir(), pidPrefix+name+pidSuffix)
}

// Write records the current process as the owner of device. It fails with
// ErrAlreadyRunning when a live process already owns it; a stale file is
// replaced.
func Write(device string) error {
	errFactory := errors.New()
	path := Path(device)

	if _, err := os.Stat(path); err == nil {
		// PID file exists, check if the process is running
		bytes, err := os.ReadFile(path)
		if err != nil {
			return errFactory.Wrap(errors.ErrInternal, err)
		}

		if owner, err := strconv.Atoi(strings.TrimSpace(string(bytes))); err == nil && alive(owner) {
			return errFactory.WithData(errors.ErrAlreadyRunning, struct {
				Device string
				PID    int
			}{
				Device: device,
				PID:    owner,
			})
		}
	}

	err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600)
	if err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file of device
func Remove(device string) error {
	path := Path(device)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(path); err != nil {
		return errors.New().Wrap(errors.ErrInternal, err)
	}

	return nil
}

func alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
