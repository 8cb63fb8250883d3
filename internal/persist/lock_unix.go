//go:build unix

package persist

import (
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

// lockFile blocks until it holds an exclusive flock(2) on name.
func lockFile(name string) (func(), error) {
	f, err := os.OpenFile(name, os.O_CREATE|os.O_RDWR, 0o644) //nolint:gosec // path derived from config path
	if err != nil {
		return nil, err
	}
	for {
		err = unix.Flock(int(f.Fd()), unix.LOCK_EX)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return func() {
		if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
			slog.Debug("flock unlock failed", "path", name, "error", err)
		}
		_ = f.Close()
	}, nil
}
