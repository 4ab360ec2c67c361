//go:build !windows

package ccutils

import (
	"os"

	"golang.org/x/sys/unix"
)

func exeExtension() string { return "" }

// markExecutable sets the executable bits on a freshly installed binary.
func markExecutable(path string) error {
	return os.Chmod(path, 0o755)
}

// dirWritable reports whether the current user can create entries in dir.
func dirWritable(dir string) bool {
	return unix.Access(dir, unix.W_OK) == nil
}
