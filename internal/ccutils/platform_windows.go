//go:build windows

package ccutils

import "os"

func exeExtension() string { return ".exe" }

// Windows has no executable bit; the .exe extension is the marker.
func markExecutable(string) error { return nil }

// dirWritable reports whether the current user can create entries in dir.
// There is no access(2) here, so probe with a throwaway temp file.
func dirWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".ccutils-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}
