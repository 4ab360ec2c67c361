package ccutils

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// epoch is the "older than anything" sentinel for missing paths.
var epoch = time.Unix(0, 0)

// latestMtime returns the most recent modification time of any file under
// root. Directories named "target" and entries whose name starts with a
// dot are skipped at any depth. A regular file yields its own mtime; a
// missing root yields the epoch. An unreadable entry aborts the walk with
// a WalkError.
func latestMtime(root string) (time.Time, error) {
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return epoch, nil
	}
	if err != nil {
		return time.Time{}, &WalkError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return info.ModTime(), nil
	}

	latest := epoch
	err = filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return &WalkError{Path: path, Err: err}
		}
		if path != root {
			name := fi.Name()
			if fi.IsDir() && name == "target" {
				return filepath.SkipDir
			}
			if strings.HasPrefix(name, ".") {
				if fi.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		if fi.IsDir() {
			return nil
		}
		if mt := fi.ModTime(); mt.After(latest) {
			latest = mt
		}
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	return latest, nil
}
