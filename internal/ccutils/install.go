package ccutils

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"lukechampine.com/blake3"
)

// Installer places build artifacts into the install directory under the
// selected naming variants.
type Installer struct {
	dir string
	log Logger
}

func NewInstaller(dir string, log Logger) *Installer {
	return &Installer{dir: dir, log: log}
}

// Install copies the artifact under each variant of mode, plain before
// prefixed. Variants are independent: a failure on the second leaves the
// first in place and is reported with the placed variants alongside the
// error. Installing the same artifact twice lands in the same final state.
func (ins *Installer) Install(ws *Workspace, c Crate, artifact string, mode InstallMode) ([]Variant, error) {
	if err := os.MkdirAll(ins.dir, 0o755); err != nil {
		return nil, &InstallError{Crate: c.Name, Variant: VariantPlain, Err: err}
	}
	if !dirWritable(ins.dir) {
		return nil, &InstallError{
			Crate:   c.Name,
			Variant: VariantPlain,
			Err:     fmt.Errorf("install directory %s is not writable", ins.dir),
		}
	}
	wantSum, err := blake3Sum(artifact)
	if err != nil {
		return nil, &InstallError{Crate: c.Name, Variant: VariantPlain, Err: err}
	}

	var placed []Variant
	for _, v := range mode.Variants() {
		dst := filepath.Join(ins.dir, installedName(ws, c, v))
		if err := ins.place(artifact, dst, wantSum); err != nil {
			return placed, &InstallError{Crate: c.Name, Variant: v, Err: err}
		}
		ins.log.Debugf("installed %s", dst)
		placed = append(placed, v)
	}
	return placed, nil
}

// place removes whatever currently sits at dst (observing symlink
// metadata, never following), copies the artifact, marks it executable,
// and verifies the copy by checksum. The copy is a critical section: a
// first interrupt warns instead of tearing the process down mid-write.
func (ins *Installer) place(artifact, dst, wantSum string) error {
	enterCritical()
	defer leaveCritical()

	if _, err := os.Lstat(dst); err == nil {
		if err := os.Remove(dst); err != nil {
			return err
		}
	}
	if err := copyFile(artifact, dst); err != nil {
		return err
	}
	if err := markExecutable(dst); err != nil {
		return err
	}
	gotSum, err := blake3Sum(dst)
	if err != nil {
		return err
	}
	if gotSum != wantSum {
		return fmt.Errorf("checksum mismatch after copying to %s", dst)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// blake3Sum hashes a file's contents for copy verification.
func blake3Sum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
