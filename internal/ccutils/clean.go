package ccutils

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CleanTarget selects what clean removes.
type CleanTarget int

const (
	TargetDir CleanTarget = iota // build outputs
	TargetBin                    // installed binaries
	TargetAll
)

// ParseCleanTarget maps the --target flag value.
func ParseCleanTarget(s string) (CleanTarget, error) {
	switch s {
	case "dir", "":
		return TargetDir, nil
	case "bin":
		return TargetBin, nil
	case "all":
		return TargetAll, nil
	}
	return TargetDir, fmt.Errorf("unknown clean target %q (want dir, bin or all)", s)
}

func (t CleanTarget) removesDir() bool { return t == TargetDir || t == TargetAll }
func (t CleanTarget) removesBin() bool { return t == TargetBin || t == TargetAll }

// Cleaner tears down build outputs and installed binaries.
type Cleaner struct {
	cfg    *Config
	dir    string // install directory
	log    Logger
	stdout io.Writer
	stderr io.Writer
}

func NewCleaner(cfg *Config, dir string, log Logger) *Cleaner {
	return &Cleaner{cfg: cfg, dir: dir, log: log, stdout: os.Stdout, stderr: os.Stderr}
}

// CargoClean runs the external build tool's clean: workspace-wide when
// crate is nil, otherwise against that crate's manifest.
func (cl *Cleaner) CargoClean(ctx context.Context, ws *Workspace, crate *Crate) error {
	args := []string{"clean"}
	if crate != nil {
		args = append(args, "--manifest-path", crate.ManifestPath)
	}
	cl.log.Debugf("running %s %s in %s", cl.cfg.CargoBin, strings.Join(args, " "), ws.Root)

	cmd := exec.CommandContext(ctx, cl.cfg.CargoBin, args...)
	cmd.Dir = ws.Root
	cmd.Stdout = cl.stdout
	cmd.Stderr = cl.stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("cargo clean: %w", err)
	}
	return nil
}

// RemoveBinaries deletes both naming variants for the crate from the
// install directory. Presence is probed with Lstat so broken symlinks are
// found and removed too. A failed removal is recorded but does not stop
// the sweep of the other variant. Returns how many entries were removed.
func (cl *Cleaner) RemoveBinaries(ws *Workspace, c Crate) (int, error) {
	removed := 0
	var firstErr error
	for _, v := range []Variant{VariantPlain, VariantPrefixed} {
		dst := filepath.Join(cl.dir, installedName(ws, c, v))
		if _, err := os.Lstat(dst); err != nil {
			continue // not present under this variant
		}
		if err := os.Remove(dst); err != nil {
			cl.log.Warnf("could not remove %s: %v", dst, err)
			if firstErr == nil {
				firstErr = &InstallError{Crate: c.Name, Variant: v, Err: err}
			}
			continue
		}
		cl.log.Debugf("removed %s", dst)
		removed++
	}
	return removed, firstErr
}
