package ccutils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Variant is a naming scheme for an installed binary.
type Variant int

const (
	VariantPlain    Variant = iota // <binary>
	VariantPrefixed                // <workspace>-<binary>
)

func (v Variant) String() string {
	if v == VariantPrefixed {
		return "prefixed"
	}
	return "plain"
}

// InstallMode selects which naming variants an operation touches.
type InstallMode int

const (
	ModeBoth InstallMode = iota
	ModePlain
	ModePrefixed
)

// ParseInstallMode maps the --mode flag value.
func ParseInstallMode(s string) (InstallMode, error) {
	switch s {
	case "plain":
		return ModePlain, nil
	case "prefixed":
		return ModePrefixed, nil
	case "both", "":
		return ModeBoth, nil
	}
	return ModeBoth, fmt.Errorf("unknown install mode %q (want plain, prefixed or both)", s)
}

// Variants lists the variants the mode covers, plain before prefixed.
func (m InstallMode) Variants() []Variant {
	switch m {
	case ModePlain:
		return []Variant{VariantPlain}
	case ModePrefixed:
		return []Variant{VariantPrefixed}
	}
	return []Variant{VariantPlain, VariantPrefixed}
}

// expectedPaths lists the install paths the mode requires for the crate.
func expectedPaths(installDir string, ws *Workspace, c Crate, mode InstallMode) []string {
	var paths []string
	for _, v := range mode.Variants() {
		paths = append(paths, filepath.Join(installDir, installedName(ws, c, v)))
	}
	return paths
}

// needsRebuild decides whether the crate is stale under the given mode.
// A missing expected binary forces a rebuild; otherwise the latest source
// mtime is compared against the OLDEST expected binary, so that one lagging
// variant drags both back through a rebuild. Equal timestamps do not count
// as stale.
func needsRebuild(installDir string, ws *Workspace, c Crate, mode InstallMode) (bool, error) {
	var binMtime time.Time
	first := true
	for _, p := range expectedPaths(installDir, ws, c, mode) {
		fi, err := os.Stat(p)
		if err != nil {
			return true, nil
		}
		if first || fi.ModTime().Before(binMtime) {
			binMtime = fi.ModTime()
			first = false
		}
	}
	srcMtime, err := latestMtime(filepath.Join(ws.Root, c.RelPath))
	if err != nil {
		return false, err
	}
	return srcMtime.After(binMtime), nil
}

// sourceNewer is the list-command variant of the staleness check: it only
// considers variants that are actually present and reports false when
// none are.
func sourceNewer(installDir string, ws *Workspace, c Crate) (bool, error) {
	var binMtime time.Time
	found := false
	for _, v := range []Variant{VariantPlain, VariantPrefixed} {
		fi, err := os.Stat(filepath.Join(installDir, installedName(ws, c, v)))
		if err != nil {
			continue
		}
		if !found || fi.ModTime().Before(binMtime) {
			binMtime = fi.ModTime()
			found = true
		}
	}
	if !found {
		return false, nil
	}
	srcMtime, err := latestMtime(filepath.Join(ws.Root, c.RelPath))
	if err != nil {
		return false, err
	}
	return srcMtime.After(binMtime), nil
}
