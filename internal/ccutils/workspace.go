package ccutils

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

const manifestName = "Cargo.toml"

// CrateKind classifies what a workspace member builds.
type CrateKind int

const (
	KindBinary CrateKind = iota
	KindLibrary
	KindBoth
)

func (k CrateKind) String() string {
	switch k {
	case KindBinary:
		return "bin"
	case KindLibrary:
		return "lib"
	case KindBoth:
		return "bin+lib"
	}
	return "unknown"
}

// HasBinary reports whether the crate produces an executable at all.
func (k CrateKind) HasBinary() bool {
	return k == KindBinary || k == KindBoth
}

// Crate is one workspace member. Name doubles as the binary name: the
// last path segment of the member path.
type Crate struct {
	RelPath      string // relative to the workspace root
	Name         string
	Kind         CrateKind
	ManifestPath string
}

// Workspace is the discovered root plus its members in manifest order.
// It is built once per invocation and never mutated afterwards.
type Workspace struct {
	Root      string // absolute
	ShortName string // last path segment of Root; prefix for the prefixed variant
	Crates    []Crate
	Missing   []string // member entries whose manifest could not be read
}

// Only the fields the probe needs are decoded; the manifest is not
// modeled beyond that.
type workspaceManifest struct {
	Workspace *struct {
		Members []string `toml:"members"`
	} `toml:"workspace"`
}

type crateManifest struct {
	Package *struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Lib *struct {
		Name string `toml:"name"`
	} `toml:"lib"`
	Bin []struct {
		Name string `toml:"name"`
	} `toml:"bin"`
}

// DiscoverWorkspace ascends from startDir until it finds a Cargo.toml
// carrying a [workspace] table, then enumerates the members. A manifest
// that exists but cannot be parsed is fatal.
func DiscoverWorkspace(startDir string) (*Workspace, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	for {
		manifest := filepath.Join(dir, manifestName)
		if _, err := os.Stat(manifest); err == nil {
			var wm workspaceManifest
			if _, err := toml.DecodeFile(manifest, &wm); err != nil {
				return nil, &ManifestError{Path: manifest, Err: err}
			}
			if wm.Workspace != nil {
				ws := &Workspace{Root: dir, ShortName: filepath.Base(dir)}
				ws.loadMembers(wm.Workspace.Members)
				return ws, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, errNoWorkspace
		}
		dir = parent
	}
}

// loadMembers expands member entries (cargo allows globs like "crates/*")
// and loads each crate. Entries whose manifest cannot be read land in
// Missing and the rest of the workspace still loads.
func (w *Workspace) loadMembers(members []string) {
	for _, entry := range members {
		for _, rel := range w.expandMember(entry) {
			crate, err := w.loadCrate(rel)
			if err != nil {
				w.Missing = append(w.Missing, filepath.Base(rel))
				continue
			}
			w.Crates = append(w.Crates, crate)
		}
	}
}

func (w *Workspace) expandMember(entry string) []string {
	entry = filepath.FromSlash(entry)
	if !strings.ContainsAny(entry, "*?[") {
		return []string{entry}
	}
	matches, err := filepath.Glob(filepath.Join(w.Root, entry))
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	var rels []string
	for _, m := range matches {
		rel, err := filepath.Rel(w.Root, m)
		if err != nil {
			continue
		}
		rels = append(rels, rel)
	}
	return rels
}

func (w *Workspace) loadCrate(rel string) (Crate, error) {
	dir := filepath.Join(w.Root, rel)
	manifest := filepath.Join(dir, manifestName)
	var cm crateManifest
	if _, err := toml.DecodeFile(manifest, &cm); err != nil {
		return Crate{}, err
	}
	return Crate{
		RelPath:      rel,
		Name:         filepath.Base(rel),
		Kind:         classifyCrate(dir, &cm),
		ManifestPath: manifest,
	}, nil
}

// classifyCrate inspects explicit targets in the member manifest and the
// conventional source layout cargo infers targets from.
func classifyCrate(dir string, cm *crateManifest) CrateKind {
	hasBin := len(cm.Bin) > 0
	hasLib := cm.Lib != nil
	if _, err := os.Stat(filepath.Join(dir, "src", "main.rs")); err == nil {
		hasBin = true
	}
	if entries, err := os.ReadDir(filepath.Join(dir, "src", "bin")); err == nil && len(entries) > 0 {
		hasBin = true
	}
	if _, err := os.Stat(filepath.Join(dir, "src", "lib.rs")); err == nil {
		hasLib = true
	}
	switch {
	case hasBin && hasLib:
		return KindBoth
	case hasBin:
		return KindBinary
	default:
		// No detectable target: treat as a library so we never try to
		// build a binary that does not exist.
		return KindLibrary
	}
}

// Binaries returns the members that produce a binary, in manifest order.
func (w *Workspace) Binaries() []Crate {
	var out []Crate
	for _, c := range w.Crates {
		if c.Kind.HasBinary() {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the member with the given name.
func (w *Workspace) Find(name string) (Crate, bool) {
	for _, c := range w.Crates {
		if c.Name == name {
			return c, true
		}
	}
	return Crate{}, false
}

// installedName is the filename in the install directory for a crate's
// binary under the given naming variant.
func installedName(ws *Workspace, c Crate, v Variant) string {
	if v == VariantPrefixed {
		return exeName(ws.ShortName + "-" + c.Name)
	}
	return exeName(c.Name)
}
