package ccutils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// captureLogger records log lines so tests can assert on them. It is the
// injectable counterpart of the slog-backed default.
type captureLogger struct {
	mu    sync.Mutex
	lines []string
}

func (c *captureLogger) logf(level, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, level+": "+fmt.Sprintf(format, args...))
}

func (c *captureLogger) Debugf(format string, args ...any) { c.logf("DEBUG", format, args...) }
func (c *captureLogger) Infof(format string, args ...any)  { c.logf("INFO", format, args...) }
func (c *captureLogger) Warnf(format string, args ...any)  { c.logf("WARN", format, args...) }
func (c *captureLogger) Errorf(format string, args ...any) { c.logf("ERROR", format, args...) }

func (c *captureLogger) contains(substr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range c.lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// backdate pushes every mtime under dir an hour into the past so that a
// subsequent install is unambiguously newer than the sources.
func backdate(t *testing.T, dir string) {
	t.Helper()
	old := time.Now().Add(-time.Hour)
	err := filepath.Walk(dir, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		return os.Chtimes(path, old, old)
	})
	require.NoError(t, err)
}

// fixtureWorkspace lays out a workspace named "tools" with a binary crate
// foo and a library crate bar, sources backdated.
func fixtureWorkspace(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "tools")
	writeFile(t, filepath.Join(root, "Cargo.toml"), "[workspace]\nmembers = [\"crates/foo\", \"crates/bar\"]\n")
	writeFile(t, filepath.Join(root, "crates", "foo", "Cargo.toml"), "[package]\nname = \"foo\"\n")
	writeFile(t, filepath.Join(root, "crates", "foo", "src", "main.rs"), "fn main() {}\n")
	writeFile(t, filepath.Join(root, "crates", "bar", "Cargo.toml"), "[package]\nname = \"bar\"\n")
	writeFile(t, filepath.Join(root, "crates", "bar", "src", "lib.rs"), "\n")
	backdate(t, filepath.Join(root, "crates"))
	return root
}

// cargoOK stands in for the real build tool: build drops an artifact
// under target/release, clean removes target. Every invocation is logged
// so tests can count them.
const cargoOK = `#!/bin/sh
echo "$@" >> cargo-invocations.log
case "$1" in
build)
	mkdir -p target/release
	printf 'binary %s' "$4" > "target/release/$4"
	;;
clean)
	rm -rf target
	;;
esac
`

const cargoFail = `#!/bin/sh
exit 3
`

func fakeCargo(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cargo")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func cargoInvocations(t *testing.T, wsRoot string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(wsRoot, "cargo-invocations.log"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// newTestOrchestrator wires an orchestrator against a fixture workspace,
// a fake cargo and a throwaway install directory.
func newTestOrchestrator(t *testing.T, wsRoot, cargo string) (*Orchestrator, *captureLogger, string) {
	t.Helper()
	cfg := &Config{
		CargoHome: filepath.Join(t.TempDir(), "cargo-home"),
		CargoBin:  cargo,
	}
	ws, err := DiscoverWorkspace(wsRoot)
	require.NoError(t, err)

	logger := &captureLogger{}
	o, err := NewOrchestrator(cfg, ws, logger)
	require.NoError(t, err)

	dir, err := cfg.InstallDir()
	require.NoError(t, err)
	return o, logger, dir
}
