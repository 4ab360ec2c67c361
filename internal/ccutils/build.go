package ccutils

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// artifactPath is where cargo leaves the release executable for a crate.
func artifactPath(ws *Workspace, c Crate) string {
	return filepath.Join(ws.Root, "target", "release", exeName(c.Name))
}

// Builder invokes the external build tool, one binary crate at a time.
// Cargo parallelizes internally; the Builder never does.
type Builder struct {
	cfg    *Config
	log    Logger
	stdout io.Writer
	stderr io.Writer
}

func NewBuilder(cfg *Config, log Logger) *Builder {
	return &Builder{cfg: cfg, log: log, stdout: os.Stdout, stderr: os.Stderr}
}

// Build compiles the crate's binary in release mode from the workspace
// root. Cargo's output streams through unchanged; only the exit code is
// interpreted. Returns the artifact path on success.
func (b *Builder) Build(ctx context.Context, ws *Workspace, c Crate) (string, error) {
	args := []string{"build", "--release", "--bin", c.Name}
	b.log.Debugf("running %s %s in %s", b.cfg.CargoBin, strings.Join(args, " "), ws.Root)

	cmd := exec.CommandContext(ctx, b.cfg.CargoBin, args...)
	cmd.Dir = ws.Root
	cmd.Stdin = os.Stdin
	cmd.Stdout = b.stdout
	cmd.Stderr = b.stderr
	if err := cmd.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return "", &BuildError{Crate: c.Name, ExitCode: code}
	}
	return artifactPath(ws, c), nil
}
