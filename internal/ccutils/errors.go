package ccutils

import (
	"errors"
	"fmt"
)

var (
	// errNoWorkspace means the ascent from the starting directory never hit
	// a manifest with a [workspace] table.
	errNoWorkspace = errors.New("no workspace manifest found")

	// errNoHome means neither CARGO_HOME nor a home directory could be
	// resolved, so there is nowhere to install to.
	errNoHome = errors.New("cannot resolve home directory")

	// errFailedOutcomes signals that per-crate outcomes were already
	// printed and at least one of them failed.
	errFailedOutcomes = errors.New("one or more crates failed")
)

// WalkError reports a filesystem walk that could not read an entry.
type WalkError struct {
	Path string
	Err  error
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("walk failed at %s: %v", e.Path, e.Err)
}

func (e *WalkError) Unwrap() error { return e.Err }

// BuildError reports a non-zero exit from the external build tool.
type BuildError struct {
	Crate    string
	ExitCode int
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build of %s failed with exit code %d", e.Crate, e.ExitCode)
}

// InstallError reports a failed copy or removal for one naming variant.
type InstallError struct {
	Crate   string
	Variant Variant
	Err     error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install of %s (%s variant) failed: %v", e.Crate, e.Variant, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }

// NotFoundError reports a selected crate that is not a workspace member.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("crate %s not found in workspace", e.Name)
}

// ManifestError reports a workspace manifest that cannot be parsed. Fatal.
type ManifestError struct {
	Path string
	Err  error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("malformed manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestError) Unwrap() error { return e.Err }
