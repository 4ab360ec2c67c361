package ccutils

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInstall_freshWorkspace(t *testing.T) {
	root := fixtureWorkspace(t)
	o, logger, dir := newTestOrchestrator(t, root, fakeCargo(t, cargoOK))
	start := time.Now()

	outcomes := o.BuildInstall(context.Background(), []string{"foo"}, ModeBoth)
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeInstalled, outcomes[0].Kind)
	assert.Zero(t, ExitCode(outcomes))

	for _, name := range []string{exeName("foo"), exeName("tools-foo")} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.False(t, info.ModTime().Before(start.Add(-time.Second)))
		if exeExtension() == "" {
			assert.NotZero(t, info.Mode()&0o111)
		}
	}
	assert.True(t, logger.contains("installed"), "injected logger captured the install")
}

func TestBuildInstall_secondRunSkips(t *testing.T) {
	root := fixtureWorkspace(t)
	o, _, dir := newTestOrchestrator(t, root, fakeCargo(t, cargoOK))
	ctx := context.Background()

	require.Zero(t, ExitCode(o.BuildInstall(ctx, []string{"foo"}, ModeBoth)))
	before, err := os.Stat(filepath.Join(dir, exeName("foo")))
	require.NoError(t, err)

	outcomes := o.BuildInstall(ctx, []string{"foo"}, ModeBoth)
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeSkipped, outcomes[0].Kind)

	after, err := os.Stat(filepath.Join(dir, exeName("foo")))
	require.NoError(t, err)
	assert.True(t, after.ModTime().Equal(before.ModTime()), "skip leaves mtimes alone")
	assert.Len(t, cargoInvocations(t, root), 1, "cargo ran only once")
}

func TestBuildInstall_touchedSourceRebuilds(t *testing.T) {
	root := fixtureWorkspace(t)
	o, _, dir := newTestOrchestrator(t, root, fakeCargo(t, cargoOK))
	ctx := context.Background()

	require.Zero(t, ExitCode(o.BuildInstall(ctx, []string{"foo"}, ModeBoth)))
	before, err := os.Stat(filepath.Join(dir, exeName("foo")))
	require.NoError(t, err)

	// Touch a source file past the installed binaries.
	src := filepath.Join(root, "crates", "foo", "src", "main.rs")
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(src, future, future))

	outcomes := o.BuildInstall(ctx, []string{"foo"}, ModeBoth)
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeInstalled, outcomes[0].Kind)

	after, err := os.Stat(filepath.Join(dir, exeName("foo")))
	require.NoError(t, err)
	assert.True(t, after.ModTime().After(before.ModTime()))
}

func TestBuildInstall_prefixedModePreservesPlainFile(t *testing.T) {
	root := fixtureWorkspace(t)
	o, _, dir := newTestOrchestrator(t, root, fakeCargo(t, cargoOK))

	require.NoError(t, os.MkdirAll(dir, 0o755))
	plain := filepath.Join(dir, exeName("foo"))
	writeFile(t, plain, "pre-existing contents")

	outcomes := o.BuildInstall(context.Background(), []string{"foo"}, ModePrefixed)
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeInstalled, outcomes[0].Kind)

	data, err := os.ReadFile(plain)
	require.NoError(t, err)
	assert.Equal(t, "pre-existing contents", string(data))
	assert.FileExists(t, filepath.Join(dir, exeName("tools-foo")))
}

func TestUninstall_removesBothVariantsAndBrokenSymlink(t *testing.T) {
	root := fixtureWorkspace(t)
	o, _, dir := newTestOrchestrator(t, root, fakeCargo(t, cargoOK))

	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone"), filepath.Join(dir, exeName("foo"))))
	writeFile(t, filepath.Join(dir, exeName("tools-foo")), "bin")

	outcomes := o.Uninstall([]string{"foo"})
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeUninstalled, outcomes[0].Kind)
	assert.Equal(t, "2 removed", outcomes[0].Detail)

	_, err := os.Lstat(filepath.Join(dir, exeName("foo")))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Lstat(filepath.Join(dir, exeName("tools-foo")))
	assert.True(t, os.IsNotExist(err))
}

func TestClean_dirOnlyLeavesInstallDirUntouched(t *testing.T) {
	root := fixtureWorkspace(t)
	o, _, dir := newTestOrchestrator(t, root, fakeCargo(t, cargoOK))
	ctx := context.Background()

	require.Zero(t, ExitCode(o.BuildInstall(ctx, []string{"foo"}, ModeBoth)))
	before, err := os.Stat(filepath.Join(dir, exeName("foo")))
	require.NoError(t, err)
	require.DirExists(t, filepath.Join(root, "target"))

	outcomes := o.Clean(ctx, []string{"foo"}, TargetDir)
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeCleaned, outcomes[0].Kind)

	assert.NoDirExists(t, filepath.Join(root, "target"))
	after, err := os.Stat(filepath.Join(dir, exeName("foo")))
	require.NoError(t, err)
	assert.True(t, after.ModTime().Equal(before.ModTime()))
	assert.FileExists(t, filepath.Join(dir, exeName("tools-foo")))
}

func TestClean_allRemovesDirAndBinaries(t *testing.T) {
	root := fixtureWorkspace(t)
	o, _, dir := newTestOrchestrator(t, root, fakeCargo(t, cargoOK))
	ctx := context.Background()

	require.Zero(t, ExitCode(o.BuildInstall(ctx, []string{"foo"}, ModeBoth)))

	outcomes := o.Clean(ctx, []string{"foo"}, TargetAll)
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeCleaned, outcomes[0].Kind)
	assert.Equal(t, "2 removed", outcomes[0].Detail)

	assert.NoDirExists(t, filepath.Join(root, "target"))
	assert.NoFileExists(t, filepath.Join(dir, exeName("foo")))
}

func TestClean_emptySelectionRunsWorkspaceWide(t *testing.T) {
	root := fixtureWorkspace(t)
	o, _, _ := newTestOrchestrator(t, root, fakeCargo(t, cargoOK))

	writeFile(t, filepath.Join(root, "target", "release", "junk"), "j")
	o.Clean(context.Background(), nil, TargetDir)

	invocations := cargoInvocations(t, root)
	require.Len(t, invocations, 1)
	assert.Equal(t, "clean", invocations[0], "one workspace-wide clean, no per-crate manifests")
}

func TestBuild_forceBypassesStaleness(t *testing.T) {
	root := fixtureWorkspace(t)
	o, _, _ := newTestOrchestrator(t, root, fakeCargo(t, cargoOK))
	ctx := context.Background()

	require.Zero(t, ExitCode(o.BuildInstall(ctx, []string{"foo"}, ModeBoth)))
	require.Len(t, cargoInvocations(t, root), 1)

	o.cfg.Force = true
	outcomes := o.BuildInstall(ctx, []string{"foo"}, ModeBoth)
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeInstalled, outcomes[0].Kind)
	assert.Len(t, cargoInvocations(t, root), 2, "force rebuilt an up-to-date crate")
}

func TestBuild_withoutInstallStopsAtBuilt(t *testing.T) {
	root := fixtureWorkspace(t)
	o, _, dir := newTestOrchestrator(t, root, fakeCargo(t, cargoOK))

	outcomes := o.Build(context.Background(), []string{"foo"})
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeBuilt, outcomes[0].Kind)
	assert.NoFileExists(t, filepath.Join(dir, exeName("foo")))
}

func TestInstall_missingArtifactFails(t *testing.T) {
	root := fixtureWorkspace(t)
	o, _, _ := newTestOrchestrator(t, root, fakeCargo(t, cargoOK))

	outcomes := o.Install(context.Background(), []string{"foo"}, ModeBoth)
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeFailed, outcomes[0].Kind)
	assert.Contains(t, outcomes[0].Detail, "missing artifact")
	assert.Equal(t, 1, ExitCode(outcomes))
}

func TestBuild_failureIsPerCrate(t *testing.T) {
	root := fixtureWorkspace(t)
	o, _, _ := newTestOrchestrator(t, root, fakeCargo(t, cargoFail))

	outcomes := o.Build(context.Background(), []string{"foo"})
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeFailed, outcomes[0].Kind)
	assert.Contains(t, outcomes[0].Detail, "exit code 3")
	assert.Equal(t, 1, ExitCode(outcomes))
}

func TestSelection_libraryCratesNeverBuild(t *testing.T) {
	root := fixtureWorkspace(t)
	o, _, _ := newTestOrchestrator(t, root, fakeCargo(t, cargoOK))
	ctx := context.Background()

	// Empty selection: only the binary crate shows up.
	outcomes := o.BuildInstall(ctx, nil, ModeBoth)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "foo", outcomes[0].Crate)

	// Naming the library explicitly filters it silently.
	outcomes = o.BuildInstall(ctx, []string{"bar"}, ModeBoth)
	assert.Empty(t, outcomes)
	assert.Zero(t, ExitCode(outcomes))
}

func TestSelection_unknownCrateIsNotFound(t *testing.T) {
	root := fixtureWorkspace(t)
	o, _, _ := newTestOrchestrator(t, root, fakeCargo(t, cargoOK))

	outcomes := o.BuildInstall(context.Background(), []string{"nope", "foo"}, ModeBoth)
	require.Len(t, outcomes, 2)
	assert.Equal(t, OutcomeNotFound, outcomes[0].Kind)
	assert.Equal(t, "nope", outcomes[0].Crate)
	assert.Equal(t, OutcomeInstalled, outcomes[1].Kind, "siblings continue past a NotFound")
	assert.Equal(t, 1, ExitCode(outcomes))
}

func TestExitCode_derivation(t *testing.T) {
	assert.Zero(t, ExitCode(nil))
	assert.Zero(t, ExitCode([]Outcome{
		{Kind: OutcomeInstalled},
		{Kind: OutcomeSkipped},
		{Kind: OutcomeCleaned},
	}))
	assert.Equal(t, 1, ExitCode([]Outcome{
		{Kind: OutcomeInstalled},
		{Kind: OutcomeFailed},
	}))
	assert.Equal(t, 1, ExitCode([]Outcome{{Kind: OutcomeNotFound}}))
}

func TestOutcomeKind_strings(t *testing.T) {
	assert.Equal(t, "skipped", OutcomeSkipped.String())
	assert.Equal(t, "installed", OutcomeInstalled.String())
	assert.Equal(t, "not found", OutcomeNotFound.String())
	assert.True(t, Outcome{Kind: OutcomeNotFound}.Failed())
	assert.False(t, Outcome{Kind: OutcomeBuilt}.Failed())
}

func TestOrchestrator_noHomeIsFatal(t *testing.T) {
	root := fixtureWorkspace(t)
	ws, err := DiscoverWorkspace(root)
	require.NoError(t, err)

	_, err = NewOrchestrator(&Config{}, ws, &captureLogger{})
	assert.ErrorIs(t, err, errNoHome)
}
