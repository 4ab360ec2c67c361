package ccutils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// Critical-phase guard: while an install copy is in flight, a first
// interrupt warns instead of tearing the process down mid-write.
var isCriticalAtomic atomic.Int32

func enterCritical() { isCriticalAtomic.Store(1) }
func leaveCritical() { isCriticalAtomic.Store(0) }

type app struct {
	ctx      context.Context
	startDir string
}

// Main is the CLI entrypoint. It returns the process exit code: 0 when
// every outcome succeeded or was skipped, 1 when any crate failed, 2 when
// the invocation itself was malformed (unknown flag, no workspace, no
// home directory).
func Main() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go handleSignals(ctx, cancel, sigs)

	err := NewRootCmd(ctx).Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errFailedOutcomes):
		// per-crate lines were already printed
		return 1
	default:
		colArrow.Print("-> ")
		colError.Println(err.Error())
		return 2
	}
}

// handleSignals cancels the context on the first interrupt and forces an
// exit on the second. During a critical phase the first interrupt only
// warns; cancellation reaches a running cargo through the exec context.
func handleSignals(ctx context.Context, cancel context.CancelFunc, sigs <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			if isCriticalAtomic.Load() == 1 {
				colArrow.Print("\n-> ")
				colError.Println("Install in progress. Press Ctrl+C again to force exit.")
				select {
				case <-sigs:
					os.Exit(130)
				case <-time.After(5 * time.Second):
				case <-ctx.Done():
					return
				}
				continue
			}
			colArrow.Print("\n-> ")
			colWarn.Printf("Received %v, cancelling\n", sig)
			cancel()
			select {
			case <-sigs:
			case <-time.After(2 * time.Second):
			}
			os.Exit(130)
		}
	}
}

// NewRootCmd builds the command tree. Running with no subcommand lists
// the workspace, in detailed form when the terminal is wide enough.
func NewRootCmd(ctx context.Context) *cobra.Command {
	a := &app{ctx: ctx}

	cmd := &cobra.Command{
		Use:           "ccutils",
		Short:         "Build and install the binary crates of a Cargo workspace",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := ListOptions{Detailed: terminalWidth() >= detailedWidth}
			return a.runList(cmd, opts)
		},
	}
	cmd.PersistentFlags().StringVarP(&a.startDir, "dir", "C", ".", "directory to discover the workspace from")

	cmd.AddCommand(
		a.buildCmd(),
		a.installCmd(),
		a.buildInstallCmd(),
		a.cleanCmd(),
		a.uninstallCmd(),
		a.listCmd(),
		a.versionCmd(),
	)
	return cmd
}

// setup loads the config, discovers the workspace and wires the
// orchestrator. Every mutating subcommand goes through here.
func (a *app) setup(force, verbose bool) (*Orchestrator, error) {
	cfg := LoadConfig()
	cfg.Force = force
	cfg.Verbose = verbose

	ws, err := DiscoverWorkspace(a.startDir)
	if err != nil {
		return nil, err
	}
	return NewOrchestrator(cfg, ws, NewLogger(verbose))
}

// finish prints the outcome table and folds it into the exit status.
func finish(outcomes []Outcome) error {
	PrintOutcomes(outcomes)
	if ExitCode(outcomes) != 0 {
		return errFailedOutcomes
	}
	return nil
}

func (a *app) buildCmd() *cobra.Command {
	var force, verbose bool
	cmd := &cobra.Command{
		Use:   "build [crates...]",
		Short: "Build stale binary crates in release mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := a.setup(force, verbose)
			if err != nil {
				return err
			}
			return finish(o.Build(a.ctx, args))
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "rebuild even when up to date")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	return cmd
}

func (a *app) installCmd() *cobra.Command {
	var modeFlag string
	cmd := &cobra.Command{
		Use:   "install [crates...]",
		Short: "Install prebuilt artifacts into the cargo bin directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := ParseInstallMode(modeFlag)
			if err != nil {
				return err
			}
			o, err := a.setup(false, false)
			if err != nil {
				return err
			}
			return finish(o.Install(a.ctx, args, mode))
		},
	}
	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "both", "naming variants to install: plain, prefixed or both")
	return cmd
}

func (a *app) buildInstallCmd() *cobra.Command {
	var force, verbose bool
	var modeFlag string
	cmd := &cobra.Command{
		Use:   "build-install [crates...]",
		Short: "Build stale binary crates and install the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := ParseInstallMode(modeFlag)
			if err != nil {
				return err
			}
			o, err := a.setup(force, verbose)
			if err != nil {
				return err
			}
			return finish(o.BuildInstall(a.ctx, args, mode))
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "rebuild even when up to date")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "both", "naming variants to install: plain, prefixed or both")
	return cmd
}

func (a *app) cleanCmd() *cobra.Command {
	var targetFlag string
	cmd := &cobra.Command{
		Use:   "clean [crates...]",
		Short: "Remove build outputs and/or installed binaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := ParseCleanTarget(targetFlag)
			if err != nil {
				return err
			}
			o, err := a.setup(false, false)
			if err != nil {
				return err
			}
			return finish(o.Clean(a.ctx, args, target))
		},
	}
	cmd.Flags().StringVarP(&targetFlag, "target", "t", "dir", "what to remove: dir, bin or all")
	return cmd
}

func (a *app) uninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall [crates...]",
		Short: "Remove both installed naming variants",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := a.setup(false, false)
			if err != nil {
				return err
			}
			return finish(o.Uninstall(args))
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	var opts ListOptions
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List workspace members",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd, opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.Detailed, "detailed", "d", false, "include install state and staleness columns")
	cmd.Flags().BoolVar(&opts.BinsOnly, "bins-only", false, "only members with a binary target")
	cmd.Flags().BoolVar(&opts.LibsOnly, "libs-only", false, "only members with a library target")
	return cmd
}

func (a *app) runList(cmd *cobra.Command, opts ListOptions) error {
	cfg := LoadConfig()
	ws, err := DiscoverWorkspace(a.startDir)
	if err != nil {
		return err
	}
	cPrintf(colInfo, "Workspace %s (%s)\n", ws.ShortName, ws.Root)
	return RenderList(cmd.OutOrStdout(), cfg, ws, opts)
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ccutils %s (built %s)\n", version, buildDate)
		},
	}
}
