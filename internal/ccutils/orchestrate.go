package ccutils

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// OutcomeKind classifies a crate's terminal state for one invocation.
type OutcomeKind int

const (
	OutcomeSkipped OutcomeKind = iota
	OutcomeBuilt
	OutcomeInstalled
	OutcomeFailed
	OutcomeCleaned
	OutcomeUninstalled
	OutcomeNotFound
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeBuilt:
		return "built"
	case OutcomeInstalled:
		return "installed"
	case OutcomeFailed:
		return "failed"
	case OutcomeCleaned:
		return "cleaned"
	case OutcomeUninstalled:
		return "uninstalled"
	case OutcomeNotFound:
		return "not found"
	}
	return "unknown"
}

// Outcome is one crate's terminal result. Every crate in a selection
// yields exactly one.
type Outcome struct {
	Crate  string
	Kind   OutcomeKind
	Detail string // failure reason or removal count, may be empty
}

// Failed reports whether the outcome should fail the invocation.
func (o Outcome) Failed() bool {
	return o.Kind == OutcomeFailed || o.Kind == OutcomeNotFound
}

// ExitCode derives the aggregate process exit code from the outcomes.
func ExitCode(outcomes []Outcome) int {
	for _, o := range outcomes {
		if o.Failed() {
			return 1
		}
	}
	return 0
}

// PrintOutcomes renders one line per crate.
func PrintOutcomes(outcomes []Outcome) {
	for _, o := range outcomes {
		colArrow.Print("-> ")
		var p colorPrinter = colSuccess
		switch {
		case o.Failed():
			p = colError
		case o.Kind == OutcomeSkipped:
			p = colInfo
		}
		if o.Detail != "" {
			cPrintf(p, "%s: %s (%s)\n", o.Crate, o.Kind, o.Detail)
		} else {
			cPrintf(p, "%s: %s\n", o.Crate, o.Kind)
		}
	}
}

// Orchestrator fans one command out over the selected crates, strictly in
// manifest order, and collects per-crate outcomes. Per-crate failures
// never short-circuit sibling crates.
type Orchestrator struct {
	cfg        *Config
	ws         *Workspace
	log        Logger
	builder    *Builder
	installer  *Installer
	cleaner    *Cleaner
	installDir string
}

// NewOrchestrator wires the components around one workspace. Install-dir
// resolution happens here so every command fails fast on a missing home.
func NewOrchestrator(cfg *Config, ws *Workspace, log Logger) (*Orchestrator, error) {
	dir, err := cfg.InstallDir()
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		cfg:        cfg,
		ws:         ws,
		log:        log,
		builder:    NewBuilder(cfg, log),
		installer:  NewInstaller(dir, log),
		cleaner:    NewCleaner(cfg, dir, log),
		installDir: dir,
	}, nil
}

// resolve maps requested names to crates. An empty selection means every
// binary crate; members with unreadable manifests surface as NotFound.
// Named library-only crates are silently filtered; unknown names become
// NotFound outcomes without aborting the rest.
func (o *Orchestrator) resolve(names []string) ([]Crate, []Outcome) {
	if len(names) == 0 {
		var outcomes []Outcome
		for _, m := range o.ws.Missing {
			outcomes = append(outcomes, Outcome{Crate: m, Kind: OutcomeNotFound})
		}
		return o.ws.Binaries(), outcomes
	}
	var crates []Crate
	var outcomes []Outcome
	for _, name := range names {
		c, ok := o.ws.Find(name)
		if !ok {
			outcomes = append(outcomes, Outcome{Crate: name, Kind: OutcomeNotFound})
			continue
		}
		if !c.Kind.HasBinary() {
			o.log.Debugf("skipping library-only crate %s", name)
			continue
		}
		crates = append(crates, c)
	}
	return crates, outcomes
}

// Build compiles the stale crates in the selection without installing.
func (o *Orchestrator) Build(ctx context.Context, names []string) []Outcome {
	return o.run(ctx, names, ModeBoth, true, false)
}

// Install places prebuilt artifacts without building.
func (o *Orchestrator) Install(ctx context.Context, names []string, mode InstallMode) []Outcome {
	return o.run(ctx, names, mode, false, true)
}

// BuildInstall builds stale crates and installs the results.
func (o *Orchestrator) BuildInstall(ctx context.Context, names []string, mode InstallMode) []Outcome {
	return o.run(ctx, names, mode, true, true)
}

func (o *Orchestrator) run(ctx context.Context, names []string, mode InstallMode, build, install bool) []Outcome {
	crates, outcomes := o.resolve(names)
	for _, c := range crates {
		if ctx.Err() != nil {
			outcomes = append(outcomes, Outcome{Crate: c.Name, Kind: OutcomeFailed, Detail: "cancelled"})
			continue
		}
		outcomes = append(outcomes, o.runOne(ctx, c, mode, build, install))
	}
	return outcomes
}

// runOne drives one crate through the staleness -> build -> install
// machine and returns its terminal outcome.
func (o *Orchestrator) runOne(ctx context.Context, c Crate, mode InstallMode, build, install bool) Outcome {
	artifact := artifactPath(o.ws, c)

	if build {
		if !o.cfg.Force {
			stale, err := needsRebuild(o.installDir, o.ws, c, mode)
			if err != nil {
				return Outcome{Crate: c.Name, Kind: OutcomeFailed, Detail: err.Error()}
			}
			if !stale {
				return Outcome{Crate: c.Name, Kind: OutcomeSkipped, Detail: "up to date"}
			}
		}
		built, err := o.builder.Build(ctx, o.ws, c)
		if err != nil {
			return Outcome{Crate: c.Name, Kind: OutcomeFailed, Detail: err.Error()}
		}
		artifact = built
		if !install {
			return Outcome{Crate: c.Name, Kind: OutcomeBuilt}
		}
	}

	if _, err := os.Stat(artifact); err != nil {
		return Outcome{Crate: c.Name, Kind: OutcomeFailed, Detail: fmt.Sprintf("install: missing artifact %s", artifact)}
	}
	placed, err := o.installer.Install(o.ws, c, artifact, mode)
	if err != nil {
		detail := err.Error()
		if len(placed) > 0 {
			detail = fmt.Sprintf("partial install, %s placed: %v", variantList(placed), err)
		}
		return Outcome{Crate: c.Name, Kind: OutcomeFailed, Detail: detail}
	}
	return Outcome{Crate: c.Name, Kind: OutcomeInstalled}
}

// Clean removes build output and/or installed binaries per target. With
// an empty selection and a dir target, the workspace-wide clean runs once
// instead of per crate.
func (o *Orchestrator) Clean(ctx context.Context, names []string, target CleanTarget) []Outcome {
	crates, outcomes := o.resolve(names)
	workspaceWide := len(names) == 0

	if target.removesDir() && workspaceWide {
		if err := o.cleaner.CargoClean(ctx, o.ws, nil); err != nil {
			outcomes = append(outcomes, Outcome{Crate: o.ws.ShortName, Kind: OutcomeFailed, Detail: err.Error()})
			return outcomes
		}
	}

	for _, c := range crates {
		if target.removesDir() && !workspaceWide {
			if err := o.cleaner.CargoClean(ctx, o.ws, &c); err != nil {
				outcomes = append(outcomes, Outcome{Crate: c.Name, Kind: OutcomeFailed, Detail: err.Error()})
				continue
			}
		}
		out := Outcome{Crate: c.Name, Kind: OutcomeCleaned}
		if target.removesBin() {
			removed, err := o.cleaner.RemoveBinaries(o.ws, c)
			if err != nil {
				out = Outcome{Crate: c.Name, Kind: OutcomeFailed, Detail: err.Error()}
			} else {
				out.Detail = fmt.Sprintf("%d removed", removed)
			}
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// Uninstall removes both installed variants for each selected crate,
// regardless of any install mode, and reports removal counts.
func (o *Orchestrator) Uninstall(names []string) []Outcome {
	crates, outcomes := o.resolve(names)
	for _, c := range crates {
		removed, err := o.cleaner.RemoveBinaries(o.ws, c)
		if err != nil {
			outcomes = append(outcomes, Outcome{Crate: c.Name, Kind: OutcomeFailed, Detail: err.Error()})
			continue
		}
		outcomes = append(outcomes, Outcome{Crate: c.Name, Kind: OutcomeUninstalled, Detail: fmt.Sprintf("%d removed", removed)})
	}
	return outcomes
}

func variantList(vs []Variant) string {
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.String()
	}
	return strings.Join(names, ", ")
}
