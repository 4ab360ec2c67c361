package ccutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"
)

// detailedWidth is the terminal width at which the default command
// switches the listing to its detailed form.
const detailedWidth = 100

// ListOptions controls the workspace table.
type ListOptions struct {
	Detailed bool
	BinsOnly bool
	LibsOnly bool
}

// terminalWidth returns the current terminal width, or 0 when stdout is
// not a terminal.
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}

// RenderList prints the workspace table in manifest member order. The
// plain form lists name and kind; --detailed adds installed state, the
// present variants and whether the source tree is newer than the oldest
// installed binary. List never mutates the filesystem.
func RenderList(w io.Writer, cfg *Config, ws *Workspace, opts ListOptions) error {
	installDir, err := cfg.InstallDir()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	defer tw.Flush()

	if opts.Detailed {
		fmt.Fprintln(tw, "name\tkind\tinstalled\tvariants\tstale")
	} else {
		fmt.Fprintln(tw, "name\tkind")
	}

	for _, c := range ws.Crates {
		if opts.BinsOnly && !c.Kind.HasBinary() {
			continue
		}
		if opts.LibsOnly && c.Kind == KindBinary {
			continue
		}
		if !opts.Detailed {
			fmt.Fprintf(tw, "%s\t%s\n", c.Name, c.Kind)
			continue
		}

		var variants []string
		for _, v := range []Variant{VariantPlain, VariantPrefixed} {
			if _, err := os.Lstat(filepath.Join(installDir, installedName(ws, c, v))); err == nil {
				variants = append(variants, v.String())
			}
		}
		installed := "no"
		variantCol := "-"
		if len(variants) > 0 {
			installed = "yes"
			variantCol = strings.Join(variants, ",")
		}
		stale := "-"
		if c.Kind.HasBinary() && len(variants) > 0 {
			newer, err := sourceNewer(installDir, ws, c)
			if err != nil {
				return err
			}
			stale = "no"
			if newer {
				stale = "yes"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.Name, c.Kind, installed, variantCol, stale)
	}

	for _, m := range ws.Missing {
		if opts.Detailed {
			fmt.Fprintf(tw, "%s\tunreadable\t-\t-\t-\n", m)
		} else {
			fmt.Fprintf(tw, "%s\tunreadable\n", m)
		}
	}
	return nil
}
