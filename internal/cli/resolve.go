package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/gridlookout/pkg/io"
	"github.com/matzehuels/gridlookout/pkg/layout"
	"github.com/matzehuels/gridlookout/pkg/pipeline"
)

// resolveFlags holds the flags shared by every command that resolves a schema.
// Config values apply unless a flag is set explicitly.
type resolveFlags struct {
	percent   bool    // resolve into percentages of the viewport
	snap      bool    // round rectangles to whole units
	tolerance float64 // overflow tolerance for bounds checks
	noCache   bool    // bypass the cache entirely
	refresh   bool    // recompute and overwrite cached entries
}

func (f *resolveFlags) register(cmd *cobra.Command) {
	f.registerUnits(cmd)
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached results and recompute")
}

// registerUnits registers only the flags that shape rectangles.
func (f *resolveFlags) registerUnits(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.percent, "percent", false, "resolve into percentages of each viewport instead of viewport units")
	cmd.Flags().BoolVar(&f.snap, "snap", false, "round rectangles to whole pixels")
	cmd.Flags().Float64Var(&f.tolerance, "tolerance", pipeline.DefaultTolerance, "overflow tolerance for cell bounds")
}

// apply overrides the config defaults in o with explicitly set flags.
func (f *resolveFlags) apply(cmd *cobra.Command, o *pipeline.Options) {
	flags := cmd.Flags()
	if flags.Changed("percent") {
		o.Units = string(layout.UnitsViewport)
		if f.percent {
			o.Units = string(layout.UnitsPercent)
		}
	}
	if flags.Changed("snap") {
		o.PixelSnap = f.snap
	}
	if flags.Changed("tolerance") {
		eps := f.tolerance
		o.Tolerance = &eps
	}
	o.Refresh = f.refresh
}

// resolveOpts holds the command-line flags for the resolve command.
type resolveOpts struct {
	resolveFlags
	output string // layout JSON file; stdout when empty
	table  bool   // print the rectangles as a table
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var opts resolveOpts

	cmd := &cobra.Command{
		Use:   "resolve [file]",
		Short: "Resolve a schema into absolute rectangles",
		Long: `Resolve validates a layout schema (JSON, YAML or TOML) and maps every
cell's fractional position onto its layer's viewport.

The resolved layout is written as JSON to stdout, or to --output.`,
		Example: `  gridlookout resolve page.yaml
  gridlookout resolve page.yaml -o page.layout.json --table
  gridlookout resolve page.toml --percent --snap`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := c.baseOptions()
			opts.apply(cmd, &o)
			return c.runResolve(cmd.Context(), cmd.OutOrStdout(), args[0], o, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.table, "table", false, "print the resolved rectangles as a table")

	return cmd
}

// runResolve reads input, resolves it and writes the layout JSON.
func (c *CLI) runResolve(ctx context.Context, w io.Writer, input string, o pipeline.Options, opts resolveOpts) error {
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	s, err := pkgio.ImportSchema(input)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	l, hit, err := runner.ResolveWithCacheInfo(ctx, s, o)
	if err != nil {
		return err
	}
	prog.done("Resolved "+input, "layers", len(l.Layers), "cells", l.CellCount(), "cached", hit)

	if opts.output == "" {
		data, err := pkgio.MarshalLayout(l)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("write layout: %w", err)
		}
		if opts.table {
			printRects(l)
		}
		return nil
	}

	if err := pkgio.WriteLayoutFile(l, opts.output); err != nil {
		return fmt.Errorf("write layout: %w", err)
	}
	printSuccess("Resolved %s", input)
	printStats(len(l.Layers), l.CellCount(), hit)
	printFile(opts.output)
	if opts.table {
		printRects(l)
	}
	printNextStep("Render it", "gridlookout render --resolved "+opts.output)
	return nil
}
