package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	glerr "github.com/matzehuels/gridlookout/pkg/errors"
	pkgio "github.com/matzehuels/gridlookout/pkg/io"
	"github.com/matzehuels/gridlookout/pkg/layout"
	"github.com/matzehuels/gridlookout/pkg/pipeline"
	"github.com/matzehuels/gridlookout/pkg/render"
	"github.com/matzehuels/gridlookout/pkg/render/sink"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	resolveFlags
	output   string   // output file (single format) or base path (multiple)
	formats  []string // output formats: svg, html, json, png, pdf
	content  string   // content registry file
	layers   []string // layers to draw; all when empty
	outlines bool     // outline every cell
	title    string   // document title
	scale    float64  // PNG scale factor
	resolved bool     // input is layout JSON from resolve, not a schema
}

// renderCommand creates the render command for generating artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr, layersStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a schema to SVG, HTML, JSON, PNG or PDF",
		Long: `Render resolves a layout schema and draws every layer into the requested
formats. Cell content references are looked up in the --content registry;
unknown references are drawn as placeholders and reported as warnings.

PNG and PDF output require rsvg-convert (librsvg) on PATH.`,
		Example: `  gridlookout render page.yaml
  gridlookout render page.yaml -f svg,html --content content.yaml
  gridlookout render page.layout.json --resolved -f png --scale 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			opts.layers = splitList(layersStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}

			o := c.baseOptions()
			opts.apply(cmd, &o)
			o.Formats = opts.formats
			o.Layers = opts.layers
			o.Title = opts.title
			if cmd.Flags().Changed("content") {
				o.ContentPath = opts.content
			}
			if cmd.Flags().Changed("outlines") {
				o.Outlines = opts.outlines
			}
			if cmd.Flags().Changed("scale") {
				o.Scale = opts.scale
			}
			return c.runRender(cmd.Context(), args[0], o, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), html, json, png, pdf (comma-separated)")
	cmd.Flags().StringVar(&opts.content, "content", "", "content registry file (YAML, JSON or TOML)")
	cmd.Flags().StringVar(&layersStr, "layers", "", "only draw these layers (comma-separated)")
	cmd.Flags().BoolVar(&opts.outlines, "outlines", false, "outline every cell")
	cmd.Flags().StringVar(&opts.title, "title", "", "document title")
	cmd.Flags().Float64Var(&opts.scale, "scale", pipeline.DefaultScale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.resolved, "resolved", false, "input is a resolved layout JSON file")

	return cmd
}

// runRender renders input to every requested format and writes one file per format.
func (c *CLI) runRender(ctx context.Context, input string, o pipeline.Options, opts renderOpts) error {
	if needsConverter(o.Formats) && !render.ConverterAvailable() {
		return glerr.New(glerr.ErrCodeUnsupported, "png and pdf output require %s on PATH", render.ConverterBinary)
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	var spinner *Spinner
	if needsConverter(o.Formats) {
		spinner = newSpinnerWithContext(ctx, "Rendering "+strings.Join(o.Formats, ", ")+"...")
		spinner.Start()
		defer spinner.Stop()
	}

	var (
		l         layout.Layout
		artifacts map[string][]byte
		warnings  []sink.Warning
		cached    bool
	)
	if opts.resolved {
		if l, err = pkgio.ReadLayoutFile(input); err != nil {
			return err
		}
		if err := pipeline.PrepareContent(&o); err != nil {
			return err
		}
		if artifacts, cached, err = runner.RenderWithCacheInfo(ctx, l, o); err != nil {
			return err
		}
		warnings = pipeline.MissingContent(l, o)
	} else {
		o.SchemaPath = input
		result, err := runner.Execute(ctx, o)
		if err != nil {
			return err
		}
		l, artifacts, warnings = result.Layout, result.Artifacts, result.Warnings
		cached = result.CacheInfo.ResolveHit && result.CacheInfo.RenderHit
	}

	paths := outputPaths(opts.output, input, o.Formats)
	if spinner != nil {
		spinner.SetMessage("Writing " + strings.Join(o.Formats, ", ") + " files...")
	}
	for _, format := range o.Formats {
		if err := os.WriteFile(paths[format], artifacts[format], 0644); err != nil {
			return fmt.Errorf("write %s: %w", format, err)
		}
	}
	if spinner != nil {
		spinner.Stop()
	}

	printSuccess("Rendered %s", input)
	printStats(len(l.Layers), l.CellCount(), cached)
	for _, format := range o.Formats {
		printFile(paths[format])
	}
	for _, w := range warnings {
		printWarning("content %q of %s/%s not found", w.Ref, w.Layer, w.Cell)
	}
	return nil
}

func needsConverter(formats []string) bool {
	for _, f := range formats {
		if f == pipeline.FormatPNG || f == pipeline.FormatPDF {
			return true
		}
	}
	return false
}

// outputPaths maps each format to its output file. A single format written
// to an explicit output file keeps that name; otherwise each format gets the
// base path plus its extension. A path that would overwrite the input gets
// an ".out" infix.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" && filepath.Ext(output) != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		p := base + "." + f
		if filepath.Clean(p) == filepath.Clean(input) {
			p = base + ".out." + f
		}
		paths[f] = p
	}
	return paths
}
