package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/gridlookout/pkg/io"
	"github.com/matzehuels/gridlookout/pkg/layout"
	"github.com/matzehuels/gridlookout/pkg/schema"
)

// updateCommand creates the update command group. Every subcommand edits a
// schema file and writes it back only if the result still validates.
func (c *CLI) updateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Edit a viewport, cell or layer in a schema file",
		Long: `Update applies a single change to a schema file and writes it back, in the
file's own format, to the same path or to --output.

The updated schema is validated first; an invalid result is reported and
nothing is written.`,
	}

	cmd.AddCommand(c.updateViewportCommand())
	cmd.AddCommand(c.updateCellCommand())
	cmd.AddCommand(c.updateLayerCommand())

	return cmd
}

// updateViewportCommand creates the "update viewport" subcommand.
func (c *CLI) updateViewportCommand() *cobra.Command {
	var (
		layerName, output string
		all               bool
		vp                schema.Viewport
	)

	cmd := &cobra.Command{
		Use:   "viewport [file]",
		Short: "Replace a layer's viewport",
		Example: `  gridlookout update viewport page.yaml --layer main --width 1280 --height 720
  gridlookout update viewport page.yaml --all --width 390 --height 844`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && layerName == "" {
				return fmt.Errorf("either --layer or --all is required")
			}
			return c.applyUpdate(args[0], output, func(s *schema.Schema) (*schema.Schema, error) {
				if all {
					return s.Resize(vp), nil
				}
				return s.WithViewport(layerName, vp)
			})
		},
	}

	cmd.Flags().StringVar(&layerName, "layer", "", "layer to update")
	cmd.Flags().BoolVar(&all, "all", false, "apply the viewport to every layer")
	cmd.Flags().Float64Var(&vp.Width, "width", 0, "viewport width")
	cmd.Flags().Float64Var(&vp.Height, "height", 0, "viewport height")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of updating in place")
	cmd.MarkFlagRequired("width")
	cmd.MarkFlagRequired("height")
	cmd.MarkFlagsMutuallyExclusive("layer", "all")

	return cmd
}

// updateCellCommand creates the "update cell" subcommand.
func (c *CLI) updateCellCommand() *cobra.Command {
	var (
		layerName, cellName, output string
		remove                      bool
		startX, startY, w, h        float64
		contentRef                  string
	)

	cmd := &cobra.Command{
		Use:   "cell [file]",
		Short: "Change, add or remove a cell",
		Long: `Cell patches the given fields of an existing cell and keeps the others.
A cell that does not exist yet is added when all four of --start-x,
--start-y, --width and --height are given. --remove deletes the cell.`,
		Example: `  gridlookout update cell page.yaml --layer main --cell sidebar --width 0.25
  gridlookout update cell page.yaml --layer main --cell footer --start-x 0 --start-y 0.9 --width 1 --height 0.1 --content Footer
  gridlookout update cell page.yaml --layer main --cell footer --remove`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var p schema.CellPatch
			if flags.Changed("start-x") {
				p.StartX = &startX
			}
			if flags.Changed("start-y") {
				p.StartY = &startY
			}
			if flags.Changed("width") {
				p.Width = &w
			}
			if flags.Changed("height") {
				p.Height = &h
			}
			if flags.Changed("content") {
				p.Content = &contentRef
			}
			if !remove && p.IsEmpty() {
				return fmt.Errorf("nothing to update: set at least one of --start-x, --start-y, --width, --height, --content")
			}

			return c.applyUpdate(args[0], output, func(s *schema.Schema) (*schema.Schema, error) {
				if remove {
					return s.WithoutCell(layerName, cellName)
				}
				if l, ok := s.Layer(layerName); ok {
					if _, exists := l.Cell(cellName); !exists && isComplete(p) {
						return s.WithCell(layerName, &schema.Cell{
							Name:    cellName,
							StartX:  startX,
							StartY:  startY,
							Width:   w,
							Height:  h,
							Content: contentRef,
						})
					}
				}
				return s.PatchCell(layerName, cellName, p)
			})
		},
	}

	cmd.Flags().StringVar(&layerName, "layer", "", "layer containing the cell")
	cmd.Flags().StringVar(&cellName, "cell", "", "cell to update")
	cmd.Flags().Float64Var(&startX, "start-x", 0, "left edge as a fraction of the viewport width")
	cmd.Flags().Float64Var(&startY, "start-y", 0, "top edge as a fraction of the viewport height")
	cmd.Flags().Float64Var(&w, "width", 0, "width as a fraction of the viewport width")
	cmd.Flags().Float64Var(&h, "height", 0, "height as a fraction of the viewport height")
	cmd.Flags().StringVar(&contentRef, "content", "", "content reference")
	cmd.Flags().BoolVar(&remove, "remove", false, "remove the cell")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of updating in place")
	cmd.MarkFlagRequired("layer")
	cmd.MarkFlagRequired("cell")

	return cmd
}

func isComplete(p schema.CellPatch) bool {
	return p.StartX != nil && p.StartY != nil && p.Width != nil && p.Height != nil
}

// updateLayerCommand creates the "update layer" subcommand.
func (c *CLI) updateLayerCommand() *cobra.Command {
	var (
		layerName, output string
		remove            bool
		vp                schema.Viewport
	)

	cmd := &cobra.Command{
		Use:   "layer [file]",
		Short: "Add an empty layer on top, or remove a layer",
		Example: `  gridlookout update layer page.yaml --layer overlay --width 1280 --height 720
  gridlookout update layer page.yaml --layer overlay --remove`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !remove && !(cmd.Flags().Changed("width") && cmd.Flags().Changed("height")) {
				return fmt.Errorf("--width and --height are required to add a layer")
			}
			return c.applyUpdate(args[0], output, func(s *schema.Schema) (*schema.Schema, error) {
				if remove {
					return s.WithoutLayer(layerName)
				}
				if _, exists := s.Layer(layerName); exists {
					return nil, fmt.Errorf("layer %q already exists; use update viewport to change it", layerName)
				}
				return s.WithLayer(schema.NewLayer(layerName, vp))
			})
		},
	}

	cmd.Flags().StringVar(&layerName, "layer", "", "layer name")
	cmd.Flags().BoolVar(&remove, "remove", false, "remove the layer")
	cmd.Flags().Float64Var(&vp.Width, "width", 0, "viewport width of the new layer")
	cmd.Flags().Float64Var(&vp.Height, "height", 0, "viewport height of the new layer")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of updating in place")
	cmd.MarkFlagRequired("layer")

	return cmd
}

// applyUpdate reads input, applies fn, validates the result and writes it
// to output (or back to input).
func (c *CLI) applyUpdate(input, output string, fn func(*schema.Schema) (*schema.Schema, error)) error {
	s, err := pkgio.ImportSchema(input)
	if err != nil {
		return err
	}
	updated, err := fn(s)
	if err != nil {
		return err
	}
	if err := layout.Validate(updated); err != nil {
		return fmt.Errorf("update rejected, %s left unchanged: %w", input, err)
	}

	if output == "" {
		output = input
	}
	if err := pkgio.ExportSchema(updated, output); err != nil {
		return fmt.Errorf("write schema: %w", err)
	}
	c.Logger.Debug("schema updated", "input", input, "output", output)

	printSuccess("Updated %s", input)
	printDetail("%d layers · %d cells", len(updated.Layers), updated.CellCount())
	printFile(output)
	return nil
}
