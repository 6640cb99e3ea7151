package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	glerr "github.com/matzehuels/gridlookout/pkg/errors"
	pkgio "github.com/matzehuels/gridlookout/pkg/io"
	"github.com/matzehuels/gridlookout/pkg/layout"
	"github.com/matzehuels/gridlookout/pkg/render/sink"
	"github.com/matzehuels/gridlookout/pkg/schema"
	"github.com/matzehuels/gridlookout/pkg/store"
)

const (
	defaultStep = 10.0
	minStep     = 1.0
	maxStep     = 1000.0

	// chromeRows is the number of terminal rows used around the grid.
	chromeRows = 6
)

var (
	tabStyle         = lipgloss.NewStyle().Foreground(colorGray).Padding(0, 1)
	tabSelectedStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true).Padding(0, 1).Underline(true)
	helpStyle        = lipgloss.NewStyle().Foreground(colorDim)
)

// previewCommand creates the interactive preview command.
func (c *CLI) previewCommand() *cobra.Command {
	var flags resolveFlags
	var step float64

	cmd := &cobra.Command{
		Use:   "preview [file]",
		Short: "Resize layers interactively in the terminal",
		Long: `Preview draws the resolved schema in the terminal. Arrow keys change the
selected layer's viewport and the layout is resolved again on every key.

When a change makes the schema invalid the error is shown and the last
valid layout stays on screen. Press w to write the current schema back to
the file, r to reload it from disk.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := c.baseOptions()
			flags.apply(cmd, &o)
			if err := o.ValidateForResolve(); err != nil {
				return err
			}

			s, err := pkgio.ImportSchema(args[0])
			if err != nil {
				return err
			}

			guard := store.NewGuard(store.NewMemoryStore(), nil, o.ResolveOptions()...)
			m := newPreviewModel(cmd.Context(), guard, args[0], s, step)
			if len(m.layers) == 0 {
				return fmt.Errorf("%s has no layers", args[0])
			}

			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			final, err := p.Run()
			if err != nil {
				return err
			}
			if fm, ok := final.(previewModel); ok && fm.saved != "" {
				printSuccess("Saved %s", fm.saved)
			}
			return nil
		},
	}

	flags.registerUnits(cmd)
	cmd.Flags().Float64Var(&step, "step", defaultStep, "viewport change per key press")

	return cmd
}

// =============================================================================
// previewModel - Interactive viewport resizing
// =============================================================================

// previewModel is the bubbletea model behind the preview command.
type previewModel struct {
	ctx   context.Context
	guard *store.Guard
	path  string

	schema   *schema.Schema // current candidate, possibly invalid
	layout   layout.Layout  // last valid layout
	layers   []string
	selected int
	step     float64

	cols, rows int
	err        error
	fellBack   bool
	saved      string
}

func newPreviewModel(ctx context.Context, guard *store.Guard, path string, s *schema.Schema, step float64) previewModel {
	if step <= 0 {
		step = defaultStep
	}
	m := previewModel{
		ctx:    ctx,
		guard:  guard,
		path:   path,
		schema: s,
		layers: s.LayerNames(),
		step:   step,
		cols:   80,
		rows:   24,
	}
	return m.commit()
}

// resolve checks the candidate schema against the guard without saving it.
// A failing candidate shows the last committed layout.
func (m previewModel) resolve() previewModel {
	res, err := m.guard.Check(m.ctx, m.path, m.schema)
	return m.show(res, err)
}

// commit resolves the candidate and, when it is valid, saves it as the
// snapshot later candidates fall back to.
func (m previewModel) commit() previewModel {
	res, err := m.guard.Resolve(m.ctx, m.path, m.schema)
	return m.show(res, err)
}

func (m previewModel) show(res store.GuardResult, err error) previewModel {
	m.err = err
	m.fellBack = res.FellBack
	if err == nil || res.FellBack {
		m.layout = res.Layout
	}
	return m
}

func (m previewModel) Init() tea.Cmd {
	return nil
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols, m.rows = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.selected = (m.selected + 1) % len(m.layers)
		case "shift+tab":
			m.selected = (m.selected + len(m.layers) - 1) % len(m.layers)
		case "right", "l":
			return m.resize(m.step, 0), nil
		case "left", "h":
			return m.resize(-m.step, 0), nil
		case "down", "j":
			return m.resize(0, m.step), nil
		case "up", "k":
			return m.resize(0, -m.step), nil
		case "+", "=":
			m.step = min(m.step*2, maxStep)
		case "-":
			m.step = max(m.step/2, minStep)
		case "r":
			return m.reload(), nil
		case "w":
			return m.write(), nil
		}
	}
	return m, nil
}

// resize changes the selected layer's viewport by (dw, dh), clamped at zero.
func (m previewModel) resize(dw, dh float64) previewModel {
	name := m.layers[m.selected]
	l, ok := m.schema.Layer(name)
	if !ok {
		return m
	}
	vp := schema.Viewport{
		Width:  max(l.Viewport.Width+dw, 0),
		Height: max(l.Viewport.Height+dh, 0),
	}
	next, err := m.schema.WithViewport(name, vp)
	if err != nil {
		m.err = err
		return m
	}
	m.schema = next
	m.saved = ""
	return m.resolve()
}

// reload replaces the candidate with the file on disk.
func (m previewModel) reload() previewModel {
	s, err := pkgio.ImportSchema(m.path)
	if err != nil {
		m.err = err
		return m
	}
	layers := s.LayerNames()
	if len(layers) == 0 {
		m.err = glerr.New(glerr.ErrCodeSchemaStructure, "schema has no layers")
		return m
	}
	m.schema, m.layers = s, layers
	if m.selected >= len(m.layers) {
		m.selected = 0
	}
	return m.commit()
}

// write saves the candidate back to the file if it is valid and commits it.
func (m previewModel) write() previewModel {
	if m.err != nil {
		return m
	}
	if err := pkgio.ExportSchema(m.schema, m.path); err != nil {
		m.err = err
		return m
	}
	m = m.commit()
	if m.err == nil {
		m.saved = m.path
	}
	return m
}

func (m previewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("gridlookout preview"))
	b.WriteString(" ")
	b.WriteString(StyleDim.Render(m.path))
	b.WriteString("\n")

	tabs := make([]string, len(m.layers))
	for i, name := range m.layers {
		if i == m.selected {
			tabs[i] = tabSelectedStyle.Render(name)
		} else {
			tabs[i] = tabStyle.Render(name)
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n")

	if l, ok := m.schema.Layer(m.layers[m.selected]); ok {
		b.WriteString(StyleDim.Render(fmt.Sprintf("viewport %s × %s · step %s",
			formatNum(l.Viewport.Width), formatNum(l.Viewport.Height), formatNum(m.step))))
	}
	b.WriteString("\n")

	b.WriteString(sink.RenderTerminal(m.layout,
		sink.WithFocus(m.layers[m.selected]),
		sink.WithTerminalSize(m.cols, max(m.rows-chromeRows, 2))))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		msg := errorSummary(m.err)
		if m.fellBack {
			msg += " (showing last valid layout)"
		}
		b.WriteString(styleIconError.Render(iconError) + " " + StyleError.Render(msg))
	case m.saved != "":
		b.WriteString(styleIconSuccess.Render(iconSuccess) + " saved " + m.saved)
	default:
		b.WriteString(StyleDim.Render(fmt.Sprintf("%d layers · %d cells", len(m.layout.Layers), m.layout.CellCount())))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab: layer  arrows: resize  +/-: step  r: reload  w: write  q: quit"))

	return b.String()
}

// errorSummary shortens err to one line: the first issue of a validation
// list plus a count of the rest.
func errorSummary(err error) string {
	issues := glerr.Flatten(err)
	switch len(issues) {
	case 0:
		msg := err.Error()
		if i := strings.IndexByte(msg, '\n'); i >= 0 {
			msg = msg[:i]
		}
		return msg
	case 1:
		return issues[0].Error()
	default:
		return fmt.Sprintf("%s (+%d more)", issues[0].Error(), len(issues)-1)
	}
}
