package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	glerr "github.com/matzehuels/gridlookout/pkg/errors"
	pkgio "github.com/matzehuels/gridlookout/pkg/io"
	"github.com/matzehuels/gridlookout/pkg/layout"
)

// errLintFailed is returned when lint found problems it already printed.
var errLintFailed = errors.New("lint failed")

// lintCommand creates the lint command.
func (c *CLI) lintCommand() *cobra.Command {
	var flags resolveFlags
	var strict bool

	cmd := &cobra.Command{
		Use:   "lint [file]",
		Short: "Check a schema for errors and authoring hazards",
		Long: `Lint reports every validation error in a schema, not just the first,
together with advisory findings that resolution accepts: overlapping cells,
zero-area cells and cells without content.

Lint fails when the schema is invalid, or with --strict when there are findings.`,
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

			verr := layout.ValidateWith(s, o.ResolveOptions()...)
			issues := glerr.Flatten(verr)
			if verr != nil && len(issues) == 0 {
				return verr
			}
			findings := layout.Lint(s)

			for _, e := range issues {
				printError("%s", formatIssue(e))
			}
			for _, f := range findings {
				printWarning("%s: %s", f.Kind, f.Message)
			}

			switch {
			case len(issues) > 0:
				printDetail("%d errors, %d findings", len(issues), len(findings))
				return errLintFailed
			case strict && len(findings) > 0:
				printDetail("%d findings", len(findings))
				return errLintFailed
			case len(findings) > 0:
				printSuccess("%s is valid (%d findings)", args[0], len(findings))
			default:
				printSuccess("%s is valid", args[0])
			}
			return nil
		},
	}

	flags.registerUnits(cmd)
	cmd.Flags().BoolVar(&strict, "strict", false, "treat findings as errors")

	return cmd
}

// formatIssue renders a validation error as "CODE at location: message".
func formatIssue(e *glerr.Error) string {
	var b strings.Builder
	b.WriteString(StyleError.Render(string(e.Code)))
	if loc := e.Location(); loc != "" {
		fmt.Fprintf(&b, " at %s", loc)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}
