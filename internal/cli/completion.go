package cli

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/gridlookout/pkg/io"
	"github.com/matzehuels/gridlookout/pkg/pipeline"
)

// schemaExtensions are offered when completing a schema or registry path.
var schemaExtensions = []string{"yaml", "yml", "json", "toml"}

// completionCommand creates the completion command. Besides subcommands and
// flags, the generated scripts complete schema files, layer and cell names
// read from the schema on the command line, and render formats.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for gridlookout.

Completion covers schema files (.yaml, .yml, .json, .toml), the layer and
cell names of the schema being edited, and render formats:

  $ gridlookout update cell page.yaml --layer <TAB>
  MainLayer  Overlay
  $ gridlookout render page.yaml -f <TAB>
  html  json  pdf  png  svg

Bash:
  $ source <(gridlookout completion bash)
  $ gridlookout completion bash > /etc/bash_completion.d/gridlookout

Zsh (compinit must be enabled):
  $ gridlookout completion zsh > "${fpath[1]}/_gridlookout"

Fish:
  $ gridlookout completion fish > ~/.config/fish/completions/gridlookout.fish

PowerShell:
  PS> gridlookout completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// registerCompletions installs argument and flag completion on every command
// below root that takes a schema file.
func registerCompletions(root *cobra.Command) {
	walkCommands(root, func(cmd *cobra.Command) {
		if strings.HasSuffix(cmd.Use, "[file]") && cmd.ValidArgsFunction == nil {
			cmd.ValidArgsFunction = completeSchemaFile
		}
		flags := map[string]func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective){
			"layer":   completeLayers,
			"layers":  completeLayers,
			"cell":    completeCells,
			"format":  completeFormats,
			"content": completeRegistryFile,
		}
		for name, fn := range flags {
			if cmd.Flags().Lookup(name) != nil {
				_ = cmd.RegisterFlagCompletionFunc(name, fn)
			}
		}
	})
}

func walkCommands(cmd *cobra.Command, fn func(*cobra.Command)) {
	fn(cmd)
	for _, sub := range cmd.Commands() {
		walkCommands(sub, fn)
	}
}

func completeSchemaFile(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return schemaExtensions, cobra.ShellCompDirectiveFilterFileExt
}

func completeRegistryFile(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return schemaExtensions, cobra.ShellCompDirectiveFilterFileExt
}

// completeLayers lists the layers of the schema named by the first argument.
// A comma-separated value completes its last item.
func completeLayers(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	s, err := pkgio.ImportSchema(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	prefix := ""
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
	}
	var out []string
	for _, name := range s.LayerNames() {
		out = append(out, prefix+name)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeCells lists the cells of the layer given with --layer.
func completeCells(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	layer, _ := cmd.Flags().GetString("layer")
	s, err := pkgio.ImportSchema(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	l, ok := s.Layer(layer)
	if !ok {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return l.CellNames(), cobra.ShellCompDirectiveNoFileComp
}

func completeFormats(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for f := range pipeline.ValidFormats {
		out = append(out, f)
	}
	slices.Sort(out)
	return out, cobra.ShellCompDirectiveNoFileComp
}
