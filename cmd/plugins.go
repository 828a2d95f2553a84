package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewPluginsCommand returns the command listing linear solver plugins.
func NewPluginsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins [NAME...]",
		Short: "List linear solver plugins",
		Long: `List the registered linear solver plugins with their documentation. Named
plugins that are not built in are loaded from the plugin path first.`,
		RunE: runPlugins,
	}
}

func runPlugins(cmd *cobra.Command, args []string) error {
	env, err := newEnvironment()
	if err != nil {
		return err
	}
	for _, name := range args {
		if _, err := env.registry.Get(name); err != nil {
			return err
		}
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, name := range env.registry.Names() {
		doc, err := env.registry.Doc(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\n", name, doc)
	}
	return w.Flush()
}
