package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fieldsim/app/plugins"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List the module types accepted in the configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		catalog := plugins.Catalog()
		for _, k := range plugins.Kinds {
			fmt.Fprintf(cmd.OutOrStdout(), "%-17s %s\n", k, strings.Join(catalog[k], ", "))
		}
	},
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
}
