package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tanpawarit/chative-support/agent/agents/specialist"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the specialist agents and the tools each can call",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, a := range specialist.Describe() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", a.Type, a.Name, a.Description)
			for _, c := range a.Capabilities {
				fmt.Fprintf(w, "\t- %s\t%s\n", c.Name, c.Description)
			}
		}
		return w.Flush()
	},
}
