package main

import (
	"fmt"

	"github.com/aretw0/tilbot/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [project]",
	Short: "Export the flow graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of the project. Groups are drawn as subgraphs.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		out, err := cli.Mermaid(cfg.Project)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
