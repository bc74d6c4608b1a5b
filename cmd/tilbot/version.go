package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/tilbot"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tilbot",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tilbot version %s\n", strings.TrimSpace(tilbot.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
