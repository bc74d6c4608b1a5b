package main

import (
	"fmt"

	"github.com/aretw0/tilbot/internal/cli"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Copy a CSV table into the sqlite or redis data store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			return err
		}
		table, _ := cmd.Flags().GetString("table")
		n, err := cli.ImportCSV(cmd.Context(), cfg, args[0], table)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d row(s)\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringP("table", "t", "", "Table name (defaults to the file name)")
}
