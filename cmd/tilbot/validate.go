package main

import (
	"fmt"

	"github.com/aretw0/tilbot/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [project]",
	Short: "Check the project for errors and suspicious constructs",
	Long:  `Loads the project, reports every structural error, then lists lint warnings such as unreachable blocks.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		warnings, err := cli.Validate(cfg.Project)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		out := cmd.OutOrStdout()
		for _, w := range warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
		strict, _ := cmd.Flags().GetBool("strict")
		if strict && len(warnings) > 0 {
			return fmt.Errorf("%d warning(s)", len(warnings))
		}
		fmt.Fprintln(out, "Project is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Treat warnings as errors")
}
