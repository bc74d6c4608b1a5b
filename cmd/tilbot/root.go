package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/tilbot/internal/cli"
	"github.com/aretw0/tilbot/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tilbot",
	Short: "Tilbot runs block-graph chatbot conversations",
	Long: `Tilbot executes a conversation project: a graph of blocks joined by labeled
connectors. Run it locally in the terminal or serve many sessions over websockets.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringP("project", "p", "", "Project file (JSON or YAML)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("data", "", "Data driver: memory, csv, sqlite, redis")
}

// loadConfig reads the configuration and applies the persistent flags on top.
// A positional argument names the project when --project is not given.
func loadConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if cmd.Flags().Changed("project") {
		cfg.Project, _ = cmd.Flags().GetString("project")
	} else if len(args) > 0 {
		cfg.Project = args[0]
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("data") {
		cfg.Data.Driver, _ = cmd.Flags().GetString("data")
	}
	return cfg, cfg.Validate()
}

func newLogger(cmd *cobra.Command, cfg config.Config) (*slog.Logger, error) {
	return cli.NewLogger(cfg, cmd.ErrOrStderr())
}
