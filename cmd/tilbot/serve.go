package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/tilbot/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [project]",
	Short: "Serve sessions over websockets",
	Long: `Starts the HTTP server. Each websocket connection on /ws gets its own session;
/events streams state changes and /metrics exposes Prometheus counters.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("max-sessions") {
			cfg.MaxSessions, _ = cmd.Flags().GetInt("max-sessions")
		}
		logger, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return cli.Serve(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (default from config, :2801)")
	serveCmd.Flags().Int("max-sessions", 0, "Maximum concurrent sessions (0 = unlimited)")
}
