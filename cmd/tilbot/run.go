package main

import (
	"os"

	"github.com/aretw0/tilbot/internal/cli"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var runCmd = &cobra.Command{
	Use:   "run [project]",
	Short: "Run one conversation in the terminal",
	Long:  `Starts a single session and exchanges messages over stdin and stdout.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		logger, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}
		jsonMode, _ := cmd.Flags().GetBool("json")
		sessionID, _ := cmd.Flags().GetString("session")

		interactive := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
		width := 80
		if interactive {
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
				width = w
			}
		}

		return cli.RunSession(cmd.Context(), cli.RunOptions{
			Config:      cfg,
			Logger:      logger,
			In:          cmd.InOrStdin(),
			Out:         cmd.OutOrStdout(),
			JSON:        jsonMode,
			Interactive: interactive,
			Width:       width,
			SessionID:   sessionID,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().String("session", "", "Session id (random when empty)")

	rootCmd.RunE = runCmd.RunE
	rootCmd.Args = runCmd.Args
}
