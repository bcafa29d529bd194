package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chatshell/internal/tui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the chat shell in the terminal",
	Long: `Checks your session, then shows the screens it allows. Logs go to
chatshell.log in the data directory while the terminal UI is open.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		f, err := logFile(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logger := newLogger(f)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		return tui.Run(ctx, a.shell, a.themes, logger)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
