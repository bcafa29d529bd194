package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chatshell/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "chatshell",
	Short: "Session-aware shell for a real-time chat client",
	Long: `chatshell bootstraps your chat session, keeps you on the screens your
session allows, applies your saved theme and shows how many people are
online. Run it in the terminal with "chatshell run" or in the browser
with "chatshell serve".`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
