package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ziadkadry99/chatshell/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize chatshell configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to point chatshell at your chat backend and generates a .chatshell.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RunWizard(cfgFile)
		if err != nil {
			return err
		}
		fmt.Println("Next: chatshell auth login")
		if cfg.Auth.Mode == config.AuthToken {
			fmt.Println("Token mode stores the signing secret in the config file; keep it private.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
