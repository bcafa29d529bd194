package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chatshell/internal/progress"
	"github.com/ziadkadry99/chatshell/internal/routes"
	"github.com/ziadkadry99/chatshell/internal/shell"
)

var checkPath string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the stored session once and print the result",
	Long: `Resolves the session the same way the shell does on start and prints
who you are. With --path, also prints what the shell would do for that
path: render a screen or redirect.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.Presence.Enabled = false

		ctx := context.Background()
		a, err := openApp(ctx, cfg, newLogger(os.Stderr))
		if err != nil {
			return err
		}
		defer a.Close()

		rep := progress.NewReporter(os.Stderr)
		rep.Start("Checking session")
		snap := a.sessions.CheckAuth(ctx)
		rep.Finish()

		if id, ok := snap.Session.Identity(); ok {
			fmt.Printf("Signed in as %s (%s)\n", id.FullName, id.ID)
			if id.Email != "" {
				fmt.Printf("  Email: %s\n", id.Email)
			}
		} else {
			fmt.Println("Signed out")
		}

		if checkPath != "" {
			f := shell.Compose(a.shell.Table(), snap, a.themes.Current(ctx), checkPath)
			switch f.Decision.Kind {
			case routes.Redirect:
				fmt.Printf("%s: redirect to %s\n", f.Decision.Path, f.Decision.Target)
			case routes.NotFound:
				fmt.Printf("%s: not found\n", f.Decision.Path)
			default:
				fmt.Printf("%s: render %s\n", f.Decision.Path, f.Decision.Screen)
			}
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkPath, "path", "", "also evaluate the route guard for this path")
	rootCmd.AddCommand(checkCmd)
}
