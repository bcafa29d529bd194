package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chatshell/internal/theme"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Show or change the saved theme",
}

var themeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the active theme",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withThemes(func(ctx context.Context, themes *theme.Store) error {
			id := themes.Current(ctx)
			fmt.Println(id)
			if !theme.Valid(id) {
				fmt.Fprintf(os.Stderr, "warning: %q is not a supported theme; the default look is used\n", id)
			}
			return nil
		})
	},
}

var themeSetCmd = &cobra.Command{
	Use:   "set <theme>",
	Short: "Save a new theme",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withThemes(func(ctx context.Context, themes *theme.Store) error {
			if err := themes.Set(ctx, args[0]); err != nil {
				return fmt.Errorf("%w\nRun `chatshell theme list` to see supported themes", err)
			}
			fmt.Printf("Theme set to %s\n", args[0])
			return nil
		})
	},
}

var themeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported themes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withThemes(func(ctx context.Context, themes *theme.Store) error {
			current := themes.Current(ctx)
			for _, id := range theme.Themes {
				marker := "  "
				if id == current {
					marker = "* "
				}
				fmt.Println(marker + id)
			}
			return nil
		})
	},
}

func withThemes(fn func(ctx context.Context, themes *theme.Store) error) error {
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
	return fn(ctx, a.themes)
}

func init() {
	rootCmd.AddCommand(themeCmd)
	themeCmd.AddCommand(themeGetCmd)
	themeCmd.AddCommand(themeSetCmd)
	themeCmd.AddCommand(themeListCmd)
}
