package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chatshell/internal/audit"
	"github.com/ziadkadry99/chatshell/internal/auth"
	"github.com/ziadkadry99/chatshell/internal/progress"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the stored chat session",
	Long: `Store and manage the session token chatshell presents to the chat
backend.

The token is the value of the backend's "jwt" cookie. It is stored in
credentials.json in the data directory. CHATSHELL_TOKEN overrides it.`,
}

var loginToken string

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify and store a session token",
	RunE:  runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and remove the stored token",
	RunE:  runAuthLogout,
}

var statusLimit int

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored session and recent session events",
	RunE:  runAuthStatus,
}

var pruneOlderThan time.Duration

var authPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old session events",
	RunE:  runAuthPrune,
}

func init() {
	authLoginCmd.Flags().StringVar(&loginToken, "token", "", "session token (prompted when empty)")
	authStatusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 10, "number of events to show")
	authPruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 30*24*time.Hour, "delete events older than this")

	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authPruneCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	token := strings.TrimSpace(loginToken)
	if token == "" {
		prompt := promptui.Prompt{
			Label: "Session token (jwt cookie)",
			Mask:  '*',
			Validate: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("token is required")
				}
				return nil
			},
		}
		input, err := prompt.Run()
		if err != nil {
			return fmt.Errorf("reading token: %w", err)
		}
		token = strings.TrimSpace(input)
	}

	// Verify the token before storing it.
	checker, err := newChecker(cfg, auth.StaticToken(token))
	if err != nil {
		return err
	}
	ctx := context.Background()
	rep := progress.NewReporter(os.Stderr)
	rep.Start("Verifying token")
	id, err := checker.Check(ctx)
	rep.Finish()
	if err != nil {
		return fmt.Errorf("token verification failed: %w", err)
	}

	creds := &auth.Credentials{Token: token, Backend: cfg.BackendURL, SavedAt: time.Now().UTC()}
	if err := auth.Save(cfg.DataDir, creds); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}

	// Resolve through the session store so the sign-in is recorded.
	cfg.Presence.Enabled = false
	a, err := openApp(ctx, cfg, newLogger(os.Stderr))
	if err != nil {
		return err
	}
	defer a.Close()
	a.sessions.CheckAuth(ctx)

	fmt.Printf("Signed in as %s (%s)\n", id.FullName, id.ID)
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
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

	// Learn who is signed in so the sign-out is attributed.
	a.sessions.CheckAuth(ctx)

	if err := auth.Clear(cfg.DataDir); err != nil {
		return err
	}
	a.sessions.Invalidate(ctx, "logout")

	if os.Getenv(auth.TokenEnvVar) != "" {
		fmt.Printf("Stored token removed. %s is still set in your environment.\n", auth.TokenEnvVar)
		return nil
	}
	fmt.Println("Signed out.")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	creds, err := auth.Load(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	fmt.Printf("Credentials file: %s\n", auth.CredentialPath(cfg.DataDir))
	fmt.Printf("Auth mode:        %s\n", cfg.Auth.Mode)
	switch {
	case os.Getenv(auth.TokenEnvVar) != "":
		fmt.Printf("Token:            from %s\n", auth.TokenEnvVar)
	case creds.Token != "":
		fmt.Printf("Token:            stored %s\n", creds.SavedAt.Local().Format(time.DateTime))
	default:
		fmt.Println("Token:            not set (run `chatshell auth login`)")
	}

	cfg.Presence.Enabled = false
	ctx := context.Background()
	a, err := openApp(ctx, cfg, newLogger(os.Stderr))
	if err != nil {
		return err
	}
	defer a.Close()

	events, err := a.events.Query(ctx, audit.QueryFilter{Limit: statusLimit})
	if err != nil {
		return fmt.Errorf("reading session events: %w", err)
	}
	if len(events) == 0 {
		fmt.Println("\nNo session events recorded yet.")
		return nil
	}

	fmt.Println("\nWhen                 From     To       User                      Reason")
	fmt.Println("----                 ----     --       ----                      ------")
	for _, e := range events {
		fmt.Printf("%-20s %-8s %-8s %-25s %s\n",
			e.At.Local().Format(time.DateTime), e.From, e.To, e.UserID, e.Reason)
	}
	return nil
}

func runAuthPrune(cmd *cobra.Command, args []string) error {
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

	n, err := a.events.DeleteBefore(ctx, time.Now().Add(-pruneOlderThan))
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d session events\n", n)
	return nil
}
