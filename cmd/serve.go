package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chatshell/internal/audit"
	"github.com/ziadkadry99/chatshell/internal/server"
	"github.com/ziadkadry99/chatshell/internal/web"
)

var (
	servePort     int
	serveAllowAll bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat shell as a local web view",
	Long: `Starts a localhost web server. Every page request is checked against
your session: allowed screens render, others redirect. The footer shows
a live online count over a websocket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Web.Port = servePort
		}
		if cmd.Flags().Changed("allow-all") {
			cfg.Web.AllowAll = serveAllowAll
		}

		logger := newLogger(os.Stderr)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := server.New(server.Config{
			Port:     cfg.Web.Port,
			AllowAll: cfg.Web.AllowAll,
		}, logger)

		view := web.New(a.shell, a.themes, logger.With("component", "web"))
		audit.RegisterRoutes(srv.Router(), a.events)
		view.RegisterRoutes(srv.Router())

		a.shell.OnChange(view.Broadcast)
		a.shell.Mount(ctx)
		defer a.shell.Unmount()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "chatshell %s serving http://%s\n", Version, srv.Addr())
		fmt.Fprintf(os.Stderr, "  Backend: %s\n", cfg.BackendURL)
		fmt.Fprintf(os.Stderr, "  Data:    %s\n", cfg.DataDir)

		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 5173, "port to listen on")
	serveCmd.Flags().BoolVar(&serveAllowAll, "allow-all", false, "allow all CORS origins")
	rootCmd.AddCommand(serveCmd)
}
