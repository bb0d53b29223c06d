package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/authgate/cmd/cmdutil"
	"github.com/terraconstructs/authgate/internal/server"
	"github.com/terraconstructs/authgate/internal/sessionstore"
	"github.com/terraconstructs/authgate/internal/telemetry"
)

var pruneInterval time.Duration

// pruner is implemented by session stores that need periodic cleanup.
// Redis expires keys on its own.
type pruner interface {
	Prune(ctx context.Context) (int64, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the authgate HTTP server",
	Long:  `Starts the HTTP server with the login endpoints and the protected resources.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbMetrics, err := telemetry.NewDatabaseMetrics()
		if err != nil {
			return fmt.Errorf("create database metrics: %w", err)
		}
		authMetrics, err := telemetry.NewAuthMetrics()
		if err != nil {
			return fmt.Errorf("create auth metrics: %w", err)
		}
		serverMetrics, err := telemetry.NewServerMetrics()
		if err != nil {
			return fmt.Errorf("create server metrics: %w", err)
		}

		bundle, err := cmdutil.Open(cfg, cmdutil.OpenOptions{DatabaseMetrics: dbMetrics})
		if err != nil {
			return err
		}
		defer bundle.Close()

		log.Printf("Connected to database")

		sessions, err := bundle.SessionStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		log.Printf("Using %s session store (ttl=%s)", cfg.Session.Store, cfg.Session.TTL)

		iamService, err := bundle.NewIAMService(cfg, sessions, authMetrics)
		if err != nil {
			return err
		}

		handler, err := server.NewH2CHandler(server.RouterOptions{
			IAMService: iamService,
			Cfg:        cfg,
			Metrics:    serverMetrics,
		})
		if err != nil {
			return fmt.Errorf("build router: %w", err)
		}

		if p, ok := sessions.(pruner); ok && pruneInterval > 0 {
			pruneCtx, cancelPrune := context.WithCancel(cmd.Context())
			defer cancelPrune()
			go runPruner(pruneCtx, p, pruneInterval)
		}

		// Create HTTP server
		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Start server in goroutine
		serverErrors := make(chan error, 1)
		go func() {
			log.Printf("Starting server on %s", cfg.ServerAddr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			log.Printf("Received signal %v, shutting down gracefully", sig)

			// Graceful shutdown with timeout
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}

			log.Printf("Server stopped")
			return nil
		}
	},
}

// runPruner removes stale sessions every interval until ctx is cancelled.
func runPruner(ctx context.Context, p pruner, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := p.Prune(ctx)
			if err != nil {
				log.Printf("ERROR: session prune failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("INFO: pruned %d stale sessions", n)
			}
		case <-ctx.Done():
			log.Printf("INFO: Stopping session pruner")
			return
		}
	}
}

var (
	_ pruner = (*sessionstore.MemoryStore)(nil)
	_ pruner = (*sessionstore.DBStore)(nil)
)

func init() {
	serveCmd.Flags().DurationVar(&pruneInterval, "prune-interval", 5*time.Minute, "How often expired sessions are removed (0 disables)")
	rootCmd.AddCommand(serveCmd)
}
