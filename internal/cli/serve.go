package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/evcraddock/luxury-estates/internal/auth"
	"github.com/evcraddock/luxury-estates/internal/catalog"
	"github.com/evcraddock/luxury-estates/internal/config"
	"github.com/evcraddock/luxury-estates/internal/inquiry"
	"github.com/evcraddock/luxury-estates/internal/logging"
	"github.com/evcraddock/luxury-estates/internal/metrics"
	"github.com/evcraddock/luxury-estates/internal/web"
)

const (
	shutdownTimeout = 10 * time.Second
	cleanupInterval = time.Hour
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long:  "Start the storefront, the studio and the REST API. Settings come from LE_* variables, a .env file and the --config file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServerConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				if port <= 0 || port > 65535 {
					return fmt.Errorf("invalid port %d", port)
				}
				cfg.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on (overrides LE_PORT)")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	logging.Setup(cfg.DevMode)

	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(database)

	cat, err := catalog.Open(ctx, cfg, database)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer func() {
		if err := cat.Close(); err != nil {
			slog.Warn("closing catalog", "error", err)
		}
	}()
	if err := cat.Seed(ctx); err != nil {
		return fmt.Errorf("seeding catalog: %w", err)
	}

	srv, err := web.NewServer(web.Deps{
		Properties: cat.Properties,
		Types:      cat.Types,
		Inquiries:  inquiry.NewRepository(database),
		DB:         database,
		Auth: auth.Config{
			AdminEmail: cfg.AdminEmail,
			SMTPHost:   cfg.SMTPHost,
			SMTPPort:   cfg.SMTPPort,
			SMTPUser:   cfg.SMTPUser,
			SMTPPass:   cfg.SMTPPass,
			SMTPFrom:   cfg.SMTPFrom,
			DevMode:    cfg.DevMode,
			BaseURL:    cfg.BaseURL,
		},
		Registry:       metrics.NewRegistry(),
		RequestTimeout: cfg.RequestTimeout,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "addr", httpSrv.Addr, "backend", cat.Backend, "base_url", cfg.BaseURL, "dev", cfg.DevMode)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		cleanupLoop(ctx, srv, cleanupInterval)
		return nil
	})
	return g.Wait()
}

// cleanupLoop removes expired sessions and login tokens until ctx ends.
func cleanupLoop(ctx context.Context, srv *web.Server, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := srv.Cleanup(); err != nil {
				slog.Warn("cleaning up sessions", "error", err)
			}
		}
	}
}
