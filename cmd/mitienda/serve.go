package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"finitefield.org/mitienda-web/internal/handlers"
	mw "finitefield.org/mitienda-web/internal/middleware"
	"finitefield.org/mitienda-web/internal/view"
)

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the storefront over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			srv, err := newHTTPServer(a)
			if err != nil {
				return err
			}
			ln, err := net.Listen("tcp", c.cfg.Server.Addr)
			if err != nil {
				return err
			}
			c.logger.Info("web listening", zap.String("addr", ln.Addr().String()))
			return runServer(ctx, srv, ln, c.cfg.Server.ShutdownTimeout, c.logger)
		},
	}
	cmd.Flags().String("addr", "", "HTTP listen address (default :$PORT or :8080)")
	return cmd
}

func newHTTPServer(a *app) (*http.Server, error) {
	router, err := handlers.NewRouter(handlers.Deps{
		Storefront: a.storefront,
		Bundle:     a.bundle,
		Sessions: mw.NewSessions(mw.SessionOptions{
			SigningKey: a.cfg.Session.SigningKey,
			Secure:     a.cfg.IsProd(),
			TTL:        a.cfg.Session.TTL,
			Logger:     a.logger,
		}),
		Logger:         a.logger,
		Gatherer:       a.registry,
		Assets:         view.Static(),
		RequestTimeout: a.cfg.Server.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
		IdleTimeout:       a.cfg.Server.IdleTimeout,
	}, nil
}

// runServer serves on ln until ctx is done, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration, logger *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
