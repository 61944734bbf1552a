package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rpgo/lifedash/internal/api"
	"github.com/rpgo/lifedash/internal/identity"
	"github.com/rpgo/lifedash/internal/planning"
	"github.com/rpgo/lifedash/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the projection and planning API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			handler, err := a.apiHandler(cmd.Context())
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:         a.cfg.Server.Addr,
				Handler:      handler,
				ReadTimeout:  a.cfg.Server.ReadTimeout,
				WriteTimeout: a.cfg.Server.WriteTimeout,
			}
			return a.serve(cmd.Context(), srv)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

// apiHandler wires the HTTP API. Prompts cannot be answered over HTTP, so
// the workspaces answer no unless a request passes a confirmation flag.
func (a *app) apiHandler(ctx context.Context) (http.Handler, error) {
	deps, err := a.deps(ctx)
	if err != nil {
		return nil, err
	}
	deps.Confirmer = store.Always(false)

	tokens, err := identity.NewTokenVerifier(a.cfg.Auth.JWTSecret, a.cfg.Auth.Issuer, a.cfg.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}
	opts := api.Options{CORSOrigins: a.cfg.Server.CORSOrigins}
	if a.cfg.Metrics.Enabled {
		opts.MetricsPath = a.cfg.Metrics.Path
		opts.Gatherer = a.registry
	}
	sessions := planning.NewSessions(deps, a.cfg.Server.SessionTTL)
	return api.NewServer(sessions, tokens, a.logger, opts).Handler(), nil
}

// serve runs srv until ctx is cancelled, then drains open requests.
func (a *app) serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", a.cfg.Environment),
			zap.String("remote", a.cfg.Store.Remote),
			zap.String("local", a.cfg.Store.Local))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.logger.Info("server stopped")
	return nil
}
