package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"graphmeta/internal/api"
)

func newServeCmd() *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the admin HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			if listenAddr != "" {
				a.cfg.ListenAddr = listenAddr
			}
			cmd.Flags().Visit(func(f *pflag.Flag) {
				a.logger.Debug("flag override", "flag", f.Name, "value", f.Value.String())
			})

			handler := api.NewHandler(a.executor, a.engine, a.logger.With("component", "api"))
			srv := &http.Server{
				Addr: a.cfg.ListenAddr,
				Handler: handler.Routes(api.RouterConfig{
					RateLimitRPS:       a.cfg.RateLimitRPS,
					RateLimitBurst:     a.cfg.RateLimitBurst,
					CORSAllowedOrigins: a.cfg.CORSAllowedOrigins,
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				a.logger.Info("admin API listening", "addr", a.cfg.ListenAddr)
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen-addr", "", "listen address (overrides LISTEN_ADDR)")
	return cmd
}
