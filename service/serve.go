package service

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"blogsite/app/routes"
	"blogsite/app/views"

	"github.com/spf13/cobra"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the blog web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			log := cfg.NewLogger(os.Stderr)

			templates, err := views.Load()
			if err != nil {
				return fmt.Errorf("load templates: %w", err)
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			router := routes.SetupRoutes(store, templates, log, routes.Options{
				MediaRoot:     cfg.MediaRoot,
				BaseURL:       cfg.BaseURL,
				SessionTTL:    cfg.SessionTTL,
				SecureCookies: cfg.SecureCookies,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.WithField("addr", cfg.Addr).WithField("db", store.Path()).Info("starting blog server")
			if err := routes.StartServer(ctx, cfg.Addr, router); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server: %w", err)
			}
			log.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}
