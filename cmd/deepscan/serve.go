package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kdimtricp/deepscan/internal/api"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the detector page in the browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}

			web, err := api.NewApp(a.ctrl, a.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			g, ctx := errgroup.WithContext(ctx)

			g.Go(func() error { return a.ctrl.Run(ctx) })

			a.logger.Info("configuration",
				"upload_dir", a.store.BasePath(),
				"analysis_mode", cfg.Analysis.Mode,
				"max_upload_bytes", web.MaxUploadSize,
			)
			serveHTTP(ctx, g, &http.Server{
				Addr:              ":" + cfg.Server.Port,
				Handler:           api.NewRouter(web),
				ReadHeaderTimeout: 10 * time.Second,
			}, a.logger)

			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&opts.port, "port", "p", "8080", "port to listen on")
	return cmd
}
