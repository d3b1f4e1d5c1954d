package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kdimtricp/deepscan/internal/analysis"
	"github.com/kdimtricp/deepscan/internal/detector"
	"github.com/kdimtricp/deepscan/internal/logger"
)

const detectorPort = "5000"

func newMockDetectorCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mock-detector",
		Short: "Run a stand-in detection service that returns random verdicts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			port := detectorPort
			if cmd.Flags().Changed("port") {
				port = cfg.Server.Port
			}
			log, err := logger.Init(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			g, ctx := errgroup.WithContext(ctx)

			srv := detector.NewServer(cfg.Analysis.Delay, log)
			serveHTTP(ctx, g, &http.Server{
				Addr:              ":" + port,
				Handler:           srv.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}, log)

			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&opts.port, "port", "p", detectorPort, "port to listen on, matching "+analysis.DefaultBaseURL)
	return cmd
}
