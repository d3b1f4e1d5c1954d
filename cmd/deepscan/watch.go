package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kdimtricp/deepscan/internal/dropfolder"
	"github.com/kdimtricp/deepscan/internal/state"
	"github.com/kdimtricp/deepscan/internal/terminal"
	"github.com/kdimtricp/deepscan/internal/upload"
)

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var settle = dropfolder.DefaultSettle

	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Analyze every MP4 video dropped into a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := terminal.New(cmd.OutOrStdout())
			defer out.Close()

			// Hold drops until the previous verdict has been shown and reset.
			widget := upload.NewWidget(a.ctrl.Accept, a.ctrl.Busy)
			watcher, err := dropfolder.New(args[0], widget, dropfolder.Options{
				Settle: settle,
				Logger: a.logger,
				Handled: func(path string, err error) {
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					}
				},
			})
			if err != nil {
				return err
			}

			a.logger.Info("watching for videos", "dir", args[0])

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return a.ctrl.Run(ctx) })
			g.Go(func() error { return watcher.Run(ctx) })
			g.Go(func() error { return showAndRelease(ctx, a, out) })
			return g.Wait()
		},
	}

	cmd.Flags().DurationVar(&settle, "settle", settle, "how long a file must stop changing before it is analyzed")
	return cmd
}

// showAndRelease renders every state and resets once a verdict or an error
// has been shown, so the next dropped file can be taken.
func showAndRelease(ctx context.Context, a *app, out *terminal.Renderer) error {
	updates, unsubscribe := a.ctrl.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-updates:
			if !ok {
				return nil
			}
			out.Render(s)
			if s.Phase() == state.Completed || (s.Phase() == state.Selected && s.Notice != "") {
				if _, err := a.ctrl.Reset(ctx); err != nil && ctx.Err() == nil {
					return fmt.Errorf("failed to reset: %w", err)
				}
			}
		}
	}
}
