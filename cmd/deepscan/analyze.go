package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kdimtricp/deepscan/internal/state"
	"github.com/kdimtricp/deepscan/internal/terminal"
	"github.com/kdimtricp/deepscan/internal/upload"
)

// errAnalysisFailed marks a run whose notice was already printed.
var errAnalysisFailed = errors.New("analysis failed")

func newAnalyzeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyze one MP4 video and print the verdict",
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
			return runAnalyze(cmd.Context(), a, args[0], terminal.New(cmd.OutOrStdout()))
		},
	}
}

func runAnalyze(ctx context.Context, a *app, path string, out *terminal.Renderer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.ctrl.Run(ctx) })

	updates, unsubscribe := a.ctrl.Subscribe()
	defer unsubscribe()

	err := func() error {
		candidate, f, err := upload.OpenLocal(path)
		if err != nil {
			return err
		}
		defer f.Close()

		widget := upload.NewWidget(a.ctrl.Accept, a.ctrl.Analyzing)
		return widget.Pick([]upload.Candidate{candidate})
	}()

	if err == nil {
		err = follow(ctx, updates, out)
		out.Close()
		if _, resetErr := a.ctrl.Reset(context.Background()); resetErr != nil {
			a.logger.Warn("failed to release staged video", "error", resetErr)
		}
	}

	cancel()
	if waitErr := g.Wait(); err == nil {
		err = waitErr
	}
	return err
}

// follow renders states until the analysis of the selected file settles.
func follow(ctx context.Context, updates <-chan state.State, out *terminal.Renderer) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-updates:
			if !ok {
				return errors.New("controller stopped")
			}
			out.Render(s)
			switch {
			case s.Phase() == state.Completed:
				return nil
			case s.Phase() == state.Selected && s.Notice != "":
				return fmt.Errorf("%w: %s", errAnalysisFailed, s.Notice)
			}
		}
	}
}
