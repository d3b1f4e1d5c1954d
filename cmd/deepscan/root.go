package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kdimtricp/deepscan/internal/config"
)

func execute() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errAnalysisFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// globalOptions are flags shared by every subcommand. They override the
// config file and the environment when set.
type globalOptions struct {
	configPath string
	port       string
	logLevel   string
	logFormat  string
	uploadDir  string
	mode       string
	baseURL    string
	delay      time.Duration
	timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "deepscan",
		Short:         "Deepfake video detector",
		Long:          "deepscan checks whether an MP4 video is REAL or a deepfake, from a browser page, the terminal or a watched folder.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file (default ./deepscan.yaml if present)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: auto, text, json")
	flags.StringVar(&opts.uploadDir, "upload-dir", "", "directory for staged videos")
	flags.StringVar(&opts.mode, "analysis-mode", "", "analysis backend: stub or http")
	flags.StringVar(&opts.baseURL, "analysis-url", "", "detection service base URL for http mode")
	flags.DurationVar(&opts.delay, "analysis-delay", 0, "simulated analysis time in stub mode")
	flags.DurationVar(&opts.timeout, "analysis-timeout", 0, "detection request timeout in http mode (0 for none)")

	cmd.AddCommand(
		newServeCmd(opts),
		newAnalyzeCmd(opts),
		newWatchCmd(opts),
		newMockDetectorCmd(opts),
	)

	return cmd
}

// loadConfig layers the flags that were set on cmd over the config file and
// the environment.
func loadConfig(cmd *cobra.Command, opts *globalOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	applyFlags(cmd.Flags(), opts, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func applyFlags(flags *pflag.FlagSet, opts *globalOptions, cfg *config.Config) {
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}

	set("port", func() { cfg.Server.Port = opts.port })
	set("log-level", func() { cfg.Log.Level = opts.logLevel })
	set("log-format", func() { cfg.Log.Format = opts.logFormat })
	set("upload-dir", func() { cfg.Storage.UploadDir = opts.uploadDir })
	set("analysis-mode", func() { cfg.Analysis.Mode = opts.mode })
	set("analysis-url", func() { cfg.Analysis.BaseURL = opts.baseURL })
	set("analysis-delay", func() { cfg.Analysis.Delay = opts.delay })
	set("analysis-timeout", func() { cfg.Analysis.Timeout = opts.timeout })
}
