package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tanq16/guardl/internal/config"
	"github.com/tanq16/guardl/internal/output"
	"github.com/tanq16/guardl/internal/utils"
)

var (
	configPath string
	debug      bool
	timeout    time.Duration
	maxSize    string
	retries    int
	backoff    time.Duration
	limitRate  string
	userAgent  string
	headers    []string
	noProgress bool
	traceSpans bool

	// settings is resolved in PersistentPreRunE: defaults, then the
	// config file, then flags the user set explicitly.
	settings config.Config
	console  = output.NewLogger("guardl", os.Stderr)
)

var GuardlVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "guardl",
	Short:   "guardl is a size-bounded, atomic single-file downloader",
	Version: GuardlVersion,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.InitLogger(debug)
		if traceSpans {
			initTracing()
		}
		cfg, err := resolveSettings(cmd)
		if err != nil {
			return err
		}
		settings = cfg
		if debug {
			console.Debug(fmt.Sprintf("Max size %s, %d retries, backoff %s, timeout %s",
				utils.FormatBytes(uint64(cfg.MaxSize)), cfg.Retries, cfg.Backoff, cfg.Timeout))
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return shutdownTracing()
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		console.Error(err.Error())
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", config.DefaultPath(), "Path to YAML config file")
	pf.BoolVar(&debug, "debug", false, "Enable debug logging")
	pf.DurationVarP(&timeout, "timeout", "t", config.Default().Timeout, "Idle timeout for connecting and for each read (0 disables)")
	pf.StringVarP(&maxSize, "max-size", "m", "2GiB", "Maximum download size (eg. 500MB, 2GiB)")
	pf.IntVarP(&retries, "retries", "r", config.Default().Retries, "Retries after the first failed attempt")
	pf.DurationVarP(&backoff, "backoff", "b", config.Default().Backoff, "Backoff unit; the k-th retry waits k times this")
	pf.StringVar(&limitRate, "limit-rate", "0", "Maximum read rate per download (eg. 512K, 10MB); 0 is unlimited")
	pf.StringVarP(&userAgent, "user-agent", "a", utils.ToolUserAgent, "User agent")
	pf.StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'Authorization: Basic dXNlcjpwYXNz'); can be specified multiple times")
	pf.BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	pf.BoolVar(&traceSpans, "trace", false, "Log a span for each download and attempt")

	rootCmd.AddCommand(newHTTPCmd())
	rootCmd.AddCommand(newS3Cmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newCleanCmd())
}

func resolveSettings(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	cfg, err := config.Load(configPath, flags.Changed("config"))
	if err != nil {
		return config.Config{}, err
	}

	if flags.Changed("timeout") {
		cfg.Timeout = timeout
	}
	if flags.Changed("max-size") {
		n, err := utils.ParseBytes(maxSize)
		if err != nil {
			return config.Config{}, fmt.Errorf("--max-size: %w", err)
		}
		cfg.MaxSize = n
	}
	if flags.Changed("retries") {
		cfg.Retries = retries
	}
	if flags.Changed("backoff") {
		cfg.Backoff = backoff
	}
	if flags.Changed("limit-rate") {
		n, err := utils.ParseBytes(limitRate)
		if err != nil {
			return config.Config{}, fmt.Errorf("--limit-rate: %w", err)
		}
		cfg.LimitRate = n
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = userAgent
	}
	for k, v := range utils.ParseHeaderArgs(headers) {
		cfg.Headers[k] = v
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
