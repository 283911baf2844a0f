package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"pipeview/internal/app"
	"pipeview/internal/config"
	"pipeview/internal/logger"

	"github.com/spf13/cobra"
)

var (
	configPath   string
	fifoPath     string
	pollInterval time.Duration
	logLevel     string
	jsonLogs     bool
)

var rootCmd = &cobra.Command{
	Use:   "pipeview [image]",
	Short: "pipeview: image viewer driven through a named pipe",
	Long: `pipeview shows a single image and listens on a named pipe for commands:

  load <path>    display the image at <path>
  fullscreen     toggle fullscreen

Keys: f toggles fullscreen, q quits.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	Version:      app.AppVersion,
	RunE:         run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to config.toml (default ~/.config/pipeview/config.toml)")
	flags.StringVar(&fifoPath, "fifo", config.DefaultFIFOPath, "control pipe path")
	flags.DurationVar(&pollInterval, "poll-interval", config.DefaultPollInterval, "how often the control pipe is read")
	flags.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "debug, info, warn or error")
	flags.BoolVar(&jsonLogs, "json-logs", false, "emit JSON log lines")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := logger.New(os.Stderr, level, cfg.JSONLogs)

	application, err := app.NewApplication(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	return application.Run(ctx)
}

// loadConfig layers the config file, the environment and explicit flags, in
// that order of increasing precedence.
func loadConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("fifo") {
		cfg.FIFOPath = fifoPath
	}
	if flags.Changed("poll-interval") {
		cfg.PollInterval = pollInterval
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("json-logs") {
		cfg.JSONLogs = jsonLogs
	}
	if len(args) == 1 {
		cfg.InitialImage = args[0]
	}

	return cfg, cfg.Validate()
}
