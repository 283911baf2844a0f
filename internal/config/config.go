package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything the viewer needs at startup.
type Config struct {
	FIFOPath        string
	PollInterval    time.Duration
	BufferSize      int
	ShutdownTimeout time.Duration
	WindowWidth     int
	WindowHeight    int
	LogLevel        string
	JSONLogs        bool
	InitialImage    string
}

const (
	DefaultFIFOPath     = "/tmp/iv_fifo"
	DefaultPollInterval = 500 * time.Millisecond
	DefaultBufferSize   = 2048
	DefaultWindowWidth  = 300
	DefaultWindowHeight = 300
	DefaultLogLevel     = "info"

	DefaultShutdownTimeout = 5 * time.Second

	defaultConfigPath = "~/.config/pipeview/config.toml"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvFIFOPath     = "PIPEVIEW_FIFO"
	EnvPollInterval = "PIPEVIEW_POLL_INTERVAL"
	EnvLogLevel     = "PIPEVIEW_LOG_LEVEL"
	EnvJSONLogs     = "PIPEVIEW_JSON_LOGS"
)

func Default() Config {
	return Config{
		FIFOPath:        DefaultFIFOPath,
		PollInterval:    DefaultPollInterval,
		BufferSize:      DefaultBufferSize,
		ShutdownTimeout: DefaultShutdownTimeout,
		WindowWidth:     DefaultWindowWidth,
		WindowHeight:    DefaultWindowHeight,
		LogLevel:        DefaultLogLevel,
	}
}

// Load reads the TOML config at path, falling back to defaults when the file
// is missing. An empty path means the per-user default location.
func Load(path string) (Config, error) {
	cfg := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		FIFOPath        string `toml:"fifo_path"`
		PollInterval    string `toml:"poll_interval"`
		ShutdownTimeout string `toml:"shutdown_timeout"`
		BufferSize      int    `toml:"buffer_size"`
		WindowWidth     int    `toml:"window_width"`
		WindowHeight    int    `toml:"window_height"`
		LogLevel        string `toml:"log_level"`
		JSONLogs        bool   `toml:"json_logs"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.FIFOPath); v != "" {
		cfg.FIFOPath = v
	}
	if v := strings.TrimSpace(raw.PollInterval); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse poll_interval: %w", err)
		}
		cfg.PollInterval = interval
	}
	if v := strings.TrimSpace(raw.ShutdownTimeout); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse shutdown_timeout: %w", err)
		}
		cfg.ShutdownTimeout = timeout
	}
	if raw.BufferSize > 0 {
		cfg.BufferSize = raw.BufferSize
	}
	if raw.WindowWidth > 0 {
		cfg.WindowWidth = raw.WindowWidth
	}
	if raw.WindowHeight > 0 {
		cfg.WindowHeight = raw.WindowHeight
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	cfg.JSONLogs = raw.JSONLogs

	return cfg, nil
}

// ApplyEnv overrides fields from environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvFIFOPath)); v != "" {
		c.FIFOPath = v
	}
	if v := strings.TrimSpace(getenv(EnvPollInterval)); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPollInterval, err)
		}
		c.PollInterval = interval
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(getenv(EnvJSONLogs)); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvJSONLogs, err)
		}
		c.JSONLogs = enabled
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.FIFOPath) == "" {
		return errors.New("fifo path is empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", c.BufferSize)
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		return fmt.Errorf("invalid window size %dx%d", c.WindowWidth, c.WindowHeight)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
