package tool

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/moyoez/cutqueue/types"
)

const (
	// DefaultPollInterval is the reconciliation period of the poller.
	DefaultPollInterval = 2500 * time.Millisecond
	DefaultListen       = "127.0.0.1:53318"
)

var (
	ConfigPath    = "config.yaml" // be aware that it can be changed, default to ./config.yaml
	CurrentConfig types.AppConfig
)

func defaultConfig() types.AppConfig {
	return types.AppConfig{
		Backend:             "http://127.0.0.1:8000",
		UploadPath:          "/api/upload",
		ProcessPath:         "/api/process",
		StatusPath:          "/api/status",
		BatchDownloadPath:   "/api/download/batch",
		ItemDownloadPath:    "/api/download/{id}/{variant}",
		HealthPath:          "/health",
		PollIntervalMs:      int(DefaultPollInterval / time.Millisecond),
		RequestTimeout:      30,
		Listen:              DefaultListen,
		MaxUploadBytes:      25 << 20,
		AllowedTypes:        []string{"image/png", "image/jpeg", "image/webp", "image/gif", "image/bmp", "image/tiff"},
		NotifySocket:        "/tmp/cutqueue-notify.sock",
		IntakeRatePerSecond: 10,
		NotifyWebsocket:     true,
	}
}

// LoadConfig reads the YAML config at path, writing a default file when none exists.
// Missing keys keep their defaults.
func LoadConfig(path string) (types.AppConfig, error) {
	if path == "" {
		path = ConfigPath
	}
	ConfigPath = path

	cfg := defaultConfig()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if writeErr := writeDefaultConfig(path, cfg); writeErr != nil {
				return cfg, fmt.Errorf("config file not found, and failed to generate default config: %v", writeErr)
			}
			DefaultLogger.Infof("Created new config file at %s", path)
			CurrentConfig = cfg
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if info.IsDir() {
		return cfg, fmt.Errorf("config file path is a directory: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %v", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return cfg, err
	}

	CurrentConfig = cfg
	return cfg, nil
}

// ApplyFlagOverrides merges CLI overrides into cfg.
func ApplyFlagOverrides(cfg *types.AppConfig, flags types.Config) {
	if flags.UseBackend != "" {
		cfg.Backend = flags.UseBackend
	}
	if flags.UseListen != "" {
		cfg.Listen = flags.UseListen
	}
	if flags.UsePollInterval > 0 {
		cfg.PollIntervalMs = flags.UsePollInterval
	}
	CurrentConfig = *cfg
}

func validateConfig(cfg *types.AppConfig) error {
	cfg.Backend = strings.TrimRight(strings.TrimSpace(cfg.Backend), "/")
	if cfg.Backend == "" {
		return fmt.Errorf("config: backend must not be empty")
	}
	if cfg.PollIntervalMs <= 0 {
		DefaultLogger.Warnf("Invalid pollIntervalMs %d, using %v", cfg.PollIntervalMs, DefaultPollInterval)
		cfg.PollIntervalMs = int(DefaultPollInterval / time.Millisecond)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	return nil
}

func writeDefaultConfig(path string, cfg types.AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func GetCurrentConfig() *types.AppConfig {
	return &CurrentConfig
}

// PollInterval returns the configured poll interval.
func PollInterval(cfg *types.AppConfig) time.Duration {
	if cfg == nil || cfg.PollIntervalMs <= 0 {
		return DefaultPollInterval
	}
	return time.Duration(cfg.PollIntervalMs) * time.Millisecond
}
