package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "POMODORO"

// Config holds process configuration loaded from POMODORO_* environment variables.
type Config struct {
	DataDir     string `envconfig:"DATA_DIR"`
	Environment string `envconfig:"ENVIRONMENT" default:"production"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:"127.0.0.1:8787"`

	TickInterval     time.Duration `envconfig:"TICK_INTERVAL" default:"1s"`
	PollInterval     time.Duration `envconfig:"POLL_INTERVAL" default:"1s"`
	ChainDelay       time.Duration `envconfig:"CHAIN_DELAY" default:"3s"`
	AlertTimeout     time.Duration `envconfig:"ALERT_TIMEOUT" default:"5s"`
	ReminderInterval time.Duration `envconfig:"REMINDER_INTERVAL" default:"30s"`
	ReminderCount    int           `envconfig:"REMINDER_COUNT" default:"3"`
	DedupWindow      time.Duration `envconfig:"DEDUP_WINDOW" default:"5s"`

	Locale             string `envconfig:"LOCALE" default:"default"`
	Timezone           string `envconfig:"TIMEZONE"`
	NativeAlertCommand string `envconfig:"NATIVE_ALERT_COMMAND"`

	DBPath       string `ignored:"true"`
	SettingsPath string `ignored:"true"`
	StatePath    string `ignored:"true"`
	LogPath      string `ignored:"true"`
}

// Load reads the environment and derives file locations. A non-empty
// dataDir overrides POMODORO_DATA_DIR.
func Load(dataDir string) (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if cfg.DataDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve user config dir: %w", err)
		}
		cfg.DataDir = filepath.Join(base, "pomodoro")
	}
	return New(cfg)
}

// New validates cfg and fills derived paths.
func New(cfg Config) (Config, error) {
	if cfg.DataDir == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	if cfg.ReminderCount < 0 {
		return Config{}, fmt.Errorf("reminder count must be non-negative")
	}
	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}
	cfg.DBPath = filepath.Join(cfg.DataDir, "pomodoro.db")
	cfg.SettingsPath = filepath.Join(cfg.DataDir, "settings.yaml")
	cfg.StatePath = filepath.Join(cfg.DataDir, "timer-state.json")
	cfg.LogPath = filepath.Join(cfg.DataDir, "pomodoro.log")
	return cfg, nil
}

// Location is the zone used for calendar fields and streaks.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}
