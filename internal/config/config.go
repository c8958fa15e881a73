package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultVideoExt      = ".mjpeg"
	DefaultFlushInterval = 10 * time.Millisecond
	DefaultPollInterval  = 500 * time.Millisecond
	DefaultProbeTimeout  = 1500 * time.Millisecond
	DefaultCameraFPS     = 30
	DefaultMotionHz      = 100
	DefaultCategory      = "none"
)

type Config struct {
	SessionsDir     string
	DBPath          string
	VideoExt        string
	FlushInterval   time.Duration
	PollInterval    time.Duration
	ProbeTimeout    time.Duration
	CameraFPS       int
	MotionHz        int
	DefaultCategory string // eating, not-eating or none
	Path            string // config file that was read, if any
}

type fileConfig struct {
	SessionsDir     string `toml:"sessions_dir"`
	DBPath          string `toml:"db_path"`
	VideoExt        string `toml:"video_ext"`
	FlushInterval   string `toml:"flush_interval"`
	PollInterval    string `toml:"poll_interval"`
	ProbeTimeout    string `toml:"probe_timeout"`
	CameraFPS       int    `toml:"camera_fps"`
	MotionHz        int    `toml:"motion_hz"`
	DefaultCategory string `toml:"default_category"`
}

// Load reads the user config file, if present, and applies BITELOG_*
// environment overrides.
func Load() (*Config, error) {
	return LoadFile(configFilePath())
}

// LoadFile is Load with an explicit config file. An empty path uses defaults.
func LoadFile(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := cfg.apply(fc); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		cfg.Path = path
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if !strings.HasPrefix(cfg.VideoExt, ".") {
		cfg.VideoExt = "." + cfg.VideoExt
	}

	// Ensure directories exist
	if err := os.MkdirAll(cfg.SessionsDir, 0o755); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		SessionsDir:     filepath.Join(home, "bitelog"),
		DBPath:          filepath.Join(home, ".bitelog", "bitelog.db"),
		VideoExt:        DefaultVideoExt,
		FlushInterval:   DefaultFlushInterval,
		PollInterval:    DefaultPollInterval,
		ProbeTimeout:    DefaultProbeTimeout,
		CameraFPS:       DefaultCameraFPS,
		MotionHz:        DefaultMotionHz,
		DefaultCategory: DefaultCategory,
	}
}

func (cfg *Config) apply(fc fileConfig) error {
	if fc.SessionsDir != "" {
		cfg.SessionsDir = expandTilde(fc.SessionsDir)
	}
	if fc.DBPath != "" {
		cfg.DBPath = expandTilde(fc.DBPath)
	}
	if fc.VideoExt != "" {
		cfg.VideoExt = fc.VideoExt
	}
	if fc.CameraFPS > 0 {
		cfg.CameraFPS = fc.CameraFPS
	}
	if fc.MotionHz > 0 {
		cfg.MotionHz = fc.MotionHz
	}
	if fc.DefaultCategory != "" {
		cfg.DefaultCategory = fc.DefaultCategory
	}

	for _, d := range []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"flush_interval", fc.FlushInterval, &cfg.FlushInterval},
		{"poll_interval", fc.PollInterval, &cfg.PollInterval},
		{"probe_timeout", fc.ProbeTimeout, &cfg.ProbeTimeout},
	} {
		if d.raw == "" {
			continue
		}
		v, err := parsePositiveDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = v
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("BITELOG_SESSIONS_DIR"); v != "" {
		cfg.SessionsDir = expandTilde(v)
	}
	if v := os.Getenv("BITELOG_DB_PATH"); v != "" {
		cfg.DBPath = expandTilde(v)
	}
	if v := os.Getenv("BITELOG_VIDEO_EXT"); v != "" {
		cfg.VideoExt = v
	}
	if v := os.Getenv("BITELOG_DEFAULT_CATEGORY"); v != "" {
		cfg.DefaultCategory = v
	}
	if v := os.Getenv("BITELOG_FLUSH_INTERVAL"); v != "" {
		d, err := parsePositiveDuration(v)
		if err != nil {
			return fmt.Errorf("BITELOG_FLUSH_INTERVAL: %w", err)
		}
		cfg.FlushInterval = d
	}
	if v := os.Getenv("BITELOG_MOTION_HZ"); v != "" {
		hz, err := strconv.Atoi(v)
		if err != nil || hz <= 0 {
			return fmt.Errorf("BITELOG_MOTION_HZ: invalid rate %q", v)
		}
		cfg.MotionHz = hz
	}
	return nil
}

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", s)
	}
	return d, nil
}

func configFilePath() string {
	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "bitelog")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "bitelog")
	} else {
		return ""
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
