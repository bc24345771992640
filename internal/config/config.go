package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	appName = "streamer"

	defaultTimeoutSeconds = 15
	defaultMaxBytes       = 64 << 20
	defaultUserAgent      = "streamer/1.0"
	defaultLogLevel       = "info"
)

type Config struct {
	Notifications bool   `koanf:"notifications"` // desktop notifications on phase changes
	MPRIS         *bool  `koanf:"mpris"`         // expose the player over D-Bus (default: true)
	Icons         string `koanf:"icons"`         // "nerd", "unicode" or "none" (default)

	Stream   StreamConfig   `koanf:"stream"`
	Playback PlaybackConfig `koanf:"playback"`
	Log      LogConfig      `koanf:"log"`
}

// StreamConfig controls how remote streams are fetched.
type StreamConfig struct {
	TimeoutSeconds int    `koanf:"timeout_seconds"` // whole-request timeout (default: 15)
	MaxBytes       int64  `koanf:"max_bytes"`       // largest stream buffered in memory (default: 64 MiB)
	UserAgent      string `koanf:"user_agent"`
}

// PlaybackConfig holds the playback defaults used when no saved preference
// exists.
type PlaybackConfig struct {
	Loop   *bool    `koanf:"loop"`   // loop tracks (default: true)
	Volume *float64 `koanf:"volume"` // 0.0-1.0 (default: 1.0)
}

// LogConfig configures the log output.
type LogConfig struct {
	Level string `koanf:"level"` // logrus level name (default: "info")
	File  string `koanf:"file"`  // log file; empty means the XDG state dir
	JSON  bool   `koanf:"json"`
}

func Load() (*Config, error) {
	return LoadFrom(getConfigPaths()...)
}

// LoadFrom reads the given TOML files in order; later files override earlier
// ones. Missing files are skipped.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.Log.File != "" {
		cfg.Log.File = expandPath(cfg.Log.File)
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/streamer/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// MPRISEnabled reports whether the MPRIS interface should be exported.
func (c *Config) MPRISEnabled() bool {
	return c.MPRIS == nil || *c.MPRIS
}

// GetStreamConfig returns the stream configuration with defaults applied.
func (c *Config) GetStreamConfig() StreamConfig {
	cfg := c.Stream

	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = defaultTimeoutSeconds
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	return cfg
}

// Timeout returns the stream timeout as a duration.
func (s StreamConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// DefaultLoop returns whether tracks loop when no preference is saved.
func (c *Config) DefaultLoop() bool {
	return c.Playback.Loop == nil || *c.Playback.Loop
}

// DefaultVolume returns the initial volume, clamped to [0, 1].
func (c *Config) DefaultVolume() float64 {
	if c.Playback.Volume == nil {
		return 1.0
	}
	return max(0, min(*c.Playback.Volume, 1))
}

// GetLogConfig returns the log configuration with defaults applied.
func (c *Config) GetLogConfig() LogConfig {
	cfg := c.Log
	if cfg.Level == "" {
		cfg.Level = defaultLogLevel
	}
	return cfg
}
