package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the typed view of every setting the binary reads.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Media   MediaConfig   `mapstructure:"media"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	History HistoryConfig `mapstructure:"history"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Display DisplayConfig `mapstructure:"display"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // used when the terminal display owns stdout
}

type MediaConfig struct {
	App            string        `mapstructure:"app"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
}

type MonitorConfig struct {
	Command        string        `mapstructure:"command"`
	MaxRestarts    int           `mapstructure:"max_restarts"`
	RestartBackoff time.Duration `mapstructure:"restart_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

type HTTPConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Addr        string `mapstructure:"addr"`
	AllowRemote bool   `mapstructure:"allow_remote"`
}

type DisplayConfig struct {
	TUI             bool          `mapstructure:"tui"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

const envPrefix = "AUTOPAUSE"

var (
	errEmptyApp        = errors.New("media.app must not be empty")
	errEmptyCommand    = errors.New("monitor.command must not be empty")
	errNegativeRestart = errors.New("monitor.max_restarts must be >= 0")
)

// setDefaults registers every key so env overrides and Unmarshal see them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("media.app", "Spotify")
	v.SetDefault("media.command_timeout", 5*time.Second)
	v.SetDefault("monitor.command", "log")
	v.SetDefault("monitor.max_restarts", 3)
	v.SetDefault("monitor.restart_backoff", time.Second)
	v.SetDefault("monitor.max_backoff", 30*time.Second)
	v.SetDefault("history.path", ":memory:")
	v.SetDefault("http.enabled", false)
	v.SetDefault("http.addr", "127.0.0.1:8080")
	v.SetDefault("http.allow_remote", false)
	v.SetDefault("display.tui", true)
	v.SetDefault("display.refresh_interval", 250*time.Millisecond)
}

// Flags declares the command line surface. Values are bound into viper by Load.
func Flags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file (default: ./configs/config.yml if present)")
	fs.String("log-level", "", "log level: debug|info|warn|error")
	fs.Bool("tui", true, "show the terminal status display (--tui=false runs headless)")
	fs.Bool("http", false, "serve the read-only status API")
	fs.String("http-addr", "", "address for the status API, e.g. 127.0.0.1:8080")
	fs.String("app", "", "media application to pause/resume")
}

var flagKeys = map[string]string{
	"log-level": "log.level",
	"tui":       "display.tui",
	"http":      "http.enabled",
	"http-addr": "http.addr",
	"app":       "media.app",
}

// Load reads defaults, the optional config file, AUTOPAUSE_* env vars and
// flags, in increasing precedence.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := ""
	if fs != nil {
		path, _ = fs.GetString("config")
	}
	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	if fs != nil {
		for flag, key := range flagKeys {
			f := fs.Lookup(flag)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %q: %w", flag, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// readConfigFile loads an explicit file, or configs/config.yml when present.
// A missing default file is not an error.
func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %q: %w", path, err)
		}
		return nil
	}

	v.AddConfigPath("configs")
	v.SetConfigName("config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Validate rejects settings the monitor cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Media.App) == "" {
		return errEmptyApp
	}
	if strings.TrimSpace(c.Monitor.Command) == "" {
		return errEmptyCommand
	}
	if c.Monitor.MaxRestarts < 0 {
		return errNegativeRestart
	}
	if c.Media.CommandTimeout <= 0 {
		return fmt.Errorf("media.command_timeout must be > 0, got %s", c.Media.CommandTimeout)
	}
	if c.Monitor.RestartBackoff <= 0 || c.Monitor.MaxBackoff < c.Monitor.RestartBackoff {
		return fmt.Errorf("monitor backoff must satisfy 0 < restart_backoff (%s) <= max_backoff (%s)",
			c.Monitor.RestartBackoff, c.Monitor.MaxBackoff)
	}
	if c.Display.RefreshInterval <= 0 {
		return fmt.Errorf("display.refresh_interval must be > 0, got %s", c.Display.RefreshInterval)
	}
	return nil
}
