package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Flags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newFlagSet(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Media.App != "Spotify" {
		t.Errorf("media.app: want Spotify, got %q", cfg.Media.App)
	}
	if cfg.Monitor.Command != "log" {
		t.Errorf("monitor.command: want log, got %q", cfg.Monitor.Command)
	}
	if cfg.Monitor.MaxRestarts != 3 {
		t.Errorf("monitor.max_restarts: want 3, got %d", cfg.Monitor.MaxRestarts)
	}
	if cfg.Monitor.RestartBackoff != time.Second {
		t.Errorf("monitor.restart_backoff: want 1s, got %s", cfg.Monitor.RestartBackoff)
	}
	if cfg.History.Path != ":memory:" {
		t.Errorf("history.path: want :memory:, got %q", cfg.History.Path)
	}
	// the status API is opt-in; the terminal display is the default surface
	if cfg.HTTP.Enabled || cfg.HTTP.Addr != "127.0.0.1:8080" || cfg.HTTP.AllowRemote {
		t.Errorf("unexpected http config: %+v", cfg.HTTP)
	}
	if !cfg.Display.TUI {
		t.Errorf("display.tui: want true")
	}
}

func TestLoad_FilePrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	body := strings.Join([]string{
		"log:",
		"  level: debug",
		"media:",
		"  app: Music",
		"  command_timeout: 2s",
		"monitor:",
		"  max_restarts: 0",
		"http:",
		"  enabled: true",
		"display:",
		"  tui: false",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(newFlagSet(t, "--config", path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Media.App != "Music" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Media.CommandTimeout != 2*time.Second {
		t.Errorf("command_timeout: want 2s, got %s", cfg.Media.CommandTimeout)
	}
	if cfg.Monitor.MaxRestarts != 0 {
		t.Errorf("max_restarts: want 0, got %d", cfg.Monitor.MaxRestarts)
	}
	if !cfg.HTTP.Enabled || cfg.Display.TUI {
		t.Errorf("file did not override display defaults: http=%v tui=%v", cfg.HTTP.Enabled, cfg.Display.TUI)
	}
}

func TestLoad_EnvAndFlags(t *testing.T) {
	t.Setenv("AUTOPAUSE_MEDIA_APP", "Music")
	t.Setenv("AUTOPAUSE_MONITOR_MAX_RESTARTS", "5")

	cfg, err := Load(newFlagSet(t, "--tui=false", "--http", "--http-addr", "127.0.0.1:9999"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Media.App != "Music" {
		t.Errorf("env override: want Music, got %q", cfg.Media.App)
	}
	if cfg.Monitor.MaxRestarts != 5 {
		t.Errorf("env override: want 5, got %d", cfg.Monitor.MaxRestarts)
	}
	if cfg.Display.TUI {
		t.Errorf("--tui=false not applied")
	}
	if !cfg.HTTP.Enabled {
		t.Errorf("--http not applied")
	}
	if cfg.HTTP.Addr != "127.0.0.1:9999" {
		t.Errorf("--http-addr not applied: %q", cfg.HTTP.Addr)
	}

	// flag beats env
	cfg, err = Load(newFlagSet(t, "--app", "VLC"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Media.App != "VLC" {
		t.Errorf("flag precedence: want VLC, got %q", cfg.Media.App)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(newFlagSet(t, "--config", filepath.Join(t.TempDir(), "nope.yml")))
	if err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		return Config{
			Media:   MediaConfig{App: "Spotify", CommandTimeout: time.Second},
			Monitor: MonitorConfig{Command: "log", MaxRestarts: 1, RestartBackoff: time.Second, MaxBackoff: 2 * time.Second},
			Display: DisplayConfig{RefreshInterval: time.Second},
		}
	}

	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty app", func(c *Config) { c.Media.App = "  " }, true},
		{"empty command", func(c *Config) { c.Monitor.Command = "" }, true},
		{"negative restarts", func(c *Config) { c.Monitor.MaxRestarts = -1 }, true},
		{"zero timeout", func(c *Config) { c.Media.CommandTimeout = 0 }, true},
		{"backoff above max", func(c *Config) { c.Monitor.MaxBackoff = time.Millisecond }, true},
		{"zero refresh", func(c *Config) { c.Display.RefreshInterval = 0 }, true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := valid()
			tc.mutate(&c)
			err := c.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate: wantErr=%v, got %v", tc.wantErr, err)
			}
		})
	}
}
