// Package config loads the edge runner configuration from TOML and the
// command line.
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/wippyai/edge-abi/errors"
	"github.com/wippyai/edge-abi/host"
	"github.com/wippyai/edge-abi/metrics"
)

// searchPaths lists paths checked in order when no explicit config is given.
var searchPaths = []string{
	"edge.toml",
	"/etc/edge-abi/edge.toml",
}

// CLI holds the flags shared by every command.
type CLI struct {
	Config    string `kong:"short='c',help='Path to TOML config file.',env='EDGE_CONFIG'"`
	Wasm      string `kong:"short='w',help='Guest module to run (overrides config).',env='EDGE_WASM',type='path'"`
	Host      string `kong:"help='Listen host (overrides config).',env='EDGE_HOST'"`
	Port      int    `kong:"short='p',help='Listen port (overrides config).',env='EDGE_PORT'"`
	LogLevel  string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='EDGE_LOG_LEVEL'"`
	LogFormat string `kong:"help='Log format: json|console (overrides config).',env='EDGE_LOG_FORMAT'"`
}

// Config is the top-level runner configuration.
type Config struct {
	Server   ServerConfig    `toml:"server"`
	Guest    GuestConfig     `toml:"guest"`
	Backends []BackendConfig `toml:"backends"`
	Log      LogConfig       `toml:"log"`
	Metrics  MetricsConfig   `toml:"metrics"`

	filePath string
}

// ServerConfig holds downstream listener settings.
type ServerConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"` // 0 means the default
	BodyMaxBytes int64  `toml:"body_max_bytes"`
}

// GuestConfig selects the guest module.
type GuestConfig struct {
	Wasm string `toml:"wasm"`
	// WriteChunk caps bytes accepted per body write. 0 accepts everything.
	WriteChunk int `toml:"write_chunk"`
}

// BackendConfig is one named origin guests can send requests to.
type BackendConfig struct {
	Name              string  `toml:"name"`
	URL               string  `toml:"url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the config file, applies CLI overrides, validates and fills
// defaults. Without --config the search paths are tried; when none exists
// the configuration comes from flags alone.
func Load(cli *CLI) (*Config, error) {
	var cfg Config

	path := cli.Config
	if path == "" {
		path = findConfigInPaths(searchPaths)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read "+path)
		}
		if err := Parse(data, &cfg); err != nil {
			return nil, err
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// Parse decodes TOML into cfg. Unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "parse config")
	}
	return nil
}

func (c *Config) applyCLI(cli *CLI) {
	if cli.Wasm != "" {
		c.Guest.Wasm = cli.Wasm
	}
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		c.Log.Format = cli.LogFormat
	}
}

func (c *Config) validate() error {
	if c.Guest.Wasm == "" {
		return errors.Config([]string{"guest", "wasm"}, "required (set guest.wasm or --wasm)")
	}
	if c.Guest.WriteChunk < 0 {
		return errors.Config([]string{"guest", "write_chunk"}, fmt.Sprintf("must be non-negative; got %d", c.Guest.WriteChunk))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.Config([]string{"server", "port"}, fmt.Sprintf("must be 0-65535; got %d", c.Server.Port))
	}
	if c.Server.BodyMaxBytes < 0 {
		return errors.Config([]string{"server", "body_max_bytes"}, fmt.Sprintf("must be non-negative; got %d", c.Server.BodyMaxBytes))
	}

	seen := make(map[string]bool, len(c.Backends))
	for i, b := range c.Backends {
		at := func(field string) []string {
			return []string{"backends", fmt.Sprint(i), field}
		}
		if b.Name == "" {
			return errors.Config(at("name"), "required")
		}
		if seen[b.Name] {
			return errors.Config(at("name"), fmt.Sprintf("duplicate backend %q", b.Name))
		}
		seen[b.Name] = true

		u, err := url.Parse(b.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.Config(at("url"), fmt.Sprintf("must be an absolute http(s) URL; got %q", b.URL))
		}
		if b.TimeoutSeconds < 0 {
			return errors.Config(at("timeout_seconds"), fmt.Sprintf("must be non-negative; got %d", b.TimeoutSeconds))
		}
		if b.RequestsPerSecond < 0 || b.Burst < 0 {
			return errors.Config(at("requests_per_second"), "rate limits must be non-negative")
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "":
	default:
		return errors.Config([]string{"log", "level"}, fmt.Sprintf("must be one of debug, info, warn, error; got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console", "":
	default:
		return errors.Config([]string{"log", "format"}, fmt.Sprintf("must be one of json, console; got %q", c.Log.Format))
	}

	if c.Metrics.Enabled && c.Metrics.Path != "" && c.Metrics.Path[0] != '/' {
		return errors.Config([]string{"metrics", "path"}, fmt.Sprintf("must start with '/'; got %q", c.Metrics.Path))
	}
	return nil
}

// setDefaults fills zero-valued fields. TOML cannot tell an explicit 0
// from an omitted key, so 0 means unset.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 7676
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 10 * 1024 * 1024
	}
	for i := range c.Backends {
		if c.Backends[i].TimeoutSeconds == 0 {
			c.Backends[i].TimeoutSeconds = 30
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// FilePath returns the config file that was loaded, if any.
func (c *Config) FilePath() string { return c.filePath }

// Addr returns the listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Build creates the host backend.
func (b BackendConfig) Build() (*host.Backend, error) {
	return host.NewBackend(b.Name, b.URL, host.BackendOptions{
		Timeout:           time.Duration(b.TimeoutSeconds) * time.Second,
		RequestsPerSecond: b.RequestsPerSecond,
		Burst:             b.Burst,
	})
}

// HostOptions builds the per-session host options.
func (c *Config) HostOptions(m *metrics.Metrics) (host.Options, error) {
	backends := make([]*host.Backend, 0, len(c.Backends))
	for _, bc := range c.Backends {
		b, err := bc.Build()
		if err != nil {
			return host.Options{}, err
		}
		backends = append(backends, b)
	}
	return host.Options{
		Backends:     host.NewBackends(backends...),
		WriteChunk:   c.Guest.WriteChunk,
		BodyMaxBytes: c.Server.BodyMaxBytes,
		Metrics:      m,
	}, nil
}
