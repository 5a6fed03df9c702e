package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vango-dev/arrive/internal/errors"
	"github.com/vango-dev/arrive/pkg/arrive"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "arrive.json"

	// EnvConfig names the environment variable that points at a config file.
	EnvConfig = "ARRIVE_CONFIG"

	// DefaultPort is the default server port.
	DefaultPort = 7070

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "arrive"

	// DefaultMetricsPath is the default path of the metrics endpoint.
	DefaultMetricsPath = "/metrics"

	// DefaultScenarios is the default scenario directory for the server.
	DefaultScenarios = "scenarios"
)

// Config represents the complete arrive.json configuration.
type Config struct {
	// Defaults are the options every bind starts from.
	Defaults DefaultsConfig `json:"defaults,omitempty"`

	// Log configures the slog handler.
	Log LogConfig `json:"log,omitempty"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Server configures `arrive serve`.
	Server ServerConfig `json:"server,omitempty"`

	// S3 configures loading scenarios from s3:// URIs.
	S3 S3Config `json:"s3,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// DefaultsConfig holds per-kind bind defaults.
type DefaultsConfig struct {
	Arrive OptionsConfig `json:"arrive,omitempty"`
	Leave  OptionsConfig `json:"leave,omitempty"`
}

// OptionsConfig is the JSON form of arrive.Options.
type OptionsConfig struct {
	OnceOnly                     bool     `json:"onceOnly,omitempty"`
	Existing                     bool     `json:"existing,omitempty"`
	FireOnAttributesModification bool     `json:"fireOnAttributesModification,omitempty"`
	AttributeFilter              []string `json:"attributeFilter,omitempty"`

	// Timeout is a Go duration string such as "500ms". Empty disables it.
	Timeout string `json:"timeout,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Path      string `json:"path,omitempty"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	// Scenarios is the directory /watch resolves scenario names in.
	Scenarios string `json:"scenarios,omitempty"`
}

// S3Config contains settings for the S3 scenario source.
type S3Config struct {
	Region string `json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint, e.g. for MinIO.
	Endpoint string `json:"endpoint,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
			Path:      DefaultMetricsPath,
		},
		Server: ServerConfig{
			Host:      DefaultHost,
			Port:      DefaultPort,
			Scenarios: DefaultScenarios,
		},
		S3: S3Config{
			Region: "us-east-1",
		},
	}
}

// Load reads arrive.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("A100").
				WithDetail("No " + ConfigFileName + " found at " + path).
				WithSuggestion("Pass --config or set " + EnvConfig)
		}
		return nil, errors.New("A101").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("A101").
			WithDetail("Failed to parse " + path + ": " + err.Error()).
			WithSuggestion("Check that the file is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Resolve finds the configuration to use. An explicit path wins, then
// $ARRIVE_CONFIG, then arrive.json in the working directory. With none of
// them present the built-in defaults are returned.
func Resolve(path string) (*Config, error) {
	if path != "" {
		return LoadFile(path)
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return LoadFile(env)
	}
	if Exists(".") {
		return Load(".")
	}
	return New(), nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("A101").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("A101").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Scenarios == "" {
		c.Server.Scenarios = DefaultScenarios
	}
	if c.S3.Region == "" {
		c.S3.Region = "us-east-1"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("A103").
			WithDetail("Port must be between 0 and 65535")
	}
	if _, err := c.level(); err != nil {
		return errors.New("A104").
			WithDetail("log.level " + strconv.Quote(c.Log.Level)).
			WithSuggestion("Use debug, info, warn or error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("A104").
			WithDetail("log.format " + strconv.Quote(c.Log.Format)).
			WithSuggestion("Use text or json")
	}
	if _, err := c.EngineDefaults(); err != nil {
		return err
	}
	return nil
}

// EngineDefaults converts the defaults section to arrive.Defaults.
func (c *Config) EngineDefaults() (arrive.Defaults, error) {
	a, err := c.Defaults.Arrive.Options("defaults.arrive.timeout")
	if err != nil {
		return arrive.Defaults{}, err
	}
	l, err := c.Defaults.Leave.Options("defaults.leave.timeout")
	if err != nil {
		return arrive.Defaults{}, err
	}
	return arrive.Defaults{Arrive: a, Leave: l}, nil
}

// Options converts o to arrive.Options. field names the timeout in errors.
func (o OptionsConfig) Options(field string) (arrive.Options, error) {
	opts := arrive.Options{
		OnceOnly:                     o.OnceOnly,
		Existing:                     o.Existing,
		FireOnAttributesModification: o.FireOnAttributesModification,
		AttributeFilter:              o.AttributeFilter,
	}
	if o.Timeout == "" {
		return opts, nil
	}
	d, err := time.ParseDuration(o.Timeout)
	if err != nil || d < 0 {
		return arrive.Options{}, errors.New("A102").
			WithDetail(field + " " + strconv.Quote(o.Timeout)).
			WithSuggestion(`Use a non-negative Go duration such as "500ms"`)
	}
	opts.Timeout = d
	return opts, nil
}

func (c *Config) level() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.Log.Level))
	return l, err
}

// Logger builds a slog.Logger writing to w as configured. An invalid
// level falls back to info.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ServerAddress returns the listen address for `arrive serve`.
func (c *Config) ServerAddress() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
