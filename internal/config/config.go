package config

import (
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/prop/internal/errors"
	"github.com/vango-dev/prop/pkg/convert"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "propctl.json"

	// DefaultPort is the default HTTP port.
	DefaultPort = 7070

	// DefaultHost is the default bind host.
	DefaultHost = "localhost"

	// DefaultReactorName names the reactor in logs and metrics.
	DefaultReactorName = "default"

	// DefaultSyncTimeout bounds POST /sync.
	DefaultSyncTimeout = "5s"
)

// Config represents the complete propctl.json configuration.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `json:"server,omitempty"`

	// Reactor contains settings of the process reactor.
	Reactor ReactorConfig `json:"reactor,omitempty"`

	// Log contains logging settings.
	Log LogConfig `json:"log,omitempty"`

	// Bench contains defaults for `propctl bench`.
	Bench BenchConfig `json:"bench,omitempty"`

	// Properties are created when the server starts.
	Properties []PropertyConfig `json:"properties,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// Metrics enables the /metrics endpoint.
	Metrics *bool `json:"metrics,omitempty"`

	// SyncTimeout bounds a reactor checkpoint requested over HTTP
	// (e.g. "5s").
	SyncTimeout string `json:"syncTimeout,omitempty"`
}

// ReactorConfig contains settings of the process reactor.
type ReactorConfig struct {
	// Name labels the reactor in logs, spans and metrics.
	Name string `json:"name,omitempty"`

	// LockThread runs the worker on a dedicated OS thread.
	LockThread bool `json:"lockThread,omitempty"`

	// RecoverPanics keeps the worker alive when a job panics.
	RecoverPanics bool `json:"recoverPanics,omitempty"`

	// TraceJobs records a span for every job.
	TraceJobs bool `json:"traceJobs,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// JSON switches the handler from text to JSON.
	JSON bool `json:"json,omitempty"`
}

// BenchConfig contains defaults for the reactor benchmark.
type BenchConfig struct {
	// Writers is the number of goroutines writing concurrently.
	Writers int `json:"writers,omitempty"`

	// Writes is the number of writes per writer.
	Writes int `json:"writes,omitempty"`

	// Subscribers is the number of subscribers on the benchmark property.
	Subscribers int `json:"subscribers,omitempty"`

	// Immediate delivers notifications inline instead of deferring them.
	Immediate bool `json:"immediate,omitempty"`
}

// PropertyConfig declares a property by name, type and text value.
type PropertyConfig struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// New creates a new Config with default values.
func New() *Config {
	metrics := true
	return &Config{
		Server: ServerConfig{
			Host:        DefaultHost,
			Port:        DefaultPort,
			Metrics:     &metrics,
			SyncTimeout: DefaultSyncTimeout,
		},
		Reactor: ReactorConfig{
			Name: DefaultReactorName,
		},
		Log: LogConfig{
			Level: "info",
		},
		Bench: BenchConfig{
			Writers:     4,
			Writes:      10000,
			Subscribers: 4,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for propctl.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E121").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path))
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that the file is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
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
		return errors.New("E120").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
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
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Metrics == nil {
		metrics := true
		c.Server.Metrics = &metrics
	}
	if c.Server.SyncTimeout == "" {
		c.Server.SyncTimeout = DefaultSyncTimeout
	}
	if c.Reactor.Name == "" {
		c.Reactor.Name = DefaultReactorName
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Bench.Writers == 0 {
		c.Bench.Writers = 4
	}
	if c.Bench.Writes == 0 {
		c.Bench.Writes = 10000
	}
	if c.Bench.Subscribers == 0 {
		c.Bench.Subscribers = 4
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E122").
			WithDetail("Port must be between 0 and 65535")
	}
	if _, err := time.ParseDuration(c.Server.SyncTimeout); err != nil {
		return errors.New("E122").
			WithDetail("Invalid server.syncTimeout " + strconv.Quote(c.Server.SyncTimeout))
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New("E122").
			WithDetail("Invalid log.level " + strconv.Quote(c.Log.Level)).
			WithSuggestion("Use one of debug, info, warn, error")
	}
	if c.Bench.Writers < 0 || c.Bench.Writes < 0 || c.Bench.Subscribers < 0 {
		return errors.New("E122").
			WithDetail("Bench counts must not be negative")
	}

	seen := make(map[string]bool, len(c.Properties))
	for _, p := range c.Properties {
		if p.Name == "" {
			return errors.New("E122").WithDetail("Property without a name")
		}
		if seen[p.Name] {
			return errors.New("E122").WithDetail("Duplicate property " + strconv.Quote(p.Name))
		}
		seen[p.Name] = true

		t, ok := convert.LookupType(p.Type)
		if !ok {
			return errors.New("E122").
				WithDetail("Property " + strconv.Quote(p.Name) + " has unknown type " + strconv.Quote(p.Type))
		}
		if _, err := convert.ParseAs(t, p.Value); err != nil {
			return errors.New("E122").
				WithDetail("Property " + strconv.Quote(p.Name) + ": " + err.Error())
		}
	}
	return nil
}

// Address returns the listen address of the HTTP server.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// MetricsEnabled reports whether /metrics is served.
func (c *Config) MetricsEnabled() bool {
	return c.Server.Metrics == nil || *c.Server.Metrics
}

// SyncTimeout returns the parsed server.syncTimeout, falling back to the
// default when it does not parse.
func (c *Config) SyncTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.SyncTimeout)
	if err != nil {
		d, _ = time.ParseDuration(DefaultSyncTimeout)
	}
	return d
}

// LogLevel returns the slog level of log.level. Unknown levels are info.
func (c *Config) LogLevel() slog.Level {
	l, _ := parseLevel(c.Log.Level)
	return l
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
