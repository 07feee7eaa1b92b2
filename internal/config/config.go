package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/render"
	"github.com/vango-dev/vtree/pkg/server"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "vtree.json"

	// DefaultPort is the default server port.
	DefaultPort = 7070

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultSession is the default session id for `vtree serve`.
	DefaultSession = "main"
)

// Environment variables that override file values.
const (
	EnvPort     = "VTREE_PORT"
	EnvHost     = "VTREE_HOST"
	EnvLogLevel = "VTREE_LOG_LEVEL"
)

// Snapshot backends.
const (
	BackendMemory = "memory"
	BackendS3     = "s3"
)

// Config represents the complete vtree.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Port is the server port.
	Port int `json:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `json:"logLevel,omitempty"`

	// Trees lists the tree documents `vtree serve` steps through.
	Trees []string `json:"trees,omitempty"`

	// Server contains session server settings.
	Server ServerConfig `json:"server,omitempty"`

	// Snapshot contains snapshot persistence settings.
	Snapshot SnapshotConfig `json:"snapshot,omitempty"`

	// Render contains HTML output settings.
	Render RenderConfig `json:"render,omitempty"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains session server settings.
type ServerConfig struct {
	// Session is the id of the served session.
	Session string `json:"session,omitempty"`

	// Title is the page title.
	Title string `json:"title,omitempty"`

	// Heartbeat is the websocket ping interval (e.g., "30s").
	Heartbeat string `json:"heartbeat,omitempty"`

	// ReadTimeout is how long a subscriber may stay silent (e.g., "60s").
	ReadTimeout string `json:"readTimeout,omitempty"`

	// MaxMessageSize is the largest accepted event frame in bytes.
	MaxMessageSize int64 `json:"maxMessageSize,omitempty"`

	// PatchHistory is the number of patches frames kept for resume.
	PatchHistory int `json:"patchHistory,omitempty"`

	// SendQueue is the per-subscriber frame queue length.
	SendQueue int `json:"sendQueue,omitempty"`
}

// SnapshotConfig contains snapshot persistence settings.
type SnapshotConfig struct {
	// Backend is "memory" or "s3".
	Backend string `json:"backend,omitempty"`

	// Bucket is the S3 bucket.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is prepended to every object key.
	Prefix string `json:"prefix,omitempty"`

	// Region is the AWS region of the bucket.
	Region string `json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	Endpoint string `json:"endpoint,omitempty"`
}

// RenderConfig contains HTML output settings.
type RenderConfig struct {
	Pretty bool   `json:"pretty,omitempty"`
	Indent string `json:"indent,omitempty"`
	Minify bool   `json:"minify,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled serves /metrics.
	Enabled bool `json:"enabled,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory.
// It looks for vtree.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadOrDefault is Load, except that a missing vtree.json yields the
// defaults with environment overrides applied.
func LoadOrDefault(dir string) (*Config, error) {
	if !Exists(dir) {
		c := New()
		if err := c.applyEnv(); err != nil {
			return nil, err
		}
		return c, nil
	}
	return Load(dir)
}

// LoadFile reads configuration from the specified file path and applies
// environment overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E401").
				WithDetail("No vtree.json found in " + filepath.Dir(path)).
				WithSuggestion("Create vtree.json or run without a config file").
				Wrap(err)
		}
		return nil, errors.New("E401").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E401").
			WithDetail("Failed to parse vtree.json: " + err.Error()).
			WithSuggestion("Check that vtree.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
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
		return errors.New("E401").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E401").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}

	// Server
	defaults := server.DefaultConfig()
	if c.Server.Session == "" {
		c.Server.Session = DefaultSession
	}
	if c.Server.Title == "" {
		c.Server.Title = defaults.Title
	}
	if c.Server.Heartbeat == "" {
		c.Server.Heartbeat = defaults.HeartbeatInterval.String()
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = defaults.ReadTimeout.String()
	}
	if c.Server.MaxMessageSize == 0 {
		c.Server.MaxMessageSize = defaults.MaxMessageSize
	}
	if c.Server.PatchHistory == 0 {
		c.Server.PatchHistory = defaults.MaxPatchHistory
	}
	if c.Server.SendQueue == 0 {
		c.Server.SendQueue = defaults.SendQueue
	}

	// Snapshot
	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = BackendMemory
	}

	// Metrics
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "vtree"
	}
}

// applyEnv overrides file values with VTREE_* environment variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("E402").
				WithDetail(fmt.Sprintf("%s=%q is not a port number", EnvPort, v)).
				Wrap(err)
		}
		c.Port = port
	}
	if v := os.Getenv(EnvHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.New("E402").
			WithDetail("Port must be between 0 and 65535")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	for _, d := range []struct{ name, value string }{
		{"server.heartbeat", c.Server.Heartbeat},
		{"server.readTimeout", c.Server.ReadTimeout},
	} {
		if v, err := time.ParseDuration(d.value); err != nil || v <= 0 {
			return errors.New("E402").
				WithDetail(fmt.Sprintf("%s must be a positive duration, got %q", d.name, d.value))
		}
	}
	if c.Server.MaxMessageSize < 0 || c.Server.PatchHistory < 0 || c.Server.SendQueue < 0 {
		return errors.New("E402").
			WithDetail("server limits must not be negative")
	}
	switch c.Snapshot.Backend {
	case BackendMemory:
	case BackendS3:
		if c.Snapshot.Bucket == "" {
			return errors.New("E402").
				WithDetail("snapshot.bucket is required for the s3 backend")
		}
	default:
		return errors.New("E402").
			WithDetail(fmt.Sprintf("unknown snapshot backend %q", c.Snapshot.Backend)).
			WithSuggestion(`Use "memory" or "s3"`)
	}
	return nil
}

// Address returns the host:port the server listens on.
func (c *Config) Address() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, errors.New("E402").
			WithDetail(fmt.Sprintf("unknown log level %q", c.LogLevel)).
			WithSuggestion("Use debug, info, warn or error")
	}
	return level, nil
}

// ServerConfig returns the session server configuration. Durations that do
// not parse keep their defaults; Validate reports them.
func (c *Config) ServerConfig() *server.Config {
	sc := server.DefaultConfig()
	sc.Title = c.Server.Title
	if d, err := time.ParseDuration(c.Server.Heartbeat); err == nil && d > 0 {
		sc.HeartbeatInterval = d
	}
	if d, err := time.ParseDuration(c.Server.ReadTimeout); err == nil && d > 0 {
		sc.ReadTimeout = d
	}
	if c.Server.MaxMessageSize > 0 {
		sc.MaxMessageSize = c.Server.MaxMessageSize
	}
	if c.Server.PatchHistory > 0 {
		sc.MaxPatchHistory = c.Server.PatchHistory
	}
	if c.Server.SendQueue > 0 {
		sc.SendQueue = c.Server.SendQueue
	}
	return sc
}

// RendererConfig returns the HTML renderer configuration.
func (c *Config) RendererConfig() render.RendererConfig {
	return render.RendererConfig{
		Pretty: c.Render.Pretty,
		Indent: c.Render.Indent,
		Minify: c.Render.Minify,
	}
}

// TreePaths returns Trees resolved against the config directory.
func (c *Config) TreePaths() []string {
	paths := make([]string, len(c.Trees))
	for i, p := range c.Trees {
		if filepath.IsAbs(p) || c.configPath == "" {
			paths[i] = p
		} else {
			paths[i] = filepath.Join(c.Dir(), p)
		}
	}
	return paths
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing vtree.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E401").
				WithDetail("No vtree.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
