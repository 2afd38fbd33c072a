package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/vango-dev/scenes/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "scenes.json"

	// DefaultPort is the default live server port.
	DefaultPort = 3100

	// DefaultHost is the default live server host.
	DefaultHost = "localhost"

	// DefaultDashboard is the default dashboard definition path.
	DefaultDashboard = "dashboard.yaml"

	// DefaultDebounce is the default delay before a changed data file is reloaded.
	DefaultDebounce = "200ms"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "scenes"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "github.com/vango-dev/scenes"

	// DefaultSubject is the default NATS subject snapshots are published on.
	DefaultSubject = "scenes.snapshots"

	// EnvFileName is the optional dotenv file read next to scenes.json.
	EnvFileName = ".env"
)

// Config represents the complete scenes.json configuration.
type Config struct {
	// Dashboard is the path to the dashboard definition (JSON or YAML).
	Dashboard string `json:"dashboard,omitempty"`

	// Server contains live server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Data contains panel data source configuration.
	Data DataConfig `json:"data,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// Telemetry contains metrics and tracing configuration.
	Telemetry TelemetryConfig `json:"telemetry,omitempty"`

	// NATS contains snapshot publishing configuration.
	NATS NATSConfig `json:"nats,omitempty"`

	configPath string
}

// ServerConfig contains live server settings.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	// AllowedOrigins lists origins accepted on the websocket endpoint.
	// Empty means same-origin only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// DataConfig contains panel data source settings.
type DataConfig struct {
	// Path is a JSON file holding a panel data payload.
	Path string `json:"path,omitempty"`

	// Watch reloads Path whenever it changes.
	Watch bool `json:"watch,omitempty"`

	// Debounce is the quiet period before a change is applied (e.g. "200ms").
	Debounce string `json:"debounce,omitempty"`

	// Refresh reloads Path on a fixed interval (e.g. "30s"). Empty disables it.
	Refresh string `json:"refresh,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// TelemetryConfig contains metrics and tracing settings.
type TelemetryConfig struct {
	Namespace  string `json:"namespace,omitempty"`
	TracerName string `json:"tracerName,omitempty"`
}

// NATSConfig contains NATS settings. Publishing is off when URL is empty.
type NATSConfig struct {
	URL     string `json:"url,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Dashboard: DefaultDashboard,
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Data: DataConfig{
			Debounce: DefaultDebounce,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			Namespace:  DefaultNamespace,
			TracerName: DefaultTracerName,
		},
		NATS: NATSConfig{
			Subject: DefaultSubject,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for scenes.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("S102").
				WithDetail("No scenes.json found in " + filepath.Dir(path)).
				WithSuggestion("Create scenes.json or pass --config")
		}
		return nil, errors.New("S101").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("S101").
			WithDetail("Failed to parse scenes.json: " + err.Error()).
			WithSuggestion("Check that scenes.json is valid JSON")
	}

	cfg.configPath = path
	if err := loadDotEnv(filepath.Join(filepath.Dir(path), EnvFileName)); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
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
		return errors.New("S101").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("S101").Wrap(err)
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
	if c.Dashboard == "" {
		c.Dashboard = DefaultDashboard
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Data.Debounce == "" {
		c.Data.Debounce = DefaultDebounce
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Telemetry.Namespace == "" {
		c.Telemetry.Namespace = DefaultNamespace
	}
	if c.Telemetry.TracerName == "" {
		c.Telemetry.TracerName = DefaultTracerName
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = DefaultSubject
	}
}

// Environment variables that override scenes.json.
const (
	EnvHost      = "SCENES_HOST"
	EnvPort      = "SCENES_PORT"
	EnvDashboard = "SCENES_DASHBOARD"
	EnvData      = "SCENES_DATA"
	EnvLogLevel  = "SCENES_LOG_LEVEL"
	EnvNATSURL   = "SCENES_NATS_URL"
)

// ApplyEnv overrides fields from SCENES_* environment variables. A port
// that is not a number is stored as -1 so that Validate rejects it.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvHost); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			port = -1
		}
		c.Server.Port = port
	}
	if v := os.Getenv(EnvDashboard); v != "" {
		c.Dashboard = v
	}
	if v := os.Getenv(EnvData); v != "" {
		c.Data.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvNATSURL); v != "" {
		c.NATS.URL = v
	}
}

// loadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.New("S101").
			WithLocation(path, "").
			WithDetail("Failed to parse " + EnvFileName + ": " + err.Error())
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("S103").
			WithLocation(c.configPath, "server.port").
			WithDetail("Port must be between 0 and 65535")
	}
	if _, err := c.DebounceDuration(); err != nil {
		return errors.New("S103").
			WithLocation(c.configPath, "data.debounce").
			WithDetail("Debounce must be a non-negative duration such as \"200ms\"").
			Wrap(err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return errors.New("S103").
			WithLocation(c.configPath, "log.level").
			WithDetail(err.Error()).
			WithSuggestion("Use one of debug, info, warn, error")
	}
	if _, err := c.RefreshInterval(); err != nil {
		return errors.New("S103").
			WithLocation(c.configPath, "data.refresh").
			WithDetail("Refresh must be a positive duration such as \"30s\"").
			Wrap(err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return errors.New("S103").
			WithLocation(c.configPath, "log.format").
			WithDetail("Unknown log format " + strconv.Quote(c.Log.Format)).
			WithSuggestion("Use text or json")
	}
	return nil
}

// Address returns the listen address of the live server.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// DebounceDuration parses Data.Debounce.
func (c *Config) DebounceDuration() (time.Duration, error) {
	if c.Data.Debounce == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Data.Debounce)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, errors.Newf(errors.CategoryConfig, "negative debounce %s", c.Data.Debounce)
	}
	return d, nil
}

// RefreshInterval parses Data.Refresh. Zero means no periodic refresh.
func (c *Config) RefreshInterval() (time.Duration, error) {
	if c.Data.Refresh == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Data.Refresh)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.Newf(errors.CategoryConfig, "refresh must be positive, got %s", c.Data.Refresh)
	}
	return d, nil
}

// LogLevel returns the configured slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// DashboardPath returns the absolute path to the dashboard definition.
func (c *Config) DashboardPath() string {
	return c.resolve(c.Dashboard)
}

// DataPath returns the absolute path to the data file, or "" when unset.
func (c *Config) DataPath() string {
	if c.Data.Path == "" {
		return ""
	}
	return c.resolve(c.Data.Path)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	err := level.UnmarshalText([]byte(strings.ToUpper(s)))
	return level, err
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the directory containing
// scenes.json.
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
			return "", errors.New("S102").
				WithDetail("No scenes.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
