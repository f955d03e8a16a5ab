// Package config loads gitviz settings from defaults, an optional YAML file,
// a .env file and GITVIZ_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrInvalidConfig  = errors.New("invalid config")
)

const (
	// EnvPrefix namespaces environment overrides, e.g. GITVIZ_SERVER_ADDR.
	EnvPrefix = "GITVIZ"

	// DefaultFileName is picked up from the working directory when no path
	// is given.
	DefaultFileName = "gitviz.yaml"

	maxPageSize = 100
)

// DotEnvPath is read before the environment is consulted. Variables already
// set in the process environment win.
var DotEnvPath = ".env"

// Settings is the full runtime configuration.
type Settings struct {
	Server    ServerSettings    `mapstructure:"server" yaml:"server"`
	GitHub    GitHubSettings    `mapstructure:"github" yaml:"github"`
	CORS      CORSSettings      `mapstructure:"cors" yaml:"cors"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit" yaml:"rate_limit"`
	Log       LogSettings       `mapstructure:"log" yaml:"log"`
}

type ServerSettings struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type GitHubSettings struct {
	APIURL         string        `mapstructure:"api_url" yaml:"api_url"`
	PageSize       int           `mapstructure:"page_size" yaml:"page_size"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

type CORSSettings struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// RateLimitSettings bounds requests per client IP. Requests <= 0 disables
// limiting.
type RateLimitSettings struct {
	Requests int           `mapstructure:"requests" yaml:"requests"`
	Window   time.Duration `mapstructure:"window" yaml:"window"`
}

type LogSettings struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Defaults returns the settings used when nothing overrides them.
func Defaults() Settings {
	return Settings{
		Server: ServerSettings{
			Addr:            ":5000",
			ShutdownTimeout: 5 * time.Second,
		},
		GitHub: GitHubSettings{
			APIURL:         "https://api.github.com",
			PageSize:       100,
			RequestTimeout: 10 * time.Second,
		},
		CORS: CORSSettings{
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		},
		RateLimit: RateLimitSettings{
			Requests: 120,
			Window:   time.Minute,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate reports the first setting that cannot be used.
func (s Settings) Validate() error {
	switch {
	case s.Server.Addr == "":
		return fmt.Errorf("%w: server.addr is required", ErrInvalidConfig)
	case s.Server.ShutdownTimeout <= 0:
		return fmt.Errorf("%w: server.shutdown_timeout must be positive", ErrInvalidConfig)
	case s.GitHub.APIURL == "":
		return fmt.Errorf("%w: github.api_url is required", ErrInvalidConfig)
	case s.GitHub.PageSize < 1 || s.GitHub.PageSize > maxPageSize:
		return fmt.Errorf("%w: github.page_size must be between 1 and %d, got %d", ErrInvalidConfig, maxPageSize, s.GitHub.PageSize)
	case s.GitHub.RequestTimeout <= 0:
		return fmt.Errorf("%w: github.request_timeout must be positive", ErrInvalidConfig)
	case s.RateLimit.Requests > 0 && s.RateLimit.Window <= 0:
		return fmt.Errorf("%w: rate_limit.window must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(s.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log.level %q", ErrInvalidConfig, s.Log.Level)
	}
	switch s.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log.format %q", ErrInvalidConfig, s.Log.Format)
	}
	return nil
}

// YAML renders the settings in config-file form.
func (s Settings) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}

// WriteFile saves settings as YAML at path.
func WriteFile(path string, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := s.YAML()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Config holds the current settings and can reload them from disk.
type Config struct {
	path     string
	settings Settings
	mu       sync.RWMutex
}

// ResolvePath picks the config file: the explicit path, then $GITVIZ_CONFIG,
// then DefaultFileName if it exists in the working directory. An empty result
// means no file.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultFileName); err == nil {
		return DefaultFileName
	}
	return ""
}

// Load reads settings. An empty path skips the file layer.
func Load(path string) (*Config, error) {
	s, err := read(path)
	if err != nil {
		return nil, err
	}
	return &Config{path: path, settings: s}, nil
}

// Reload re-reads every layer. On error the current settings are kept.
func (c *Config) Reload() (Settings, error) {
	s, err := read(c.path)
	if err != nil {
		return Settings{}, err
	}
	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()
	return s, nil
}

// Path returns the config file in use, or "" when there is none.
func (c *Config) Path() string {
	return c.path
}

// Settings returns a copy of the current settings.
func (c *Config) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.settings
	s.CORS.AllowedOrigins = append([]string(nil), c.settings.CORS.AllowedOrigins...)
	return s
}

// GetAllowedOrigins returns the CORS allow list.
func (c *Config) GetAllowedOrigins() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.settings.CORS.AllowedOrigins...)
}

func read(path string) (Settings, error) {
	// godotenv.Load never overrides variables that are already set.
	if err := godotenv.Load(DotEnvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("failed to read %s: %w", DotEnvPath, err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Settings{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
			}
			return Settings{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("github.api_url", d.GitHub.APIURL)
	v.SetDefault("github.page_size", d.GitHub.PageSize)
	v.SetDefault("github.request_timeout", d.GitHub.RequestTimeout)
	v.SetDefault("cors.allowed_origins", d.CORS.AllowedOrigins)
	v.SetDefault("rate_limit.requests", d.RateLimit.Requests)
	v.SetDefault("rate_limit.window", d.RateLimit.Window)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

func bindEnvs(v *viper.Viper) {
	keys := []string{
		"server.addr",
		"server.shutdown_timeout",
		"github.api_url",
		"github.page_size",
		"github.request_timeout",
		"cors.allowed_origins",
		"rate_limit.requests",
		"rate_limit.window",
		"log.level",
		"log.format",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}
