// Package config loads the client configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"
)

const (
	DefaultPath     = "configs/client_config.json"
	DefaultHost     = "127.0.0.1"
	DefaultPort     = 8888
	DefaultWSPath   = "/ws"
	DefaultLogLevel = int(slog.LevelWarn)
)

// Environment overrides
const (
	ENV_HOST      = "CHATAGENT_HOST"
	ENV_PORT      = "CHATAGENT_PORT"
	ENV_LOG_LEVEL = "CHATAGENT_LOG_LEVEL"
)

type Config struct {
	// Name is the client name used in logs
	Name string `json:"name"`

	Host string `json:"host"`
	Port int    `json:"port"`
	Path string `json:"path"`

	// LogLevel uses slog levels: -4 debug, 0 info, 4 warn, 8 error
	LogLevel int `json:"log_level"`
	// LogFile receives the logs instead of stderr when set
	LogFile string `json:"log_file"`

	Reconnection Reconnection `json:"reconnection"`
}

type Reconnection struct {
	RetryDelaySeconds float64 `json:"retry_delay_seconds"`
	// MaxRetries is the number of consecutive failed dials tolerated; negative
	// retries forever
	MaxRetries int `json:"max_retries"`
}

// RetryDelay returns the delay between dial attempts.
func (r Reconnection) RetryDelay() time.Duration {
	return time.Duration(r.RetryDelaySeconds * float64(time.Second))
}

func Default() *Config {
	return &Config{
		Host:     DefaultHost,
		Port:     DefaultPort,
		Path:     DefaultWSPath,
		LogLevel: DefaultLogLevel,
		Reconnection: Reconnection{
			RetryDelaySeconds: 3,
			MaxRetries:        3,
		},
	}
}

// Load reads the JSON file at path on top of the defaults and applies the
// environment overrides. The returned error wraps fs.ErrNotExist when the file
// is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// FromEnv returns the defaults with the environment overrides applied.
func FromEnv() (*Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(ENV_HOST); v != "" {
		c.Host = v
	}
	if v := os.Getenv(ENV_PORT); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be a port number: %w", ENV_PORT, err)
		}
		c.Port = p
	}
	if v := os.Getenv(ENV_LOG_LEVEL); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", ENV_LOG_LEVEL, err)
		}
		c.LogLevel = l
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host must be set")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Reconnection.RetryDelaySeconds < 0 {
		return fmt.Errorf("retry_delay_seconds must not be negative")
	}
	return nil
}

// Address returns the websocket URL of the server.
func (c *Config) Address() string {
	path := c.Path
	if path == "" {
		path = DefaultWSPath
	}
	u := url.URL{
		Scheme: "ws",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   path,
	}
	return u.String()
}

// Resolve loads the config at path. A missing file is only an error when the
// path was passed explicitly; otherwise the defaults are used.
func Resolve(path string, explicit bool) (*Config, error) {
	cfg, err := Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return FromEnv()
	}
	return cfg, err
}
